package telemetry

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	if err := m.Handler()(e.NewContext(req, rec)); err != nil {
		t.Fatalf("metrics handler: %v", err)
	}
	return rec.Body.String()
}

func TestMiddleware_CountsRequests(t *testing.T) {
	m := NewMetrics()
	e := echo.New()
	e.Use(m.Middleware())
	e.GET("/ok", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/bad", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusBadRequest, "nope")
	})

	for _, path := range []string{"/ok", "/ok", "/bad"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		e.ServeHTTP(httptest.NewRecorder(), req)
	}

	body := scrape(t, m)
	if !strings.Contains(body, `riskscreen_http_requests_total{method="GET",status="200"} 2`) {
		t.Errorf("missing 200 counter in:\n%s", body)
	}
	if !strings.Contains(body, `riskscreen_http_requests_total{method="GET",status="400"} 1`) {
		t.Errorf("missing 400 counter in:\n%s", body)
	}
}

func TestRecordPrediction(t *testing.T) {
	m := NewMetrics()
	m.RecordPrediction("diabetes", "success")
	m.RecordPrediction("diabetes", "success")
	m.RecordPrediction("", "input_error")

	body := scrape(t, m)
	if !strings.Contains(body, `riskscreen_predictions_total{disease="diabetes",status="success"} 2`) {
		t.Errorf("missing diabetes counter in:\n%s", body)
	}
	if !strings.Contains(body, `riskscreen_predictions_total{disease="unknown",status="input_error"} 1`) {
		t.Errorf("missing unknown-disease counter in:\n%s", body)
	}
}

func TestRecordPrediction_Concurrent(t *testing.T) {
	m := NewMetrics()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.RecordPrediction("stroke", "success")
		}()
	}
	wg.Wait()

	body := scrape(t, m)
	if !strings.Contains(body, `riskscreen_predictions_total{disease="stroke",status="success"} 50`) {
		t.Errorf("expected 50 stroke predictions in:\n%s", body)
	}
}
