// Package telemetry exposes request and prediction counters through a
// Prometheus text exposition endpoint, using only standard library
// constructs rather than the prometheus client SDK.
package telemetry

import (
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
)

// Metrics collects counters for the server. All methods are safe for
// concurrent use.
type Metrics struct {
	mu          sync.Mutex
	started     time.Time
	httpTotal   map[string]int64 // key: method|status
	predictions map[string]int64 // key: disease|status
}

func NewMetrics() *Metrics {
	return &Metrics{
		started:     time.Now(),
		httpTotal:   make(map[string]int64),
		predictions: make(map[string]int64),
	}
}

// Middleware counts every completed HTTP request by method and status code.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)

			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				} else {
					status = http.StatusInternalServerError
				}
			}

			m.mu.Lock()
			m.httpTotal[c.Request().Method+"|"+strconv.Itoa(status)]++
			m.mu.Unlock()
			return err
		}
	}
}

// RecordPrediction counts one prediction outcome by disease id and status.
func (m *Metrics) RecordPrediction(disease, status string) {
	if disease == "" {
		disease = "unknown"
	}
	m.mu.Lock()
	m.predictions[disease+"|"+status]++
	m.mu.Unlock()
}

// Handler serves the counters in Prometheus text exposition format.
func (m *Metrics) Handler() echo.HandlerFunc {
	return func(c echo.Context) error {
		m.mu.Lock()
		var b strings.Builder

		b.WriteString("# HELP riskscreen_uptime_seconds Time since the server started.\n")
		b.WriteString("# TYPE riskscreen_uptime_seconds gauge\n")
		fmt.Fprintf(&b, "riskscreen_uptime_seconds %d\n", int64(time.Since(m.started).Seconds()))

		b.WriteString("# HELP riskscreen_http_requests_total HTTP requests by method and status.\n")
		b.WriteString("# TYPE riskscreen_http_requests_total counter\n")
		for _, k := range sortedKeys(m.httpTotal) {
			parts := strings.SplitN(k, "|", 2)
			fmt.Fprintf(&b, "riskscreen_http_requests_total{method=%q,status=%q} %d\n", parts[0], parts[1], m.httpTotal[k])
		}

		b.WriteString("# HELP riskscreen_predictions_total Prediction outcomes by disease and status.\n")
		b.WriteString("# TYPE riskscreen_predictions_total counter\n")
		for _, k := range sortedKeys(m.predictions) {
			parts := strings.SplitN(k, "|", 2)
			fmt.Fprintf(&b, "riskscreen_predictions_total{disease=%q,status=%q} %d\n", parts[0], parts[1], m.predictions[k])
		}
		m.mu.Unlock()

		return c.String(http.StatusOK, b.String())
	}
}

func sortedKeys(m map[string]int64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
