package pagination

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func paramsFor(t *testing.T, query string) Params {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/?"+query, nil)
	return FromContext(e.NewContext(req, httptest.NewRecorder()))
}

func TestFromContext(t *testing.T) {
	cases := []struct {
		query      string
		wantLimit  int
		wantOffset int
	}{
		{query: "", wantLimit: DefaultLimit, wantOffset: 0},
		{query: "limit=5&offset=10", wantLimit: 5, wantOffset: 10},
		{query: "limit=1000", wantLimit: MaxLimit, wantOffset: 0},
		{query: "limit=-1&offset=-5", wantLimit: DefaultLimit, wantOffset: 0},
		{query: "limit=abc", wantLimit: DefaultLimit, wantOffset: 0},
	}
	for _, tc := range cases {
		got := paramsFor(t, tc.query)
		if got.Limit != tc.wantLimit || got.Offset != tc.wantOffset {
			t.Errorf("query %q: got %+v, want limit=%d offset=%d", tc.query, got, tc.wantLimit, tc.wantOffset)
		}
	}
}

func TestNewResponse_HasMore(t *testing.T) {
	if resp := NewResponse(nil, 50, 20, 0); !resp.HasMore {
		t.Error("expected more pages when offset+limit < total")
	}
	if resp := NewResponse(nil, 50, 20, 40); resp.HasMore {
		t.Error("expected no more pages on the last page")
	}
}
