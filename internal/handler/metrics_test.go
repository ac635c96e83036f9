package handler_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DMarby/instafilter/internal/handler"
	"github.com/gorilla/mux"
)

func TestRequestHistogram(t *testing.T) {
	histogram := handler.NewRequestHistogram(1, 0.1)
	histogram.Add("/filters", 200, 50*time.Millisecond)
	histogram.Add("/filters", 200, 500*time.Millisecond)
	histogram.Add("/filters", 404, 2*time.Second)

	buf := new(bytes.Buffer)
	histogram.WritePrometheus(buf, "http_request_duration_seconds")
	output := buf.String()

	expected := []string{
		"# TYPE http_request_duration_seconds histogram",
		`http_request_duration_seconds_bucket{path="/filters",code="200",le="0.1"} 1`,
		`http_request_duration_seconds_bucket{path="/filters",code="200",le="1"} 2`,
		`http_request_duration_seconds_bucket{path="/filters",code="200",le="+Inf"} 2`,
		`http_request_duration_seconds_count{path="/filters",code="404"} 1`,
		`http_request_duration_seconds_bucket{path="/filters",code="404",le="1"} 0`,
	}

	for _, line := range expected {
		if !strings.Contains(output, line+"\n") {
			t.Errorf("missing line %s in\n%s", line, output)
		}
	}
}

func TestMetrics(t *testing.T) {
	router := mux.NewRouter()
	router.HandleFunc("/sessions/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}).Name("/sessions/{id}")

	h := handler.Metrics(router, &handler.MuxRouteMatcher{Router: router})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/sessions/abc", nil))

	if rr.Code != http.StatusTeapot {
		t.Errorf("wrong status code %d", rr.Code)
	}

	matcher := &handler.MuxRouteMatcher{Router: router}
	if route := matcher.Match(httptest.NewRequest("GET", "/sessions/abc", nil)); route != "/sessions/{id}" {
		t.Errorf("wrong route %s", route)
	}

	if route := matcher.Match(httptest.NewRequest("GET", "/nope", nil)); route != "unknown" {
		t.Errorf("wrong route %s", route)
	}
}
