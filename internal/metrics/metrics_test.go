package metrics_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DMarby/instafilter/internal/cache/memory"
	"github.com/DMarby/instafilter/internal/health"
	"github.com/DMarby/instafilter/internal/logger"
	"github.com/DMarby/instafilter/internal/metrics"
	"go.uber.org/zap"
)

func TestRouter(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	checker := &health.Checker{Ctx: ctx, Cache: memory.New(0), Log: logger.New(zap.FatalLevel)}
	checker.Run()

	router := metrics.Router(checker)

	tests := []struct {
		URL             string
		ExpectedContent string
	}{
		{"/metrics/prometheus", "instafilter_build_info"},
		{"/health", `"healthy":true`},
		{"/metrics", ""},
		{"/debug/pprof/", "goroutine"},
	}

	for _, test := range tests {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest("GET", test.URL, nil))

		if rr.Code != http.StatusOK {
			t.Errorf("%s: wrong response code %d", test.URL, rr.Code)
			continue
		}

		if !strings.Contains(rr.Body.String(), test.ExpectedContent) {
			t.Errorf("%s: missing %s", test.URL, test.ExpectedContent)
		}
	}
}
