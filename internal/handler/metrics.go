package handler

import (
	"expvar"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/felixge/httpsnoop"
)

var httpRequestsInFlight = expvar.NewInt("gauge_http_requests_in_flight")
var httpRequestDurationSeconds = NewRequestHistogram(0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 5, 10)

func init() {
	expvar.Publish("http_request_duration_seconds", httpRequestDurationSeconds)
}

// Metrics is a handler that collects performance metrics
func Metrics(h http.Handler, routeMatcher RouteMatcher) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := routeMatcher.Match(r)

		httpRequestsInFlight.Add(1)
		defer httpRequestsInFlight.Add(-1)

		respMetrics := httpsnoop.CaptureMetricsFn(w, func(ww http.ResponseWriter) {
			h.ServeHTTP(ww, r)
		})

		httpRequestDurationSeconds.Add(route, respMetrics.Code, respMetrics.Duration)
	})
}

type requestKey struct {
	route string
	code  int
}

type bucket struct {
	counts        []int64
	count         int64
	totalDuration float64
}

// RequestHistogram is an expvar histogram of request durations by route and status code
// It is written in the prometheus text format by the varz handler
type RequestHistogram struct {
	bounds []float64

	mu      sync.Mutex
	buckets map[requestKey]*bucket
}

// NewRequestHistogram creates a histogram with the given upper bounds, in seconds
func NewRequestHistogram(bounds ...float64) *RequestHistogram {
	sort.Float64s(bounds)

	return &RequestHistogram{
		bounds:  bounds,
		buckets: make(map[requestKey]*bucket),
	}
}

// Add records a request duration
func (r *RequestHistogram) Add(route string, code int, duration time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := requestKey{route, code}
	b, exists := r.buckets[key]
	if !exists {
		b = &bucket{counts: make([]int64, len(r.bounds))}
		r.buckets[key] = b
	}

	seconds := duration.Seconds()
	b.count++
	b.totalDuration += seconds

	for i, bound := range r.bounds {
		if seconds <= bound {
			b.counts[i]++
		}
	}
}

// WritePrometheus writes the histogram in the prometheus text format
func (r *RequestHistogram) WritePrometheus(w io.Writer, prefix string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	fmt.Fprintf(w, "# TYPE %s histogram\n", prefix)

	keys := make([]requestKey, 0, len(r.buckets))
	for key := range r.buckets {
		keys = append(keys, key)
	}

	sort.Slice(keys, func(i, j int) bool {
		if keys[i].route != keys[j].route {
			return keys[i].route < keys[j].route
		}

		return keys[i].code < keys[j].code
	})

	for _, key := range keys {
		b := r.buckets[key]
		code := strconv.Itoa(key.code)

		for i, bound := range r.bounds {
			fmt.Fprintf(w, "%s_bucket{path=%q,code=%q,le=%q} %d\n", prefix, key.route, code, strconv.FormatFloat(bound, 'g', -1, 64), b.counts[i])
		}

		fmt.Fprintf(w, "%s_bucket{path=%q,code=%q,le=\"+Inf\"} %d\n", prefix, key.route, code, b.count)
		fmt.Fprintf(w, "%s_count{path=%q,code=%q} %d\n", prefix, key.route, code, b.count)
		fmt.Fprintf(w, "%s_sum{path=%q,code=%q} %v\n", prefix, key.route, code, b.totalDuration)
	}
}

func (r *RequestHistogram) String() string {
	return "{}"
}
