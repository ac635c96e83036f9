// Package review holds the review request side effects triggered by the application counter.
package review

import (
	"context"
	"expvar"
	"sync"

	"github.com/DMarby/instafilter/internal/logger"
)

var reviewRequests = expvar.NewInt("counter_review_requests")

// RequestFunc asks the user to review the app
// It is fire and forget: the outcome is never reported back
type RequestFunc func(ctx context.Context)

// Logging returns a RequestFunc that records the request in the logs and metrics
func Logging(log *logger.Logger) RequestFunc {
	return func(ctx context.Context) {
		reviewRequests.Add(1)
		log.Infow("review requested")
	}
}

// Recorder is a RequestFunc that counts the requests it receives
type Recorder struct {
	mu       sync.Mutex
	requests int
}

// Request records a review request
func (r *Recorder) Request(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.requests++
}

// Requests returns the number of recorded review requests
func (r *Recorder) Requests() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.requests
}
