// Package counter implements the application counter that periodically asks the user for a review.
//
// Every filter selection is recorded. Once the persisted count reaches the threshold the review
// request is fired and the count starts over from zero.
package counter

import (
	"context"
	"fmt"
	"sync"

	"github.com/DMarby/instafilter/internal/review"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Key is the name the count is persisted under
const Key = "filterCount"

// DefaultThreshold is the amount of selections between review requests
const DefaultThreshold = 20

var selectionsTotal = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "instafilter",
	Name:      "filter_selections_total",
	Help:      "Number of filter selections recorded by the application counter.",
})

// Store persists named integers
// Load returns 0 for a name that has never been saved
type Store interface {
	Load(ctx context.Context, key string) (int, error)
	Save(ctx context.Context, key string, value int) error
}

// Counter counts filter selections and triggers review requests
type Counter struct {
	store     Store
	threshold int
	request   review.RequestFunc

	mu sync.Mutex
}

// New creates a Counter persisted in store, calling request every threshold selections
func New(store Store, threshold int, request review.RequestFunc) *Counter {
	if threshold < 1 {
		threshold = DefaultThreshold
	}

	return &Counter{
		store:     store,
		threshold: threshold,
		request:   request,
	}
}

// Record counts a filter selection
// It returns the new count, and whether a review was requested
func (c *Counter) Record(ctx context.Context) (int, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	count, err := c.store.Load(ctx, Key)
	if err != nil {
		return 0, false, fmt.Errorf("error loading counter: %w", err)
	}

	selectionsTotal.Inc()

	count++
	requested := false
	if count >= c.threshold {
		if c.request != nil {
			c.request(ctx)
		}

		requested = true
		count = 0
	}

	if err := c.store.Save(ctx, Key, count); err != nil {
		return count, requested, fmt.Errorf("error saving counter: %w", err)
	}

	return count, requested, nil
}

// Value returns the persisted count
func (c *Counter) Value(ctx context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.store.Load(ctx, Key)
}
