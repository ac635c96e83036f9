package mock

import (
	"context"
	"fmt"

	"github.com/DMarby/instafilter/internal/cache"
)

// Provider is a mock cache
// The key decides the behaviour: "notfound", "notfounderr" and "seterror" are missing, "error" fails to get,
// "seterror" fails to set, and anything else returns the key itself
type Provider struct{}

// Get returns an object from the cache if it exists
func (p *Provider) Get(ctx context.Context, key string) (data []byte, err error) {
	switch key {
	case "notfound", "notfounderr", "seterror", "healthcheck":
		return nil, cache.ErrNotFound
	case "error":
		return nil, fmt.Errorf("error")
	}

	return []byte(key), nil
}

// Set adds an object to the cache
func (p *Provider) Set(ctx context.Context, key string, data []byte) (err error) {
	if key == "seterror" {
		return fmt.Errorf("seterror")
	}

	return nil
}

// Shutdown shuts down the cache
func (p *Provider) Shutdown() {}

// Broken is a cache that fails every operation
type Broken struct{}

// Get returns an error
func (b *Broken) Get(ctx context.Context, key string) (data []byte, err error) {
	return nil, fmt.Errorf("cache unavailable")
}

// Set returns an error
func (b *Broken) Set(ctx context.Context, key string, data []byte) (err error) {
	return fmt.Errorf("cache unavailable")
}

// Shutdown shuts down the cache
func (b *Broken) Shutdown() {}
