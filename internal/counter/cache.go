package counter

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/DMarby/instafilter/internal/cache"
)

// CacheStore persists counts in a cache provider
type CacheStore struct {
	Provider cache.Provider
}

// Load returns the value stored for key, or 0 if there is none
func (s *CacheStore) Load(ctx context.Context, key string) (int, error) {
	data, err := s.Provider.Get(ctx, key)
	if errors.Is(err, cache.ErrNotFound) {
		return 0, nil
	}

	if err != nil {
		return 0, err
	}

	value, err := strconv.Atoi(string(data))
	if err != nil {
		return 0, fmt.Errorf("invalid counter value %q: %w", data, err)
	}

	return value, nil
}

// Save stores value for key
func (s *CacheStore) Save(ctx context.Context, key string, value int) error {
	return s.Provider.Set(ctx, key, []byte(strconv.Itoa(value)))
}
