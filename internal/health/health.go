package health

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/DMarby/instafilter/internal/cache"
	"github.com/DMarby/instafilter/internal/counter"
	"github.com/DMarby/instafilter/internal/library"
	"github.com/DMarby/instafilter/internal/logger"
	"github.com/DMarby/instafilter/internal/storage"
)

const checkInterval = 10 * time.Second
const checkTimeout = 8 * time.Second

// Component states
const (
	Healthy   = "healthy"
	Unhealthy = "unhealthy"
	Unknown   = "unknown"
)

// Checker is a periodic health checker
// Only the components that are set are checked
type Checker struct {
	Ctx          context.Context
	Storage      storage.Provider
	Library      library.Provider
	PhotoID      string // Photo ID to look up in the library and storage
	Cache        cache.Provider
	CounterStore counter.Store
	Log          *logger.Logger

	status Status
	mutex  sync.RWMutex
}

// Status contains the healtcheck status
type Status struct {
	Healthy bool   `json:"healthy"`
	Cache   string `json:"cache,omitempty"`
	Counter string `json:"counter,omitempty"`
	Library string `json:"library,omitempty"`
	Storage string `json:"storage,omitempty"`
}

type component struct {
	state *string
	check func(ctx context.Context) error
}

// Run runs a check, and keeps checking in the background until the context is canceled
func (c *Checker) Run() {
	ticker := time.NewTicker(checkInterval)
	go func() {
		for {
			select {
			case <-ticker.C:
				c.runCheck()
			case <-c.Ctx.Done():
				ticker.Stop()
				return
			}
		}
	}()

	c.runCheck()
}

// Status returns the status of the health checks
func (c *Checker) Status() Status {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	return c.status
}

func (c *Checker) runCheck() {
	ctx, cancel := context.WithTimeout(c.Ctx, checkTimeout)
	defer cancel()

	channel := make(chan Status, 1)
	go c.check(ctx, channel)

	select {
	case <-ctx.Done():
		status := Status{Healthy: false}
		for _, component := range c.components(&status) {
			*component.state = Unknown
		}

		c.setStatus(status)
		c.Log.Errorw("healthcheck timed out")
	case status, ok := <-channel:
		if !ok {
			return
		}

		c.setStatus(status)
		if !status.Healthy {
			c.Log.Errorw("healthcheck error",
				"status", status,
			)
		}
	}
}

func (c *Checker) setStatus(status Status) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.status = status
}

func (c *Checker) check(ctx context.Context, channel chan Status) {
	defer close(channel)

	status := Status{Healthy: true}
	for _, component := range c.components(&status) {
		if ctx.Err() != nil {
			return
		}

		if err := component.check(ctx); err != nil {
			status.Healthy = false
			*component.state = Unhealthy
		} else {
			*component.state = Healthy
		}
	}

	channel <- status
}

// components returns the configured components, with their state stored in status
func (c *Checker) components(status *Status) []component {
	components := []component{}

	if c.Library != nil {
		components = append(components, component{&status.Library, func(ctx context.Context) error {
			_, err := c.Library.Get(ctx, c.PhotoID)
			return err
		}})
	}

	if c.Cache != nil {
		components = append(components, component{&status.Cache, func(ctx context.Context) error {
			if _, err := c.Cache.Get(ctx, "healthcheck"); !errors.Is(err, cache.ErrNotFound) {
				return errors.New("unexpected cache response")
			}

			return nil
		}})
	}

	if c.CounterStore != nil {
		components = append(components, component{&status.Counter, func(ctx context.Context) error {
			_, err := c.CounterStore.Load(ctx, counter.Key)
			return err
		}})
	}

	if c.Storage != nil {
		components = append(components, component{&status.Storage, func(ctx context.Context) error {
			_, err := c.Storage.Get(ctx, c.PhotoID)
			return err
		}})
	}

	return components
}
