package mock

import (
	"context"
	"fmt"

	"github.com/DMarby/instafilter/internal/library"
)

// Provider implements a mock library that fails every lookup
type Provider struct{}

// Get returns an error
func (p *Provider) Get(ctx context.Context, id string) (*library.Photo, error) {
	return nil, fmt.Errorf("get error")
}

// List returns an error
func (p *Provider) List(ctx context.Context, offset, limit int) ([]library.Photo, error) {
	return nil, fmt.Errorf("list error")
}
