package mock

import (
	"context"
	"fmt"

	"github.com/DMarby/instafilter/internal/storage"
)

// Provider implements a mock photo storage serving a fixed set of photos
// The id "error" fails, and unknown ids are not found
type Provider struct {
	Photos map[string][]byte
}

// Get returns the photo data for a photo id
func (p *Provider) Get(ctx context.Context, id string) ([]byte, error) {
	if id == "error" {
		return nil, fmt.Errorf("storage error")
	}

	data, ok := p.Photos[id]
	if !ok {
		return nil, storage.ErrNotFound
	}

	return data, nil
}
