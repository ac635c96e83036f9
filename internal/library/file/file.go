package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/DMarby/instafilter/internal/library"
)

// Provider implements a library backed by a JSON manifest
type Provider struct {
	photos []library.Photo
	byID   map[string]int
}

// New returns a new Provider instance reading the manifest at path
func New(path string) (*Provider, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var photos []library.Photo
	if err := json.Unmarshal(data, &photos); err != nil {
		return nil, fmt.Errorf("error parsing library manifest: %w", err)
	}

	byID := make(map[string]int, len(photos))
	for i, photo := range photos {
		if _, exists := byID[photo.ID]; exists {
			return nil, fmt.Errorf("duplicate photo id %q in library manifest", photo.ID)
		}

		byID[photo.ID] = i
	}

	return &Provider{
		photos: photos,
		byID:   byID,
	}, nil
}

// Get returns the metadata for a photo id
func (p *Provider) Get(ctx context.Context, id string) (*library.Photo, error) {
	i, ok := p.byID[id]
	if !ok {
		return nil, library.ErrNotFound
	}

	photo := p.photos[i]
	return &photo, nil
}

// List returns the photos with an offset/limit
func (p *Provider) List(ctx context.Context, offset, limit int) ([]library.Photo, error) {
	photos := len(p.photos)
	if offset > photos {
		offset = photos
	}

	end := offset + limit
	if end > photos {
		end = photos
	}

	return p.photos[offset:end], nil
}
