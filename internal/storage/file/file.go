package file

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/DMarby/instafilter/internal/storage"
)

// Provider implements a file-based photo storage
type Provider struct {
	path string
}

// New returns a new Provider instance
func New(path string) (*Provider, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}

	return &Provider{
		path,
	}, nil
}

// Get returns the photo data for a photo id, trying each of the known extensions
func (p *Provider) Get(ctx context.Context, id string) ([]byte, error) {
	// Ids are file names, never paths
	if id == "" || strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return nil, storage.ErrNotFound
	}

	for _, extension := range storage.Extensions {
		data, err := os.ReadFile(filepath.Join(p.path, id+extension))
		if err == nil {
			return data, nil
		}

		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	return nil, storage.ErrNotFound
}
