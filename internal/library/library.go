// Package library describes the photos that can be imported without uploading them.
package library

import (
	"context"
	"errors"
)

// Photo contains metadata about a library photo
type Photo struct {
	ID     string `json:"id"`
	Author string `json:"author"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	URL    string `json:"url"`
}

// Provider is an interface for listing and retrieving library photos
type Provider interface {
	Get(ctx context.Context, id string) (*Photo, error)
	List(ctx context.Context, offset, limit int) ([]Photo, error)
}

// Errors
var (
	ErrNotFound = errors.New("Photo does not exist")
)
