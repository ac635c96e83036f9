package storage

import (
	"context"
	"errors"
)

// Provider is an interface for retrieving the raw bytes of library photos
type Provider interface {
	Get(ctx context.Context, id string) ([]byte, error)
}

// Extensions are the file extensions photos are looked up with, in order
var Extensions = []string{".jpg", ".jpeg", ".png", ".webp"}

// Errors
var (
	ErrNotFound = errors.New("Photo does not exist")
)
