package file

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
)

// Store persists counts in a JSON file
type Store struct {
	path string
	mu   sync.Mutex
}

// New returns a new Store writing to path
// The directory must exist, the file is created on the first save
func New(path string) (*Store, error) {
	if _, err := os.Stat(filepath.Dir(path)); err != nil {
		return nil, err
	}

	return &Store{
		path: path,
	}, nil
}

// Load returns the value stored for key, or 0 if there is none
func (s *Store) Load(ctx context.Context, key string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.read()
	if err != nil {
		return 0, err
	}

	return values[key], nil
}

// Save stores value for key
func (s *Store) Save(ctx context.Context, key string, value int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.read()
	if err != nil {
		return err
	}

	values[key] = value

	data, err := json.Marshal(values)
	if err != nil {
		return err
	}

	// Write to a temporary file and rename it, so the file is never partially written
	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}

	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), s.path)
}

func (s *Store) read() (map[string]int, error) {
	values := make(map[string]int)

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return values, nil
	}

	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(data, &values); err != nil {
		return nil, err
	}

	return values, nil
}
