package file_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/DMarby/instafilter/internal/storage"
	"github.com/DMarby/instafilter/internal/storage/file"
)

func TestFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "1.jpg"), []byte("jpeg"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(filepath.Join(dir, "2.png"), []byte("png"), 0644); err != nil {
		t.Fatal(err)
	}

	provider, err := file.New(dir)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		Name     string
		ID       string
		Expected []byte
		Error    error
	}{
		{"jpeg photo", "1", []byte("jpeg"), nil},
		{"png photo", "2", []byte("png"), nil},
		{"nonexistant photo", "nonexistant", nil, storage.ErrNotFound},
		{"path traversal", "../1", nil, storage.ErrNotFound},
		{"empty id", "", nil, storage.ErrNotFound},
	}

	for _, test := range tests {
		data, err := provider.Get(context.Background(), test.ID)
		if !errors.Is(err, test.Error) {
			t.Errorf("%s: wrong error %v", test.Name, err)
			continue
		}

		if !reflect.DeepEqual(data, test.Expected) {
			t.Errorf("%s: wrong data %s", test.Name, data)
		}
	}

	t.Run("Returns error on a nonexistant path", func(t *testing.T) {
		_, err := file.New("")
		if err == nil {
			t.FailNow()
		}
	})
}
