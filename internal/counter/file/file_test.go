package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/DMarby/instafilter/internal/counter/file"
)

func TestFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "counter.json")

	store, err := file.New(path)
	if err != nil {
		t.Fatal(err)
	}

	t.Run("load missing file", func(t *testing.T) {
		value, err := store.Load(ctx, "filterCount")
		if err != nil {
			t.Fatal(err)
		}

		if value != 0 {
			t.Errorf("wrong value %d", value)
		}
	})

	t.Run("save and load", func(t *testing.T) {
		if err := store.Save(ctx, "filterCount", 7); err != nil {
			t.Fatal(err)
		}

		if err := store.Save(ctx, "other", 3); err != nil {
			t.Fatal(err)
		}

		value, err := store.Load(ctx, "filterCount")
		if err != nil {
			t.Fatal(err)
		}

		if value != 7 {
			t.Errorf("wrong value %d", value)
		}
	})

	t.Run("survives reopening", func(t *testing.T) {
		reopened, err := file.New(path)
		if err != nil {
			t.Fatal(err)
		}

		value, err := reopened.Load(ctx, "filterCount")
		if err != nil {
			t.Fatal(err)
		}

		if value != 7 {
			t.Errorf("wrong value %d", value)
		}
	})

	t.Run("leaves no temporary files", func(t *testing.T) {
		entries, err := os.ReadDir(filepath.Dir(path))
		if err != nil {
			t.Fatal(err)
		}

		if len(entries) != 1 {
			t.Errorf("wrong amount of files %d", len(entries))
		}
	})

	t.Run("corrupt file", func(t *testing.T) {
		if err := os.WriteFile(path, []byte("{"), 0644); err != nil {
			t.Fatal(err)
		}

		if _, err := store.Load(ctx, "filterCount"); err == nil {
			t.Error("no error")
		}
	})
}

func TestNew(t *testing.T) {
	if _, err := file.New("/does/not/exist/counter.json"); err == nil {
		t.Fatal("no error")
	}
}
