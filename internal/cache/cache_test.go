package cache_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DMarby/instafilter/internal/cache"
	"github.com/DMarby/instafilter/internal/cache/memory"
	"github.com/DMarby/instafilter/internal/cache/mock"
	"github.com/DMarby/instafilter/internal/logger"
	"github.com/DMarby/instafilter/internal/tracing/test"
	"go.uber.org/zap"
)

var mockLoaderFunc cache.LoaderFunc = func(ctx context.Context, key string) (data []byte, err error) {
	if key == "notfounderr" {
		return nil, fmt.Errorf("notfounderr")
	}

	return []byte("notfound"), nil
}

func TestAuto(t *testing.T) {
	log := logger.New(zap.ErrorLevel)
	defer log.Sync()

	auto := &cache.Auto{
		Tracer:   test.Tracer(log),
		Provider: &mock.Provider{},
	}

	tests := []struct {
		Key           string
		ExpectedData  string
		ExpectedError error
	}{
		{"foo", "foo", nil},
		{"notfound", "notfound", nil},
		{"notfounderr", "", fmt.Errorf("notfounderr")},
		{"seterror", "", fmt.Errorf("seterror")},
		{"error", "", fmt.Errorf("error")},
	}

	for _, test := range tests {
		data, err := auto.GetOrLoad(context.Background(), test.Key, mockLoaderFunc)
		if err != nil {
			if test.ExpectedError == nil {
				t.Errorf("%s: %s", test.Key, err)
				continue
			}

			if test.ExpectedError.Error() != err.Error() {
				t.Errorf("%s: wrong error: %s", test.Key, err)
			}

			continue
		}

		if test.ExpectedError != nil {
			t.Errorf("%s: expected error %s", test.Key, test.ExpectedError)
			continue
		}

		if string(data) != test.ExpectedData {
			t.Errorf("%s: wrong data %s", test.Key, data)
		}
	}
}

func TestGetOrLoad(t *testing.T) {
	log := logger.New(zap.ErrorLevel)
	defer log.Sync()

	auto := &cache.Auto{
		Tracer:   test.Tracer(log),
		Provider: memory.New(0),
	}

	var loads int64
	loader := func(ctx context.Context, key string) ([]byte, error) {
		atomic.AddInt64(&loads, 1)
		time.Sleep(10 * time.Millisecond)
		return []byte("rendered " + key), nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			data, err := auto.GetOrLoad(context.Background(), "key", loader)
			if err != nil || string(data) != "rendered key" {
				t.Errorf("wrong result %s %v", data, err)
			}
		}()
	}
	wg.Wait()

	// Cached now
	auto.GetOrLoad(context.Background(), "key", loader)

	if n := atomic.LoadInt64(&loads); n != 1 {
		t.Errorf("loaded %d times", n)
	}
}
