package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jamiealquiza/envy"
	"github.com/joho/godotenv"
)

// Http timeouts
const (
	ReadTimeout    = 30 * time.Second // Uploads can take a while on mobile connections
	WriteTimeout   = time.Minute
	HandlerTimeout = 45 * time.Second
)

// LoadEnv loads an optional .env file into the environment, and maps environment variables with the given prefix to flags
// Must be called before flag.Parse
func LoadEnv(prefix string, envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("error loading %s: %w", envFile, err)
		}
	}

	envy.Parse(prefix)
	return nil
}

// WaitForInterrupt waits for an interrupt
func WaitForInterrupt(ctx context.Context) error {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-c:
		return fmt.Errorf("received signal %s", sig)
	case <-ctx.Done():
		return errors.New("canceled")
	}
}
