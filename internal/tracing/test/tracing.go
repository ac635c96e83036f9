package test

import (
	"github.com/DMarby/instafilter/internal/logger"
	"github.com/DMarby/instafilter/internal/tracing"
)

// Tracer returns a tracer for use in tests
func Tracer(log *logger.Logger) *tracing.Tracer {
	return tracing.Noop(log, "test")
}
