// Package pipeline turns a source image and a configured filter into displayable output bytes.
package pipeline

import (
	"bytes"
	"context"
	"errors"
	"expvar"
	"fmt"
	"image"
	"time"

	"github.com/DMarby/instafilter/internal/cache"
	"github.com/DMarby/instafilter/internal/engine"
	"github.com/DMarby/instafilter/internal/filter"
	"github.com/DMarby/instafilter/internal/logger"
	"github.com/DMarby/instafilter/internal/queue"
	"github.com/DMarby/instafilter/internal/tracing"
	"github.com/disintegration/imaging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel/attribute"
)

// ErrNoSource is returned when processing a task without a source image
var ErrNoSource = errors.New("no source image")

var (
	rendersInFlight = expvar.NewInt("gauge_pipeline_renders_in_flight")
	renderDuration  = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "instafilter",
		Name:      "render_duration_seconds",
		Help:      "Time spent rendering and encoding filter output.",
		Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 5, 10},
	}, []string{"filter"})
)

// Task is a single run of the pipeline
type Task struct {
	Source       image.Image
	SourceDigest string
	Filter       engine.Constructor // Builds a fresh filter for every run
	Capabilities filter.Capabilities
	Controls     filter.Controls
	Format       Format
}

// Output is an encoded output image
type Output struct {
	Data        []byte
	ContentType string
	Format      Format
	Key         string
	Applied     []filter.Control
}

// renderJob is a configured filter waiting on the queue
// A worker may still be rendering it after the caller has given up, so it owns its filter
type renderJob struct {
	filter engine.Filter
	format Format
}

// Processor runs tasks on a worker queue, caching their output
type Processor struct {
	log     *logger.Logger
	tracer  *tracing.Tracer
	queue   *queue.Queue[*renderJob, []byte]
	cache   *cache.Auto
	quality int
}

// New creates a Processor with the given amount of workers, caching output in provider
// The workers stop when ctx is canceled
func New(ctx context.Context, log *logger.Logger, tracer *tracing.Tracer, workers int, provider cache.Provider, quality int) *Processor {
	p := &Processor{
		log:     log,
		tracer:  tracer,
		quality: quality,
		cache: &cache.Auto{
			Tracer:   tracer,
			Provider: provider,
		},
	}

	p.queue = queue.New(ctx, workers, p.render)
	go p.queue.Run()

	return p
}

// Process binds the source image to the filter, applies the controls the filter recognizes, and renders the output
// Any error means no output was produced
func (p *Processor) Process(ctx context.Context, task *Task) (*Output, error) {
	ctx, span := p.tracer.Start(ctx, "pipeline.Process")
	defer span.End()

	if task.Source == nil {
		return nil, ErrNoSource
	}

	f := task.Filter()
	if err := f.SetValue(engine.KeyImage, task.Source); err != nil {
		return nil, fmt.Errorf("error binding source: %w", err)
	}

	applied, err := filter.Apply(f, task.Capabilities, task.Controls)
	if err != nil {
		return nil, fmt.Errorf("error applying controls: %w", err)
	}

	key := RenderKey(task.SourceDigest, f.Name(), applied, task.Controls, task.Format)
	span.SetAttributes(
		attribute.String("filter", f.Name()),
		attribute.String("render-key", key),
	)

	data, err := p.cache.GetOrLoad(ctx, key, func(ctx context.Context, key string) ([]byte, error) {
		return p.queue.Process(ctx, &renderJob{filter: f, format: task.Format})
	})
	if err != nil {
		return nil, err
	}

	return &Output{
		Data:        data,
		ContentType: task.Format.ContentType(),
		Format:      task.Format,
		Key:         key,
		Applied:     applied,
	}, nil
}

// Cached returns a previously rendered output by its render key
func (p *Processor) Cached(ctx context.Context, key string) ([]byte, error) {
	return p.cache.Provider.Get(ctx, key)
}

func (p *Processor) render(ctx context.Context, r *renderJob) ([]byte, error) {
	_, span := p.tracer.Start(ctx, "pipeline.render")
	defer span.End()

	rendersInFlight.Add(1)
	defer rendersInFlight.Add(-1)

	start := time.Now()
	defer func() {
		renderDuration.WithLabelValues(r.filter.Name()).Observe(time.Since(start).Seconds())
	}()

	img, err := r.filter.Output()
	if err != nil {
		return nil, err
	}

	return Encode(img, r.format, p.quality)
}

// Encode encodes an image in the given format
func Encode(img image.Image, format Format, quality int) ([]byte, error) {
	var opts []imaging.EncodeOption
	if quality > 0 {
		opts = append(opts, imaging.JPEGQuality(quality))
	}

	buf := new(bytes.Buffer)
	if err := imaging.Encode(buf, img, format.imaging(), opts...); err != nil {
		return nil, fmt.Errorf("error encoding output: %w", err)
	}

	return buf.Bytes(), nil
}
