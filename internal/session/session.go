// Package session holds the state of a single filtering screen.
//
// A session owns the imported source image, the control values, the selected filter and the last
// rendered output. Every change that affects the output re-runs the pipeline from the source; when a
// run fails the previous output stays in place.
package session

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"sync/atomic"
	"time"

	"github.com/DMarby/instafilter/internal/filter"
	"github.com/DMarby/instafilter/internal/logger"
	"github.com/DMarby/instafilter/internal/pipeline"
)

// Errors
var (
	ErrNoPicture     = errors.New("no picture")
	ErrUnknownFilter = errors.New("unknown filter")
	ErrNotFound      = errors.New("session does not exist")
	ErrInvalidImage  = errors.New("invalid image")
)

const recordTimeout = 5 * time.Second

// Processor renders pipeline tasks
type Processor interface {
	Process(ctx context.Context, task *pipeline.Task) (*pipeline.Output, error)
}

// Recorder records filter selections
type Recorder interface {
	Record(ctx context.Context) (count int, reviewRequested bool, err error)
}

// LoaderFunc loads the raw bytes of an image to import
type LoaderFunc func(ctx context.Context) ([]byte, error)

// Config holds the dependencies shared by all sessions
type Config struct {
	Log          *logger.Logger
	Registry     *filter.Registry
	Processor    Processor
	Counter      Recorder
	Format       pipeline.Format
	MaxImageSize int
}

// Source is an imported image
type Source struct {
	Image  image.Image
	Digest string
}

// State is a snapshot of a session
type State struct {
	ID        string           `json:"id"`
	Filter    string           `json:"filter"`
	InputKeys []string         `json:"input_keys"`
	Visible   []filter.Control `json:"visible_controls"`
	Controls  filter.Controls  `json:"controls"`
	HasSource bool             `json:"has_source"`
	HasOutput bool             `json:"has_output"`
	OutputKey string           `json:"output_key,omitempty"`
	Renders   int              `json:"renders"`
}

// Session is the state of a single filtering screen
type Session struct {
	id  string
	cfg *Config
	log *logger.Logger

	mu       sync.Mutex
	source   *Source
	output   *pipeline.Output
	controls filter.Controls
	entry    *filter.Entry
	renders  int
	lastUsed atomic.Int64 // unix nanoseconds, read without s.mu by the store
	events   *broadcaster
}

func newSession(id string, cfg *Config) *Session {
	entry, ok := cfg.Registry.Lookup(filter.DefaultName)
	if !ok {
		entry = cfg.Registry.Entries()[0]
	}

	s := &Session{
		id:       id,
		cfg:      cfg,
		log:      cfg.Log.With("session-id", id),
		controls: filter.DefaultControls(),
		entry:    entry,
		events:   newBroadcaster(),
	}
	s.touch()

	return s
}

// ID returns the session id
func (s *Session) ID() string {
	return s.id
}

// Import loads and decodes an image in the background, replacing the source and re-rendering the output
// The returned channel receives the result once the import completes
// A failed import leaves the session untouched. Concurrent imports are not canceled: the last one to complete wins
func (s *Session) Import(ctx context.Context, load LoaderFunc) <-chan error {
	result := make(chan error, 1)

	go func() {
		data, err := load(ctx)
		if err != nil {
			result <- err
			return
		}

		img, err := pipeline.Decode(data, s.cfg.MaxImageSize)
		if err != nil {
			result <- fmt.Errorf("%w: %s", ErrInvalidImage, err)
			return
		}

		s.mu.Lock()
		defer s.mu.Unlock()

		s.touch()
		s.source = &Source{
			Image:  img,
			Digest: pipeline.Digest(data),
		}
		s.publish(EventImage)
		s.process(ctx)

		result <- nil
	}()

	return result
}

// SetControls updates any of the control values and re-renders the output
func (s *Session) SetControls(ctx context.Context, update filter.Update) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.touch()
	if s.output == nil {
		return s.state(), ErrNoPicture
	}

	s.controls = update.Apply(s.controls)
	s.publish(EventControls)
	s.process(ctx)

	return s.state(), nil
}

// SelectFilter switches to the named filter and re-renders the output with the unchanged control values
// The selection is recorded on the counter, and reviewRequested reports whether that triggered a review request
func (s *Session) SelectFilter(ctx context.Context, name string) (state State, reviewRequested bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.touch()
	if s.output == nil {
		return s.state(), false, ErrNoPicture
	}

	entry, ok := s.cfg.Registry.Lookup(name)
	if !ok {
		return s.state(), false, fmt.Errorf("%w: %q", ErrUnknownFilter, name)
	}

	s.entry = entry
	s.publish(EventFilter)
	s.process(ctx)

	if s.cfg.Counter != nil {
		// The selection is counted even when the request has timed out
		recordCtx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		defer cancel()

		count, requested, err := s.cfg.Counter.Record(recordCtx)
		if err != nil {
			s.log.Warnw("error recording filter selection", "error", err)
		}

		s.log.Debugw("filter selected", "filter", entry.Name, "count", count)

		if requested {
			reviewRequested = true
			s.publish(EventReview)
		}
	}

	return s.state(), reviewRequested, nil
}

// State returns a snapshot of the session
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state()
}

// Output returns the current output, or false if there is no picture
func (s *Session) Output() (*pipeline.Output, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.touch()
	return s.output, s.output != nil
}

// OutputAs returns the current output encoded in the given format
// The session's own output is left as it is
func (s *Session) OutputAs(ctx context.Context, format pipeline.Format) (*pipeline.Output, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.touch()
	if s.output == nil {
		return nil, ErrNoPicture
	}

	if format == s.cfg.Format {
		return s.output, nil
	}

	return s.cfg.Processor.Process(ctx, s.task(format))
}

// Subscribe returns a channel receiving the session events, and a function to stop receiving them
func (s *Session) Subscribe() (<-chan Event, func()) {
	return s.events.subscribe()
}

// process renders the output from the source, keeping the previous output on failure
// The caller must hold s.mu
func (s *Session) process(ctx context.Context) {
	if s.source == nil {
		return
	}

	output, err := s.cfg.Processor.Process(ctx, s.task(s.cfg.Format))
	if err != nil {
		s.log.Debugw("keeping previous output", "filter", s.entry.Name, "error", err)
		return
	}

	s.output = output
	s.renders++
	s.publish(EventOutput)
}

// The caller must hold s.mu
func (s *Session) task(format pipeline.Format) *pipeline.Task {
	return &pipeline.Task{
		Source:       s.source.Image,
		SourceDigest: s.source.Digest,
		Filter:       s.entry.New,
		Capabilities: s.entry.Capabilities(),
		Controls:     s.controls,
		Format:       format,
	}
}

func (s *Session) state() State {
	caps := s.entry.Capabilities()
	state := State{
		ID:        s.id,
		Filter:    s.entry.Name,
		InputKeys: caps.Keys(),
		Visible:   caps.Visible(),
		Controls:  s.controls,
		HasSource: s.source != nil,
		HasOutput: s.output != nil,
		Renders:   s.renders,
	}

	if s.output != nil {
		state.OutputKey = s.output.Key
	}

	return state
}

func (s *Session) publish(eventType EventType) {
	s.events.publish(Event{
		Type:  eventType,
		State: s.state(),
	})
}

func (s *Session) touch() {
	s.lastUsed.Store(time.Now().UnixNano())
}

func (s *Session) idleSince() time.Time {
	return time.Unix(0, s.lastUsed.Load())
}

func (s *Session) close() {
	s.events.close()
}
