package filter

import (
	"strings"
	"sync"

	"github.com/DMarby/instafilter/internal/engine"
)

// DefaultName is the name of the filter selected before the user picks one
const DefaultName = "Sepia Tone"

// Entry is a named filter constructor in the registry
type Entry struct {
	Name string
	New  engine.Constructor

	once sync.Once
	caps Capabilities
}

// Capabilities returns the input keys the entry's filters recognize
// They are read from the engine once, on first use
func (e *Entry) Capabilities() Capabilities {
	e.once.Do(func() {
		e.caps = CapabilitiesOf(e.New())
	})

	return e.caps
}

// Registry is a fixed, ordered list of filters
type Registry struct {
	entries []*Entry
	byName  map[string]*Entry
}

// NewRegistry creates a registry from the given entries, in order
func NewRegistry(entries ...*Entry) *Registry {
	r := &Registry{
		entries: entries,
		byName:  make(map[string]*Entry, len(entries)),
	}

	for _, entry := range entries {
		r.byName[strings.ToLower(entry.Name)] = entry
	}

	return r
}

// Default returns the registry of the built in filters
func Default() *Registry {
	return NewRegistry(
		&Entry{Name: "Crystallize", New: engine.Crystallize},
		&Entry{Name: "Edges", New: engine.Edges},
		&Entry{Name: "Gaussian Blur", New: engine.GaussianBlur},
		&Entry{Name: "Pixellate", New: engine.Pixellate},
		&Entry{Name: "Sepia Tone", New: engine.SepiaTone},
		&Entry{Name: "Unsharp Mask", New: engine.UnsharpMask},
		&Entry{Name: "Vignette", New: engine.Vignette},
		&Entry{Name: "Bokeh Blur", New: engine.BokehBlur},
		&Entry{Name: "Monochrome", New: engine.ColorMonochrome},
		&Entry{Name: "Bloom", New: engine.Bloom},
		&Entry{Name: "Chrome", New: engine.PhotoEffectChrome},
	)
}

// Entries returns the entries in order
func (r *Registry) Entries() []*Entry {
	entries := make([]*Entry, len(r.entries))
	copy(entries, r.entries)
	return entries
}

// Lookup finds an entry by name, ignoring case
func (r *Registry) Lookup(name string) (*Entry, bool) {
	entry, ok := r.byName[strings.ToLower(strings.TrimSpace(name))]
	return entry, ok
}
