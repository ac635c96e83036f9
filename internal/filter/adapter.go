package filter

import (
	"sort"

	"github.com/DMarby/instafilter/internal/engine"
)

// Capabilities is the set of input keys a filter recognizes
type Capabilities map[string]struct{}

// CapabilitiesOf reads the input keys declared by a filter
func CapabilitiesOf(f engine.Filter) Capabilities {
	keys := f.InputKeys()
	caps := make(Capabilities, len(keys))
	for _, key := range keys {
		caps[key] = struct{}{}
	}

	return caps
}

// Has returns true if the filter recognizes the key
func (c Capabilities) Has(key string) bool {
	_, ok := c[key]
	return ok
}

// Keys returns the recognized keys, sorted
func (c Capabilities) Keys() []string {
	keys := make([]string, 0, len(c))
	for key := range c {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	return keys
}

// Visible returns the controls that apply to the filter, in display order
func (c Capabilities) Visible() []Control {
	visible := []Control{}
	for _, control := range AllControls {
		if c.Has(control.InputKey()) {
			visible = append(visible, control)
		}
	}

	return visible
}

// Apply sets each control the filter recognizes as the matching filter input, leaving other inputs untouched
// It returns the controls that were applied, in display order
func Apply(f engine.Filter, caps Capabilities, controls Controls) ([]Control, error) {
	applied := []Control{}
	for _, control := range caps.Visible() {
		if err := f.SetValue(control.InputKey(), controls.Value(control)); err != nil {
			return applied, err
		}

		applied = append(applied, control)
	}

	return applied, nil
}
