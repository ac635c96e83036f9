// Package engine implements the image filters.
//
// Filters are opaque to callers: each one declares the input keys it recognizes, accepts values for them
// through SetValue, and renders its output on demand. Callers are expected to inspect InputKeys rather
// than assume which inputs a filter accepts.
package engine

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"sort"
)

// Input keys
const (
	KeyImage      = "inputImage"
	KeyIntensity  = "inputIntensity"
	KeyRadius     = "inputRadius"
	KeyScale      = "inputScale"
	KeyRingAmount = "inputRingAmount"
	KeyRingSize   = "inputRingSize"
	KeySoftness   = "inputSoftness"
	KeyColor      = "inputColor"
)

// Errors
var (
	ErrNoOutput     = errors.New("filter produced no output")
	ErrUnknownKey   = errors.New("unknown input key")
	ErrInvalidValue = errors.New("invalid input value")
)

// Filter is a configurable image transform
type Filter interface {
	// Name returns the engine name of the filter
	Name() string
	// InputKeys returns the sorted input keys the filter recognizes, always including KeyImage
	InputKeys() []string
	// SetValue sets the value of an input key
	SetValue(key string, value interface{}) error
	// Value returns the current value of an input key
	Value(key string) (interface{}, bool)
	// Output renders the filter with its current inputs
	Output() (image.Image, error)
}

// Constructor creates a new filter with default inputs
type Constructor func() Filter

type inputs map[string]interface{}

func (in inputs) float(key string) float64 {
	v, _ := in[key].(float64)
	return v
}

func (in inputs) color(key string) color.Color {
	v, _ := in[key].(color.Color)
	return v
}

type renderFunc func(src image.Image, in inputs) image.Image

type filter struct {
	name   string
	keys   []string
	values inputs
	render renderFunc
}

func newFilter(name string, defaults inputs, render renderFunc) *filter {
	keys := []string{KeyImage}
	values := make(inputs, len(defaults)+1)
	for key, value := range defaults {
		keys = append(keys, key)
		values[key] = value
	}
	sort.Strings(keys)

	return &filter{
		name:   name,
		keys:   keys,
		values: values,
		render: render,
	}
}

func (f *filter) Name() string {
	return f.name
}

func (f *filter) InputKeys() []string {
	keys := make([]string, len(f.keys))
	copy(keys, f.keys)
	return keys
}

func (f *filter) recognizes(key string) bool {
	i := sort.SearchStrings(f.keys, key)
	return i < len(f.keys) && f.keys[i] == key
}

func (f *filter) SetValue(key string, value interface{}) error {
	if !f.recognizes(key) {
		return fmt.Errorf("%s: %w %q", f.name, ErrUnknownKey, key)
	}

	switch key {
	case KeyImage:
		if value == nil {
			delete(f.values, key)
			return nil
		}

		img, ok := value.(image.Image)
		if !ok {
			return fmt.Errorf("%s: %w for %s: %T", f.name, ErrInvalidValue, key, value)
		}

		f.values[key] = img
	case KeyColor:
		c, ok := value.(color.Color)
		if !ok {
			return fmt.Errorf("%s: %w for %s: %T", f.name, ErrInvalidValue, key, value)
		}

		f.values[key] = c
	default:
		v, ok := toFloat(value)
		if !ok {
			return fmt.Errorf("%s: %w for %s: %v", f.name, ErrInvalidValue, key, value)
		}

		f.values[key] = v
	}

	return nil
}

func (f *filter) Value(key string) (interface{}, bool) {
	v, ok := f.values[key]
	return v, ok
}

func (f *filter) Output() (image.Image, error) {
	src, _ := f.values[KeyImage].(image.Image)
	if src == nil || src.Bounds().Empty() {
		return nil, ErrNoOutput
	}

	out := f.render(src, f.values)
	if out == nil || out.Bounds().Empty() {
		return nil, ErrNoOutput
	}

	return out, nil
}

func toFloat(value interface{}) (float64, bool) {
	var v float64
	switch n := value.(type) {
	case float64:
		v = n
	case float32:
		v = float64(n)
	case int:
		v = float64(n)
	default:
		return 0, false
	}

	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}

	return v, true
}

// unit clamps v to [0, 1]
func unit(v float64) float64 {
	return math.Min(math.Max(v, 0), 1)
}

func clampByte(v float64) uint8 {
	return uint8(math.Min(math.Max(v, 0), 255) + 0.5)
}
