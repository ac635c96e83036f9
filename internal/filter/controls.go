package filter

import (
	"math"

	"github.com/DMarby/instafilter/internal/engine"
)

// Control is one of the generic controls that can be mapped onto filter inputs
type Control string

// Controls, in display order
const (
	Intensity Control = "intensity"
	Radius    Control = "radius"
	Scale     Control = "scale"
)

// AllControls lists the controls in display order
var AllControls = []Control{Intensity, Radius, Scale}

// Range is the inclusive range of values for a control
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

var (
	ranges = map[Control]Range{
		Intensity: {0, 1},
		Radius:    {0, 200},
		Scale:     {0, 10},
	}

	inputKeys = map[Control]string{
		Intensity: engine.KeyIntensity,
		Radius:    engine.KeyRadius,
		Scale:     engine.KeyScale,
	}
)

// Range returns the allowed range for the control
func (c Control) Range() Range {
	return ranges[c]
}

// InputKey returns the filter input key the control maps to
func (c Control) InputKey() string {
	return inputKeys[c]
}

// Controls holds the values of the generic controls
type Controls struct {
	Intensity float64 `json:"intensity"`
	Radius    float64 `json:"radius"`
	Scale     float64 `json:"scale"`
}

// DefaultControls returns the initial control values
func DefaultControls() Controls {
	return Controls{
		Intensity: 0.5,
		Radius:    3,
		Scale:     5,
	}
}

// Value returns the value of the given control
func (c Controls) Value(control Control) float64 {
	switch control {
	case Intensity:
		return c.Intensity
	case Radius:
		return c.Radius
	case Scale:
		return c.Scale
	}

	return 0
}

// Clamp returns the controls with every value clamped to its range
func (c Controls) Clamp() Controls {
	return Controls{
		Intensity: clamp(c.Intensity, Intensity.Range()),
		Radius:    clamp(c.Radius, Radius.Range()),
		Scale:     clamp(c.Scale, Scale.Range()),
	}
}

// Update is a partial change to the controls, nil fields are left unchanged
type Update struct {
	Intensity *float64 `json:"intensity,omitempty"`
	Radius    *float64 `json:"radius,omitempty"`
	Scale     *float64 `json:"scale,omitempty"`
}

// Empty returns true if the update doesn't change any control
func (u Update) Empty() bool {
	return u.Intensity == nil && u.Radius == nil && u.Scale == nil
}

// Apply returns the controls with the update applied and clamped
func (u Update) Apply(c Controls) Controls {
	if u.Intensity != nil {
		c.Intensity = *u.Intensity
	}

	if u.Radius != nil {
		c.Radius = *u.Radius
	}

	if u.Scale != nil {
		c.Scale = *u.Scale
	}

	return c.Clamp()
}

func clamp(v float64, r Range) float64 {
	if math.IsNaN(v) {
		return r.Min
	}

	return math.Min(math.Max(v, r.Min), r.Max)
}
