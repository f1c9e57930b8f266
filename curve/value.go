package curve

import (
	"fmt"

	"github.com/lucasb-eyer/go-colorful"
)

// A Value is a keyframe sample that knows how to blend towards another
// sample of the same kind.
type Value interface {
	// Blend returns the value a fraction t of the way from the receiver to
	// to. Blending into a different kind of value holds the receiver.
	Blend(to Value, t float64) Value
}

// Scalar is a plain numeric property value, blended linearly.
type Scalar float64

// Blend interpolates linearly.
func (s Scalar) Blend(to Value, t float64) Value {
	other, ok := to.(Scalar)
	if !ok {
		return s
	}
	return s + Scalar(t)*(other-s)
}

// Colour is an LED colour value, blended in HCL space like frame transitions.
type Colour colorful.Color

// Hex parses a "#rrggbb" string into a Colour.
func Hex(s string) (Colour, error) {
	c, err := colorful.Hex(s)
	if err != nil {
		return Colour{}, fmt.Errorf("parse colour %q: %w", s, err)
	}
	return Colour(c), nil
}

// Blend interpolates in HCL space.
func (c Colour) Blend(to Value, t float64) Value {
	other, ok := to.(Colour)
	if !ok {
		return c
	}
	return Colour(colorful.Color(c).BlendHcl(colorful.Color(other), t))
}

// Color returns the underlying colorful.Color.
func (c Colour) Color() colorful.Color {
	return colorful.Color(c)
}
