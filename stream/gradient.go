package stream

import (
	"github.com/lucasb-eyer/go-colorful"

	"github.com/matt-g-everett/ledflow/curve"
)

// GradientTable stores a look-up table of colours interpolated by hue.
type GradientTable []struct {
	Hue float64 `yaml:"hue"`
	Pos float64 `yaml:"pos"`
}

// GetColor gets a colour at the specified point on the look-up table.
func (g GradientTable) GetColor(t, s, l float64) colorful.Color {
	for i := 0; i < len(g)-1; i++ {
		c1 := g[i]
		c2 := g[i+1]
		if c1.Pos <= t && t <= c2.Pos {
			h := (((t - c1.Pos) / (c2.Pos - c1.Pos)) * (c2.Hue - c1.Hue)) + c1.Hue
			return colorful.Hcl(h, s, l)
		}
	}

	// Past the last keypoint.
	return colorful.Hcl(g[len(g)-1].Hue, s, l)
}

// Keyframes samples the table at n evenly spaced points, giving colour
// values for a curve.
func (g GradientTable) Keyframes(n int, s, l float64) []curve.Value {
	if len(g) == 0 || n <= 0 {
		return nil
	}
	if n == 1 {
		return []curve.Value{curve.Colour(g.GetColor(0, s, l))}
	}

	values := make([]curve.Value, n)
	for i := range values {
		t := float64(i) / float64(n-1)
		values[i] = curve.Colour(g.GetColor(t, s, l))
	}
	return values
}
