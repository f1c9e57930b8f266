package stream

import (
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// A Trail paints a gradient that repeats every Length pixels along a layer.
// The layer's phase property scrolls it, so a phase curve cycles the
// gradient along the strip.
type Trail struct {
	Table      GradientTable
	Length     int
	Saturation float64
	Luminance  float64
}

// ColorAt returns the colour of pixel i of the layer when scrolled by phase
// pixels.
func (t *Trail) ColorAt(i int, phase float64) colorful.Color {
	n := float64(t.Length)
	pos := math.Mod(math.Mod(float64(i)-phase, n)+n, n) / n
	return t.Table.GetColor(pos, t.Saturation, t.Luminance)
}
