package stream

import (
	"math"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/samber/lo"

	"github.com/matt-g-everett/ledflow/curve"
	"github.com/matt-g-everett/ledflow/layer"
)

// Properties a strip layer understands.
const (
	PropColour     = "colour"
	PropBrightness = "brightness"
	PropOpacity    = "opacity"
	PropShift      = "shift"
	PropPhase      = "phase"
)

// StripLayer is a layer occupying a run of pixels on the strip. Without a
// colour value it paints its Trail, or white when it has none.
type StripLayer struct {
	*layer.Layer
	Start  int
	Length int
	Trail  *Trail
}

// Stage composites strip layers, in order, into frames.
type Stage struct {
	layers []*StripLayer
}

// NewStage creates a Stage painting layers bottom to top.
func NewStage(layers ...*StripLayer) *Stage {
	s := new(Stage)
	s.layers = layers
	return s
}

// Layers returns the stage's layers.
func (s *Stage) Layers() []*StripLayer {
	return s.layers
}

// CalculateFrame renders every layer at its current local time. Rendering
// is what lets layers report finished curves, so it must run on the loop.
func (s *Stage) CalculateFrame() *Frame {
	f := NewFrame()
	for _, sl := range s.layers {
		props := sl.Render()
		paint := painter(sl, props)

		start := sl.Start
		if v, ok := props[PropShift].(curve.Scalar); ok {
			start += int(math.Round(float64(v)))
		}

		opacity := 1.0
		if v, ok := props[PropOpacity].(curve.Scalar); ok {
			opacity = lo.Clamp(float64(v), 0, 1)
		}

		target := f
		if opacity < 1 {
			over := *f
			target = &over
		}
		for i := 0; i < sl.Length; i++ {
			target.Set(start+i, paint(i))
		}
		if opacity < 1 {
			f = f.InterpolateFrame(target, opacity)
		}
	}
	return f
}

// painter returns the colour of each pixel of sl, indexed from the layer's
// first pixel.
func painter(sl *StripLayer, props map[string]curve.Value) func(i int) colorful.Color {
	var base func(i int) colorful.Color
	switch v, ok := props[PropColour].(curve.Colour); {
	case ok:
		c := v.Color()
		base = func(int) colorful.Color { return c }
	case sl.Trail != nil:
		phase := 0.0
		if p, ok := props[PropPhase].(curve.Scalar); ok {
			phase = float64(p)
		}
		base = func(i int) colorful.Color { return sl.Trail.ColorAt(i, phase) }
	default:
		white := colorful.Color{R: 1, G: 1, B: 1}
		base = func(int) colorful.Color { return white }
	}

	b, ok := props[PropBrightness].(curve.Scalar)
	if !ok {
		return base
	}
	brightness := lo.Clamp(float64(b), 0, 1)
	return func(i int) colorful.Color {
		return colorful.Color{}.BlendRgb(base(i), brightness)
	}
}
