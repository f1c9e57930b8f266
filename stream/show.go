package stream

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/matt-g-everett/ledflow/clock"
	"github.com/matt-g-everett/ledflow/curve"
	"github.com/matt-g-everett/ledflow/layer"
	"github.com/matt-g-everett/ledflow/timeline"
	"github.com/matt-g-everett/ledflow/track"
)

// Show is a configured stage plus everything needed to build its timeline.
type Show struct {
	Stage    *Stage
	Bindings []timeline.Binding
	Cues     []timeline.Cue
	Options  timeline.Options
}

// NewShow builds the layers and curves described by cfg. Layers read time
// from c. All curves take the timeline's duration, so the tracks stay the
// same length as the timeline that drives them.
func NewShow(cfg TimelineConfig, c clock.Clock) (*Show, error) {
	if cfg.Duration <= 0 && hasCurves(cfg.Layers) {
		return nil, fmt.Errorf("timeline duration must be positive, got %v", cfg.Duration)
	}

	s := new(Show)
	s.Options = timeline.Options{
		Duration:     cfg.Duration,
		Autoreverses: cfg.Autoreverses,
		RepeatCount:  cfg.RepeatCount,
	}

	var layers []*StripLayer
	for i, lc := range cfg.Layers {
		name := lc.Name
		if name == "" {
			name = fmt.Sprintf("layer%d", i)
		}
		sl := &StripLayer{Layer: layer.New(name, c), Start: lc.Start, Length: lc.Length}
		if t := lc.Trail; t != nil {
			sl.Trail = &Trail{Table: t.Table, Length: t.Length, Saturation: t.Saturation, Luminance: t.Luminance}
		}
		layers = append(layers, sl)

		curves := make([]*curve.Curve, 0, len(lc.Curves))
		for _, cc := range lc.Curves {
			built, err := buildCurve(cc, cfg.Duration)
			if err != nil {
				return nil, fmt.Errorf("layer %s: %w", name, err)
			}
			curves = append(curves, built)
		}
		s.Bindings = append(s.Bindings, timeline.Binding{Element: sl.Layer, Curves: curves})
	}
	s.Stage = NewStage(layers...)

	for _, cue := range cfg.Cues {
		s.Cues = append(s.Cues, timeline.Cue{Sound: cue.Sound, Delay: cue.Delay})
	}
	return s, nil
}

// Timeline groups the show's layers into a timeline on sched.
func (s *Show) Timeline(sched track.Scheduler, player timeline.SoundPlayer) *timeline.Timeline {
	return timeline.Build(sched, player, s.Bindings, s.Cues, s.Options)
}

func buildCurve(cc CurveConfig, duration float64) (*curve.Curve, error) {
	var values []curve.Value
	if cc.Gradient != nil {
		g := cc.Gradient
		values = g.Table.Keyframes(g.Steps, g.Saturation, g.Luminance)
	}
	for _, raw := range cc.Values {
		v, err := ParseValue(raw)
		if err != nil {
			return nil, fmt.Errorf("curve %s: %w", cc.Path, err)
		}
		values = append(values, v)
	}

	if len(cc.KeyTimes) > 0 && len(cc.KeyTimes) != len(values) {
		return nil, fmt.Errorf("curve %s: %d key times for %d values", cc.Path, len(cc.KeyTimes), len(values))
	}

	timing, err := curve.TimingByName(cc.Timing)
	if err != nil {
		return nil, fmt.Errorf("curve %s: %w", cc.Path, err)
	}

	c := curve.New(cc.Path, duration, values...)
	c.KeyTimes = cc.KeyTimes
	c.Timing = timing
	return c, nil
}

// ParseValue converts a YAML scalar into a curve value: numbers become
// Scalars and "#rrggbb" strings become Colours.
func ParseValue(raw interface{}) (curve.Value, error) {
	switch v := raw.(type) {
	case int:
		return curve.Scalar(v), nil
	case float64:
		return curve.Scalar(v), nil
	case string:
		if strings.HasPrefix(v, "#") {
			return curve.Hex(v)
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("value %q is neither a number nor a colour", v)
		}
		return curve.Scalar(f), nil
	}
	return nil, fmt.Errorf("unsupported value %v (%T)", raw, raw)
}
