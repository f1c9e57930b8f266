// Package curve describes keyframe curves: an ordered run of property values
// over an authored duration, with optional easing, repetition and reversal.
package curve

import (
	"math"

	"github.com/samber/lo"
)

// RepeatForever is the repeat count that never finishes.
var RepeatForever = math.Inf(1)

// A StopObserver is told when a curve attached to an element stops. finished
// is false when the curve was removed before completing.
type StopObserver interface {
	CurveDidStop(c *Curve, finished bool)
}

// Curve animates one property path of an element.
//
// KeyTimes, when present, holds one normalised time in [0, 1] per value in
// ascending order; when absent the values are spaced evenly. A Curve is
// treated as immutable once handed to a track.
type Curve struct {
	Path     string
	Values   []Value
	KeyTimes []float64
	Duration float64
	Timing   Timing

	Autoreverses bool
	RepeatCount  float64
}

// New creates a linear, single-pass curve.
func New(path string, duration float64, values ...Value) *Curve {
	return &Curve{
		Path:     path,
		Values:   values,
		Duration: duration,
		Timing:   Linear,
	}
}

// WithRepeat returns a copy of c with the repeat behaviour replaced.
func (c *Curve) WithRepeat(autoreverses bool, repeatCount float64) *Curve {
	out := *c
	out.Autoreverses = autoreverses
	out.RepeatCount = repeatCount
	return &out
}

// ActiveDuration is the total time the curve runs including repeats. A
// repeat count of zero means a single pass.
func (c *Curve) ActiveDuration() float64 {
	return RepeatDuration(c.Duration, c.RepeatCount)
}

// RepeatDuration is duration × repeatCount, where a repeat count of zero
// counts as one pass.
func RepeatDuration(duration, repeatCount float64) float64 {
	if repeatCount == 0 || duration == 0 {
		return duration
	}
	return duration * repeatCount
}

// First returns the first authored value, or nil for an empty curve.
func (c *Curve) First() Value {
	if len(c.Values) == 0 {
		return nil
	}
	return c.Values[0]
}

// Sample returns the value at local time t. Times outside the active
// duration hold the nearest end.
func (c *Curve) Sample(t float64) Value {
	switch len(c.Values) {
	case 0:
		return nil
	case 1:
		return c.Values[0]
	}
	if c.Duration <= 0 {
		return c.Values[0]
	}

	active := c.ActiveDuration()
	t = lo.Clamp(t, 0, active)

	iteration := math.Floor(t / c.Duration)
	progress := (t - iteration*c.Duration) / c.Duration
	if t == active && iteration > 0 && progress == 0 {
		// The very end belongs to the last iteration, not the start of a new one.
		iteration--
		progress = 1
	}
	if c.Autoreverses && math.Mod(iteration, 2) == 1 {
		progress = 1 - progress
	}

	if c.Timing != nil {
		progress = c.Timing(progress)
	}
	return c.interpolate(progress)
}

func (c *Curve) interpolate(p float64) Value {
	last := len(c.Values) - 1
	keyTime := func(i int) float64 {
		if len(c.KeyTimes) == len(c.Values) {
			return c.KeyTimes[i]
		}
		return float64(i) / float64(last)
	}

	if p <= keyTime(0) {
		return c.Values[0]
	}
	if p >= keyTime(last) {
		return c.Values[last]
	}

	for i := 0; i < last; i++ {
		k0, k1 := keyTime(i), keyTime(i+1)
		if p > k1 {
			continue
		}
		if k1 <= k0 {
			return c.Values[i+1]
		}
		return c.Values[i].Blend(c.Values[i+1], (p-k0)/(k1-k0))
	}
	return c.Values[last]
}

// Reversed returns a copy of c that plays backwards in time.
func (c *Curve) Reversed() *Curve {
	out := *c
	out.Values = lo.Reverse(append([]Value(nil), c.Values...))
	if len(c.KeyTimes) > 0 {
		out.KeyTimes = lo.Reverse(lo.Map(c.KeyTimes, func(k float64, _ int) float64 {
			return 1 - k
		}))
	}
	out.Timing = c.Timing.Reversed()
	return &out
}
