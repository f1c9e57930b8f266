// Package layer implements the element that tracks drive: a named target
// with its own timing (speed, time offset, begin time), model property
// values, and a set of attached curves that it evaluates on Render.
//
// A Layer's local time is
//
//	(clock.Now() - beginTime) * speed + timeOffset
//
// which is the mapping tracks manipulate to play, pause and seek.
package layer

import (
	"github.com/sirupsen/logrus"

	"github.com/matt-g-everett/ledflow/clock"
	"github.com/matt-g-everett/ledflow/curve"
)

type attachment struct {
	curve    *curve.Curve
	observer curve.StopObserver
	stopped  bool
}

// Layer is not goroutine-safe; it belongs to the run loop like the track
// that drives it.
type Layer struct {
	name  string
	clock clock.Clock

	speed      float64
	timeOffset float64
	beginTime  float64

	model    map[string]curve.Value
	attached []*attachment
}

// New creates a stopped layer reading time from c.
func New(name string, c clock.Clock) *Layer {
	l := new(Layer)
	l.name = name
	l.clock = c
	l.model = make(map[string]curve.Value)
	return l
}

func (l *Layer) Name() string { return l.name }

func (l *Layer) Speed() float64          { return l.speed }
func (l *Layer) SetSpeed(s float64)      { l.speed = s }
func (l *Layer) TimeOffset() float64     { return l.timeOffset }
func (l *Layer) SetTimeOffset(t float64) { l.timeOffset = t }
func (l *Layer) BeginTime() float64      { return l.beginTime }
func (l *Layer) SetBeginTime(t float64)  { l.beginTime = t }

// CurrentTime reads the layer's clock.
func (l *Layer) CurrentTime() float64 {
	return l.clock.Now()
}

// LocalTime is the layer's position on its own timeline.
func (l *Layer) LocalTime() float64 {
	return (l.CurrentTime()-l.beginTime)*l.speed + l.timeOffset
}

// SetValue writes a model value directly, bypassing any attached curve.
func (l *Layer) SetValue(path string, v curve.Value) {
	if v == nil {
		delete(l.model, path)
		return
	}
	l.model[path] = v
}

// AddCurve attaches c, replacing any curve already animating the same path.
// The replaced curve's observer is told it stopped unfinished.
func (l *Layer) AddCurve(c *curve.Curve, observer curve.StopObserver) {
	a := &attachment{curve: c, observer: observer}
	for i, existing := range l.attached {
		if existing.curve.Path == c.Path {
			l.attached[i] = a
			notifyStop(existing, false)
			return
		}
	}
	l.attached = append(l.attached, a)
}

// RemoveAllCurves detaches every curve. Observers hear an unfinished stop.
func (l *Layer) RemoveAllCurves() {
	removed := l.attached
	l.attached = nil
	for _, a := range removed {
		notifyStop(a, false)
	}
}

// Curves returns the attached curves in attachment order.
func (l *Layer) Curves() []*curve.Curve {
	out := make([]*curve.Curve, len(l.attached))
	for i, a := range l.attached {
		out[i] = a.curve
	}
	return out
}

// Value returns the presentation value of path at the current local time:
// the attached curve's sample if one animates the path, otherwise the model
// value.
func (l *Layer) Value(path string) (curve.Value, bool) {
	t := l.LocalTime()
	for _, a := range l.attached {
		if a.curve.Path == path {
			if v := a.curve.Sample(t); v != nil {
				return v, true
			}
		}
	}
	v, ok := l.model[path]
	return v, ok
}

// Render evaluates every property at the current local time and reports
// curves that have run to their end. A curve reports its finish once while
// the layer is running; moving the layer back before the end re-arms it.
func (l *Layer) Render() map[string]curve.Value {
	t := l.LocalTime()

	out := make(map[string]curve.Value, len(l.model)+len(l.attached))
	for path, v := range l.model {
		out[path] = v
	}

	var finished []*attachment
	for _, a := range l.attached {
		if v := a.curve.Sample(t); v != nil {
			out[a.curve.Path] = v
		}

		end := a.curve.ActiveDuration()
		switch {
		case t < end:
			a.stopped = false
		case !a.stopped && l.speed != 0:
			a.stopped = true
			finished = append(finished, a)
		}
	}

	// Observers may detach or re-attach curves, so notify after the walk.
	for _, a := range finished {
		logrus.WithFields(logrus.Fields{
			"layer": l.name,
			"path":  a.curve.Path,
			"time":  t,
		}).Debug("curve finished")
		notifyStop(a, true)
	}

	return out
}

func notifyStop(a *attachment, finished bool) {
	if a.observer != nil {
		a.observer.CurveDidStop(a.curve, finished)
	}
}
