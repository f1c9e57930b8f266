// Package track drives one element's clock and the keyframe curves applied
// to it.
//
// A Track never stores its current time. It writes the element's speed,
// begin time and time offset so that the element's local time,
//
//	(CurrentTime() - BeginTime()) * Speed() + TimeOffset()
//
// always reads back the intended position. Play, Pause and Offset each
// rewrite those three values together; skipping the begin-time update on a
// pause→play transition shows up as a visible jump.
//
// Tracks are confined to the run loop goroutine.
package track

import (
	"fmt"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/matt-g-everett/ledflow/curve"
)

// Element is the visual target a Track animates. The Track owns the
// element's timing state but not its lifetime.
type Element interface {
	Speed() float64
	SetSpeed(speed float64)
	TimeOffset() float64
	SetTimeOffset(t float64)
	BeginTime() float64
	SetBeginTime(t float64)

	// CurrentTime reads the element-scoped clock.
	CurrentTime() float64

	SetValue(path string, v curve.Value)
	AddCurve(c *curve.Curve, observer curve.StopObserver)
	RemoveAllCurves()
}

// Scheduler defers work to the next turn of the run loop.
type Scheduler interface {
	Post(fn func())
}

// Observer is told when a track's reference curve runs to its end.
type Observer interface {
	TrackFinished(t *Track)
}

// Track is one element's synchronised set of curves plus its clock state.
type Track struct {
	sched    Scheduler
	element  Element
	curves   []*curve.Curve
	observer Observer

	autoreverses bool
	repeatCount  float64

	log *logrus.Entry
}

// New binds curves to element and resets the element to the first keyframe
// at time 0 with its clock stopped. The curves are copied with the repeat
// behaviour applied; the caller's curves are left as they are. The reset's
// re-arm step runs on the next turn of sched.
func New(sched Scheduler, element Element, curves []*curve.Curve, autoreverses bool, repeatCount float64) *Track {
	t := new(Track)
	t.sched = sched
	t.element = element
	t.autoreverses = autoreverses
	t.repeatCount = repeatCount
	t.curves = lo.Map(curves, func(c *curve.Curve, _ int) *curve.Curve {
		return c.WithRepeat(autoreverses, repeatCount)
	})
	t.log = logrus.WithField("track", elementName(element))

	t.Reset(nil)
	return t
}

func elementName(e Element) string {
	if named, ok := e.(interface{ Name() string }); ok {
		return named.Name()
	}
	return fmt.Sprintf("%p", e)
}

// SetObserver registers the single observer. The track does not own it.
func (t *Track) SetObserver(o Observer) {
	t.observer = o
}

func (t *Track) Element() Element { return t.element }

// Curves returns the track's curves. The slice is a copy; the curves are
// shared and must not be modified.
func (t *Track) Curves() []*curve.Curve {
	return append([]*curve.Curve(nil), t.curves...)
}

func (t *Track) Autoreverses() bool   { return t.autoreverses }
func (t *Track) RepeatCount() float64 { return t.repeatCount }

// Duration is the authored length of the first curve, or 0 without curves.
func (t *Track) Duration() float64 {
	if len(t.curves) == 0 {
		return 0
	}
	return t.curves[0].Duration
}

// RepeatDuration is the total play length including repeats.
func (t *Track) RepeatDuration() float64 {
	return curve.RepeatDuration(t.Duration(), t.repeatCount)
}

// Time is the track's current local time in [0, RepeatDuration()].
func (t *Track) Time() float64 {
	e := t.element
	local := (e.CurrentTime()-e.BeginTime())*e.Speed() + e.TimeOffset()
	return lo.Clamp(local, 0, t.RepeatDuration())
}

// Playing reports whether the element's clock is running.
func (t *Track) Playing() bool {
	return t.element.Speed() != 0
}

// Play resumes forward progression from the current local time. Calling it
// while already playing keeps the position.
func (t *Track) Play() {
	from := t.Time()
	t.element.SetSpeed(1)
	t.element.SetTimeOffset(0)
	t.element.SetBeginTime(t.element.CurrentTime() - from)
	t.log.WithField("time", from).Debug("play")
}

// Pause freezes the local time where it is.
func (t *Track) Pause() {
	at := t.Time()
	t.element.SetSpeed(0)
	t.seek(at)
	t.log.WithField("time", at).Debug("pause")
}

// Offset moves the track to time to, clamped to [0, RepeatDuration()],
// without changing whether it is playing.
func (t *Track) Offset(to float64) {
	to = lo.Clamp(to, 0, t.RepeatDuration())
	t.seek(to)
	t.log.WithField("time", to).Debug("offset")
}

// seek rewrites the clock mapping so that the local time reads to.
func (t *Track) seek(to float64) {
	e := t.element
	now := e.CurrentTime()
	if speed := e.Speed(); speed != 0 {
		e.SetTimeOffset(0)
		e.SetBeginTime(now - to/speed)
		return
	}
	e.SetTimeOffset(to)
	e.SetBeginTime(now)
}

// OffsetToEnd parks the track, paused, at RepeatDuration(). An autoreversing
// track ends where it started, so it is reset instead.
func (t *Track) OffsetToEnd() {
	if t.autoreverses {
		t.Reset(nil)
		return
	}
	t.element.SetSpeed(0)
	t.seek(t.RepeatDuration())
}

// Reset removes the attached curves, writes each curve's first value to the
// element, and parks the clock at 0. Re-attaching the curves is deferred to
// the next turn of the loop so the clearing step cannot undo it;
// onCompletion, if non-nil, runs after the curves are attached again.
//
// The element must outlive any reset in flight.
func (t *Track) Reset(onCompletion func(*Track)) {
	t.element.RemoveAllCurves()
	for _, c := range t.curves {
		t.element.SetValue(c.Path, c.First())
	}
	t.element.SetSpeed(0)
	t.seek(0)
	t.log.Debug("reset")

	t.sched.Post(func() { t.rearm(onCompletion) })
}

// rearm attaches every curve to the element.
func (t *Track) rearm(onCompletion func(*Track)) {
	for _, c := range t.curves {
		t.element.AddCurve(c, t)
	}
	t.log.Debug("rearmed")
	if onCompletion != nil {
		onCompletion(t)
	}
}

// Sample evaluates every curve at local time at, keyed by property path.
func (t *Track) Sample(at float64) map[string]curve.Value {
	out := make(map[string]curve.Value, len(t.curves))
	for _, c := range t.curves {
		if v := c.Sample(at); v != nil {
			out[c.Path] = v
		}
	}
	return out
}

// Reversed returns a new track on the same element whose curves play
// backwards. Building it resets the shared element.
func (t *Track) Reversed() *Track {
	reversed := lo.Map(t.curves, func(c *curve.Curve, _ int) *curve.Curve {
		return c.Reversed()
	})
	return New(t.sched, t.element, reversed, t.autoreverses, t.repeatCount)
}

// CurveDidStop implements curve.StopObserver. Only the natural finish of
// the first curve counts; the curves of one track are co-terminous. The
// track parks paused at its end, or at 0 when it autoreverses, since that
// is where its last pass lands.
func (t *Track) CurveDidStop(c *curve.Curve, finished bool) {
	if !finished || len(t.curves) == 0 || c.Path != t.curves[0].Path {
		return
	}

	end := t.RepeatDuration()
	if t.autoreverses {
		end = 0
	}
	t.element.SetSpeed(0)
	t.seek(end)
	t.log.WithField("time", end).Debug("finished")

	if t.observer != nil {
		t.observer.TrackFinished(t)
	}
}
