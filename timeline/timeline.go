// Package timeline plays a group of tracks and their sound cues as one
// unit.
//
// Every group operation fans out synchronously to all tracks, so the tracks
// always agree on time and playing state and the first track can speak for
// the group. The one asynchronous step is Reset: each track re-arms on a
// later turn of the loop, and a per-call barrier holds the group's
// completion (and any Play waiting on it) until every track is done.
package timeline

import (
	"math"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/matt-g-everett/ledflow/curve"
	"github.com/matt-g-everett/ledflow/track"
)

// Options are shared by every track of a timeline.
type Options struct {
	Duration     float64
	Autoreverses bool
	RepeatCount  float64
}

// Binding pairs an element with the curves that animate it.
type Binding struct {
	Element track.Element
	Curves  []*curve.Curve
}

// State is the coarse playback state of a timeline.
type State int

const (
	Idle State = iota
	Playing
	Paused
	Resetting
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	case Resetting:
		return "resetting"
	}
	return "unknown"
}

// Timeline is confined to the run loop goroutine.
type Timeline struct {
	sched    track.Scheduler
	player   SoundPlayer
	tracks   []*track.Track
	cues     []Cue
	opts     Options
	observer Observer

	// resetting is the barrier of the reset in flight, nil otherwise.
	resetting *barrier

	log *logrus.Entry
}

// New groups tracks and cues into a timeline and registers the timeline as
// every track's observer. player may be nil when there are no cues to play.
func New(sched track.Scheduler, player SoundPlayer, tracks []*track.Track, cues []Cue, opts Options) *Timeline {
	tl := new(Timeline)
	tl.sched = sched
	tl.player = player
	tl.tracks = append([]*track.Track(nil), tracks...)
	tl.cues = append([]Cue(nil), cues...)
	tl.opts = opts
	tl.observer = NopObserver{}
	tl.log = logrus.WithField("component", "timeline")

	for _, tr := range tl.tracks {
		tr.SetObserver(tl)
	}
	return tl
}

// Build creates one track per binding, each sharing the timeline's repeat
// and autoreverse options, and groups them.
func Build(sched track.Scheduler, player SoundPlayer, bindings []Binding, cues []Cue, opts Options) *Timeline {
	tracks := lo.Map(bindings, func(b Binding, _ int) *track.Track {
		return track.New(sched, b.Element, b.Curves, opts.Autoreverses, opts.RepeatCount)
	})
	return New(sched, player, tracks, cues, opts)
}

// SetObserver registers the single observer; nil clears it.
func (tl *Timeline) SetObserver(o Observer) {
	if o == nil {
		o = NopObserver{}
	}
	tl.observer = o
}

func (tl *Timeline) Tracks() []*track.Track { return append([]*track.Track(nil), tl.tracks...) }
func (tl *Timeline) Cues() []Cue            { return append([]Cue(nil), tl.cues...) }
func (tl *Timeline) Duration() float64      { return tl.opts.Duration }
func (tl *Timeline) Autoreverses() bool     { return tl.opts.Autoreverses }
func (tl *Timeline) RepeatCount() float64   { return tl.opts.RepeatCount }

// RepeatDuration is the total play length including repeats.
func (tl *Timeline) RepeatDuration() float64 {
	return curve.RepeatDuration(tl.opts.Duration, tl.opts.RepeatCount)
}

// Time is the group's local time, read from the reference track.
func (tl *Timeline) Time() float64 {
	if len(tl.tracks) == 0 {
		return 0
	}
	return tl.tracks[0].Time()
}

// Playing reports the reference track's playing state.
func (tl *Timeline) Playing() bool {
	if len(tl.tracks) == 0 {
		return false
	}
	return tl.tracks[0].Playing()
}

func (tl *Timeline) State() State {
	switch {
	case tl.resetting != nil:
		return Resetting
	case tl.Playing():
		return Playing
	case tl.Time() == 0:
		return Idle
	}
	return Paused
}

// Play starts every track and cue. A timeline that has reached its repeat
// duration is reset first and starts once every track has re-armed; a Play
// issued while a reset is in flight waits for that reset.
func (tl *Timeline) Play() {
	if tl.resetting != nil {
		tl.log.Debug("play deferred until reset completes")
		tl.resetting.then(tl.Play)
		return
	}

	tl.pauseTracks()
	if tl.Time() >= tl.RepeatDuration() {
		tl.Reset(func(*Timeline) { tl.start() })
		return
	}
	tl.start()
}

func (tl *Timeline) start() {
	for _, tr := range tl.tracks {
		tr.Play()
	}
	tl.playCues()
	tl.log.WithField("time", tl.Time()).Info("playing")
	tl.observer.OnPlay(tl)
}

func (tl *Timeline) playCues() {
	if tl.player == nil {
		return
	}
	for _, cue := range tl.cues {
		if err := tl.player.Play(cue.Sound, cue.Delay); err != nil {
			tl.log.WithError(err).WithFields(logrus.Fields{
				"sound": cue.Sound,
				"delay": cue.Delay,
			}).Warn("could not schedule cue")
		}
	}
}

// Pause pauses every track, then notifies the observer once.
func (tl *Timeline) Pause() {
	tl.pauseTracks()
	tl.log.WithField("time", tl.Time()).Info("paused")
	tl.observer.OnPause(tl)
}

func (tl *Timeline) pauseTracks() {
	for _, tr := range tl.tracks {
		tr.Pause()
	}
}

// Offset moves every track to time to, clamped to [0, Duration()], without
// changing whether the timeline is playing.
func (tl *Timeline) Offset(to float64) {
	to = lo.Clamp(to, 0, tl.opts.Duration)
	tl.offsetTracks(to)
	tl.observer.OnOffset(tl, to)
}

func (tl *Timeline) offsetTracks(to float64) {
	for _, tr := range tl.tracks {
		tr.Offset(to)
	}
}

// Reset returns every track to time 0. Once all of them have re-armed, the
// observer's OnReset runs, then onCompletion if non-nil.
func (tl *Timeline) Reset(onCompletion func(*Timeline)) {
	b := newBarrier(len(tl.tracks))
	tl.resetting = b
	b.then(func() {
		if tl.resetting == b {
			tl.resetting = nil
		}
		tl.log.Info("reset")
		tl.observer.OnReset(tl)
		if onCompletion != nil {
			onCompletion(tl)
		}
	})

	if len(tl.tracks) == 0 {
		tl.sched.Post(b.leave)
		return
	}
	for _, tr := range tl.tracks {
		tr.Reset(func(*track.Track) { b.leave() })
	}
}

// TrackFinished implements track.Observer. Only the reference track is
// acted on, so N synchronised tracks produce one stop. The timeline is then
// reset and parked at its end, and observers see a final OnPause there.
func (tl *Timeline) TrackFinished(tr *track.Track) {
	if len(tl.tracks) == 0 || tr != tl.tracks[0] {
		return
	}

	tl.log.WithField("time", tl.Time()).Info("stopped")
	tl.observer.OnStopped(tl)
	tl.Reset(func(*Timeline) {
		tl.pauseTracks()
		tl.offsetTracks(tl.RepeatDuration())
		tl.Pause()
	})
}

// End pauses the timeline at its final position: the end of the last
// repeat, or the start when the tracks autoreverse. A timeline repeating
// forever has no final position and stops at the end of one pass.
func (tl *Timeline) End() {
	tl.Pause()
	if math.IsInf(tl.RepeatDuration(), 1) {
		tl.offsetTracks(tl.opts.Duration)
	} else {
		for _, tr := range tl.tracks {
			tr.OffsetToEnd()
		}
	}
	tl.observer.OnOffset(tl, tl.Time())
}

// Reversed returns a new timeline whose tracks play backwards. It shares
// elements, cues and options with tl but no mutable state, and has no
// observer.
func (tl *Timeline) Reversed() *Timeline {
	tracks := lo.Map(tl.tracks, func(tr *track.Track, _ int) *track.Track {
		return tr.Reversed()
	})
	return New(tl.sched, tl.player, tracks, tl.cues, tl.opts)
}
