package track

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matt-g-everett/ledflow/clock"
	"github.com/matt-g-everett/ledflow/curve"
	"github.com/matt-g-everett/ledflow/layer"
	"github.com/matt-g-everett/ledflow/runloop"
)

const tolerance = 1e-9

type finishCounter struct {
	finished []*Track
}

func (f *finishCounter) TrackFinished(t *Track) {
	f.finished = append(f.finished, t)
}

type fixture struct {
	clock *clock.Manual
	loop  *runloop.Loop
	layer *layer.Layer
}

func newFixture() *fixture {
	c := clock.NewManual(100)
	return &fixture{
		clock: c,
		loop:  runloop.New(c),
		layer: layer.New("strip", c),
	}
}

func (f *fixture) track(autoreverses bool, repeatCount float64, curves ...*curve.Curve) *Track {
	t := New(f.loop, f.layer, curves, autoreverses, repeatCount)
	f.loop.Drain()
	return t
}

func brightness(duration float64) *curve.Curve {
	return curve.New("brightness", duration, curve.Scalar(0), curve.Scalar(1))
}

func TestNewLandsOnFirstKeyframe(t *testing.T) {
	f := newFixture()
	f.layer.SetValue("brightness", curve.Scalar(0.9))

	tr := New(f.loop, f.layer, []*curve.Curve{curve.New("brightness", 2, curve.Scalar(0.2), curve.Scalar(1))}, false, 0)

	v, ok := f.layer.Value("brightness")
	require.True(t, ok)
	assert.Equal(t, curve.Scalar(0.2), v)
	assert.Empty(t, f.layer.Curves(), "curves are attached on the next turn")
	assert.False(t, tr.Playing())
	assert.Zero(t, tr.Time())

	f.loop.Drain()
	require.Len(t, f.layer.Curves(), 1)
}

func TestScenario(t *testing.T) {
	f := newFixture()
	tr := f.track(false, 0, brightness(2.0))
	obs := &finishCounter{}
	tr.SetObserver(obs)

	tr.Play()
	f.clock.Advance(0.5)
	assert.InDelta(t, 0.5, tr.Time(), tolerance)

	tr.Pause()
	f.clock.Advance(30)
	assert.InDelta(t, 0.5, tr.Time(), tolerance)

	tr.Offset(1.5)
	assert.Equal(t, 1.5, tr.Time())
	assert.False(t, tr.Playing())

	tr.Play()
	f.clock.Advance(0.4)
	assert.InDelta(t, 1.9, tr.Time(), tolerance)
	f.layer.Render()
	assert.Empty(t, obs.finished)

	f.clock.Advance(0.1)
	f.layer.Render()
	f.clock.Advance(0.5)
	f.layer.Render()

	require.Len(t, obs.finished, 1)
	assert.Same(t, tr, obs.finished[0])
	assert.False(t, tr.Playing())
	assert.Equal(t, 2.0, tr.Time())
}

func TestOffsetClamps(t *testing.T) {
	f := newFixture()
	tr := f.track(false, 2, brightness(1.5))
	require.Equal(t, 3.0, tr.RepeatDuration())

	for _, to := range []float64{-5, -0.1, 0, 0.7, 2.9, 3, 3.1, 1e9} {
		tr.Offset(to)
		want := to
		if want < 0 {
			want = 0
		}
		if want > 3 {
			want = 3
		}
		assert.Equal(t, want, tr.Time(), "offset to %v", to)
	}
}

func TestOffsetWhilePlayingKeepsPlaying(t *testing.T) {
	f := newFixture()
	tr := f.track(false, 0, brightness(4))

	tr.Play()
	f.clock.Advance(1)
	tr.Offset(3)
	assert.True(t, tr.Playing())
	assert.InDelta(t, 3, tr.Time(), tolerance)

	f.clock.Advance(0.5)
	assert.InDelta(t, 3.5, tr.Time(), tolerance)
}

func TestPauseIsIdempotent(t *testing.T) {
	f := newFixture()
	tr := f.track(false, 0, brightness(4))

	tr.Play()
	f.clock.Advance(1.25)
	tr.Pause()
	first := tr.Time()
	f.clock.Advance(2)
	tr.Pause()
	assert.Equal(t, first, tr.Time())
	assert.InDelta(t, 1.25, first, tolerance)
}

func TestPlayPauseContinuity(t *testing.T) {
	f := newFixture()
	tr := f.track(false, 0, brightness(4))
	tr.Offset(2.2)

	before := tr.Time()
	tr.Play()
	tr.Play()
	tr.Pause()
	assert.InDelta(t, before, tr.Time(), tolerance)
}

func TestResetLandsAtStart(t *testing.T) {
	f := newFixture()
	tr := f.track(false, 0, brightness(2))

	tr.Play()
	f.clock.Advance(1.2)

	done := 0
	tr.Reset(func(got *Track) {
		assert.Same(t, tr, got)
		done++
	})
	assert.Zero(t, done, "completion waits for the re-arm turn")
	assert.Empty(t, f.layer.Curves())

	f.loop.Drain()
	assert.Equal(t, 1, done)
	assert.Zero(t, tr.Time())
	assert.False(t, tr.Playing())
	require.Len(t, f.layer.Curves(), 1)

	v, _ := f.layer.Value("brightness")
	assert.Equal(t, curve.Scalar(0), v)
}

func TestOffsetToEnd(t *testing.T) {
	f := newFixture()
	tr := f.track(false, 3, brightness(1))
	tr.Play()
	tr.OffsetToEnd()
	assert.False(t, tr.Playing())
	assert.Equal(t, 3.0, tr.Time())

	g := newFixture()
	rev := g.track(true, 2, brightness(1))
	rev.Offset(0.5)
	rev.OffsetToEnd()
	g.loop.Drain()
	assert.Zero(t, rev.Time())
	assert.False(t, rev.Playing())
}

func TestEmptyTrack(t *testing.T) {
	f := newFixture()
	tr := f.track(false, 0)

	assert.Zero(t, tr.Duration())
	assert.Zero(t, tr.RepeatDuration())
	tr.Play()
	f.clock.Advance(3)
	assert.Zero(t, tr.Time())
	tr.Offset(2)
	assert.Zero(t, tr.Time())
	assert.Empty(t, tr.Sample(1))
}

func TestRepeatForever(t *testing.T) {
	f := newFixture()
	tr := f.track(false, curve.RepeatForever, brightness(1))
	obs := &finishCounter{}
	tr.SetObserver(obs)

	tr.Play()
	f.clock.Advance(1000)
	f.layer.Render()
	assert.InDelta(t, 1000, tr.Time(), 1e-6)
	assert.Empty(t, obs.finished)
}

func TestOnlyReferenceCurveFinishes(t *testing.T) {
	f := newFixture()
	red, _ := curve.Hex("#ff0000")
	blue, _ := curve.Hex("#0000ff")
	tr := f.track(false, 0,
		brightness(1),
		curve.New("colour", 1, red, blue),
		curve.New("shift", 1, curve.Scalar(0), curve.Scalar(20)),
	)
	obs := &finishCounter{}
	tr.SetObserver(obs)

	tr.Play()
	f.clock.Advance(1)
	f.layer.Render()
	f.layer.Render()

	assert.Len(t, obs.finished, 1)
}

func TestFinishIsRearmedAfterSeekingBack(t *testing.T) {
	f := newFixture()
	tr := f.track(false, 0, brightness(1))
	obs := &finishCounter{}
	tr.SetObserver(obs)

	tr.Play()
	f.clock.Advance(1)
	f.layer.Render()
	require.Len(t, obs.finished, 1)

	tr.Offset(0.5)
	tr.Play()
	f.layer.Render()
	f.clock.Advance(0.5)
	f.layer.Render()
	assert.Len(t, obs.finished, 2)
}

func TestReversedTwiceSamplesLikeOriginal(t *testing.T) {
	f := newFixture()
	c := curve.New("shift", 2, curve.Scalar(0), curve.Scalar(8), curve.Scalar(3))
	c.KeyTimes = []float64{0, 0.25, 1}
	c.Timing, _ = curve.TimingByName("easeInEaseOut")
	tr := f.track(false, 0, c)

	rr := tr.Reversed().Reversed()
	f.loop.Drain()

	assert.Same(t, tr.Element(), rr.Element())
	for i := 0; i <= 20; i++ {
		at := tr.Duration() * float64(i) / 20
		want := tr.Sample(at)["shift"].(curve.Scalar)
		got := rr.Sample(at)["shift"].(curve.Scalar)
		assert.InDelta(t, float64(want), float64(got), tolerance, "at %v", at)
	}
}

func TestReversedLeavesOriginalCurves(t *testing.T) {
	f := newFixture()
	tr := f.track(false, 0, brightness(1))
	r := tr.Reversed()

	assert.Equal(t, curve.Scalar(0), tr.Curves()[0].First())
	assert.Equal(t, curve.Scalar(1), r.Curves()[0].First())
}

func TestNewDoesNotMutateCallerCurves(t *testing.T) {
	f := newFixture()
	c := brightness(1)
	tr := f.track(true, 4, c)

	assert.False(t, c.Autoreverses)
	assert.Zero(t, c.RepeatCount)
	assert.True(t, tr.Curves()[0].Autoreverses)
	assert.Equal(t, 4.0, tr.Curves()[0].RepeatCount)
}

func TestAutoreversingTrackParksAtStart(t *testing.T) {
	f := newFixture()
	tr := f.track(true, 2, brightness(1))
	obs := &finishCounter{}
	tr.SetObserver(obs)

	tr.Play()
	f.clock.Advance(1.5)
	f.layer.Render()
	assert.Empty(t, obs.finished)

	f.clock.Advance(0.5)
	f.layer.Render()
	require.Len(t, obs.finished, 1)
	assert.False(t, tr.Playing())
	assert.Zero(t, tr.Time())

	v, ok := f.layer.Value("brightness")
	require.True(t, ok)
	assert.Equal(t, curve.Scalar(0), v)

	f.layer.Render()
	assert.Len(t, obs.finished, 1, "parked track does not finish again")

	tr.Play()
	f.clock.Advance(2)
	f.layer.Render()
	assert.Len(t, obs.finished, 2)
}
