package runloop

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matt-g-everett/ledflow/clock"
)

func TestPostRunsOnNextTurn(t *testing.T) {
	l := New(clock.NewManual(0))

	var order []string
	l.Post(func() {
		order = append(order, "first")
		l.Post(func() { order = append(order, "nested") })
	})
	l.Post(func() { order = append(order, "second") })

	require.Equal(t, 2, l.RunPending())
	require.Equal(t, []string{"first", "second"}, order)

	require.Equal(t, 1, l.RunPending())
	require.Equal(t, []string{"first", "second", "nested"}, order)

	require.Equal(t, 0, l.RunPending())
}

func TestAfterWaitsForClock(t *testing.T) {
	c := clock.NewManual(0)
	l := New(c)

	fired := 0
	l.After(1.0, func() { fired++ })

	l.Drain()
	assert.Equal(t, 0, fired)

	c.Advance(0.999)
	l.Drain()
	assert.Equal(t, 0, fired)

	c.Advance(0.001)
	l.Drain()
	assert.Equal(t, 1, fired)

	c.Advance(5)
	l.Drain()
	assert.Equal(t, 1, fired)
}

func TestAfterSameInstantKeepsArmingOrder(t *testing.T) {
	c := clock.NewManual(0)
	l := New(c)

	var order []int
	for i := 0; i < 5; i++ {
		l.After(0.5, func() { order = append(order, i) })
	}
	c.Advance(1)
	l.Drain()
	require.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestAfterCancel(t *testing.T) {
	c := clock.NewManual(0)
	l := New(c)

	fired := false
	cancel := l.After(0.1, func() { fired = true })
	cancel()

	c.Advance(1)
	l.Drain()
	assert.False(t, fired)
}

func TestEveryTicksUntilCancelled(t *testing.T) {
	c := clock.NewManual(0)
	l := New(c)

	ticks := 0
	cancel := l.Every(0.25, func() { ticks++ })

	for i := 0; i < 4; i++ {
		c.Advance(0.25)
		l.Drain()
	}
	assert.Equal(t, 4, ticks)

	// A long stall drops the missed ticks instead of replaying them.
	c.Advance(10)
	l.Drain()
	assert.Equal(t, 5, ticks)

	cancel()
	c.Advance(1)
	l.Drain()
	assert.Equal(t, 5, ticks)
}

func TestEveryNonPositiveInterval(t *testing.T) {
	l := New(clock.NewManual(0))
	cancel := l.Every(0, func() { t.Fatal("should never tick") })
	cancel()
	assert.Equal(t, 0, l.Drain())
}

func TestRunAndDo(t *testing.T) {
	l := New(clock.System())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errc := make(chan error, 1)
	go func() { errc <- l.Run(ctx) }()

	value := 0
	require.NoError(t, l.Do(ctx, func() { value = 42 }))
	assert.Equal(t, 42, value)

	fired := make(chan struct{})
	l.After(0.01, func() { close(fired) })
	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("timer never fired")
	}

	cancel()
	select {
	case err := <-errc:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestDoHonoursContext(t *testing.T) {
	l := New(clock.NewManual(0))
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	// Nobody is turning the loop, so the call can only end through ctx.
	err := l.Do(ctx, func() {})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
