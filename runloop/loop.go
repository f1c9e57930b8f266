// Package runloop implements the single control thread that every track,
// timeline and element operation runs on.
//
// Work reaches the loop in two ways: Post queues a task for the next turn,
// and After/Every arm timers against the loop's clock. Submission is safe
// from any goroutine; tasks always execute on whichever goroutine is turning
// the loop (Run in production, RunPending/Drain in tests).
package runloop

import (
	"container/heap"
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/matt-g-everett/ledflow/clock"
)

// maxDrainTurns bounds Drain so a task that keeps re-posting itself cannot
// hang a test forever.
const maxDrainTurns = 10000

// Loop is a cooperative task queue driven by a Clock.
type Loop struct {
	clock clock.Clock

	mu     sync.Mutex
	tasks  []func()
	timers timerQueue
	seq    uint64

	wake chan struct{}
}

// New creates a Loop whose timers are measured against c.
func New(c clock.Clock) *Loop {
	l := new(Loop)
	l.clock = c
	l.wake = make(chan struct{}, 1)
	return l
}

// Clock returns the clock the loop schedules against.
func (l *Loop) Clock() clock.Clock {
	return l.clock
}

// Post queues fn to run on the next turn of the loop.
func (l *Loop) Post(fn func()) {
	l.mu.Lock()
	l.tasks = append(l.tasks, fn)
	l.mu.Unlock()
	l.notify()
}

// After runs fn once delay seconds have passed on the loop's clock. A
// non-positive delay behaves like Post with timer ordering.
func (l *Loop) After(delay float64, fn func()) (cancel func()) {
	t := l.schedule(l.clock.Now()+delay, fn)
	return func() { t.cancelled.Store(true) }
}

// Every runs fn every interval seconds until cancelled. Missed ticks are
// dropped rather than replayed. A non-positive interval schedules nothing.
func (l *Loop) Every(interval float64, fn func()) (cancel func()) {
	if interval <= 0 {
		return func() {}
	}

	var stopped atomic.Bool
	at := l.clock.Now() + interval
	var tick func()
	tick = func() {
		if stopped.Load() {
			return
		}
		fn()
		at += interval
		if now := l.clock.Now(); at <= now {
			at = now + interval
		}
		l.schedule(at, tick)
	}
	l.schedule(at, tick)

	return func() { stopped.Store(true) }
}

// RunPending runs a single turn: every task queued before the call and every
// timer that is due. Work queued during the turn waits for the next one.
// Returns the number of callbacks executed.
func (l *Loop) RunPending() int {
	now := l.clock.Now()

	l.mu.Lock()
	tasks := l.tasks
	l.tasks = nil
	var due []*timer
	for len(l.timers) > 0 && l.timers[0].at <= now {
		due = append(due, heap.Pop(&l.timers).(*timer))
	}
	l.mu.Unlock()

	ran := 0
	for _, fn := range tasks {
		fn()
		ran++
	}
	for _, t := range due {
		if t.cancelled.Load() {
			continue
		}
		t.fn()
		ran++
	}
	return ran
}

// Drain turns the loop until no queued task or due timer remains. Returns
// the total number of callbacks executed.
func (l *Loop) Drain() int {
	total := 0
	for i := 0; i < maxDrainTurns; i++ {
		n := l.RunPending()
		if n == 0 && !l.hasDueWork() {
			return total
		}
		total += n
	}
	return total
}

// Run turns the loop in real time until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	for {
		l.RunPending()

		if err := ctx.Err(); err != nil {
			return err
		}

		wait, ok := l.nextWait()
		if ok && wait <= 0 {
			continue
		}

		var t *time.Timer
		var timeout <-chan time.Time
		if ok {
			t = time.NewTimer(wait)
			timeout = t.C
		}

		select {
		case <-ctx.Done():
		case <-l.wake:
		case <-timeout:
		}
		if t != nil {
			t.Stop()
		}
	}
}

// Do runs fn on the loop and waits for it to finish. It must not be called
// from the loop goroutine itself.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	l.Post(func() {
		fn()
		close(done)
	})

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *Loop) schedule(at float64, fn func()) *timer {
	l.mu.Lock()
	l.seq++
	t := &timer{at: at, seq: l.seq, fn: fn}
	heap.Push(&l.timers, t)
	l.mu.Unlock()
	l.notify()
	return t
}

func (l *Loop) notify() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

func (l *Loop) hasDueWork() bool {
	now := l.clock.Now()
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.tasks) > 0 || (len(l.timers) > 0 && l.timers[0].at <= now)
}

// nextWait reports how long until the loop has work. ok is false when there
// is nothing scheduled at all.
func (l *Loop) nextWait() (wait time.Duration, ok bool) {
	now := l.clock.Now()
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.tasks) > 0 {
		return 0, true
	}
	if len(l.timers) == 0 {
		return 0, false
	}
	return time.Duration((l.timers[0].at - now) * float64(time.Second)), true
}
