// Package clock provides the monotonic time source that elements read their
// local time from. Times are seconds as float64 throughout ledflow.
package clock

import (
	"sync"
	"time"
)

// Clock reports monotonic time in seconds.
type Clock interface {
	Now() float64
}

type system struct {
	start time.Time
}

// System returns a Clock that reports seconds elapsed since it was created.
func System() Clock {
	return &system{start: time.Now()}
}

func (s *system) Now() float64 {
	return time.Since(s.start).Seconds()
}

// Manual is a Clock that only moves when told to. Safe for concurrent use.
type Manual struct {
	mu  sync.Mutex
	now float64
}

// NewManual creates a Manual clock reading now.
func NewManual(now float64) *Manual {
	return &Manual{now: now}
}

// Now returns the current manual time.
func (m *Manual) Now() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Set moves the clock to t. Moving backwards is allowed but elements will see
// their local time jump accordingly.
func (m *Manual) Set(t float64) {
	m.mu.Lock()
	m.now = t
	m.mu.Unlock()
}

// Advance moves the clock forward by d seconds and returns the new time.
func (m *Manual) Advance(d float64) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now += d
	return m.now
}
