package timeline

// Observer hears about a timeline's state transitions. Embed NopObserver to
// implement only the callbacks you need.
type Observer interface {
	// OnReset fires once every track has finished resetting.
	OnReset(tl *Timeline)

	// OnPlay fires when the tracks and cues have been started.
	OnPlay(tl *Timeline)

	// OnPause fires once all tracks are paused.
	OnPause(tl *Timeline)

	// OnOffset fires after every track has been moved to time.
	OnOffset(tl *Timeline, time float64)

	// OnStopped fires when the timeline completes its repeat duration.
	OnStopped(tl *Timeline)
}

// NopObserver implements Observer with no-ops.
type NopObserver struct{}

func (NopObserver) OnReset(*Timeline)           {}
func (NopObserver) OnPlay(*Timeline)            {}
func (NopObserver) OnPause(*Timeline)           {}
func (NopObserver) OnOffset(*Timeline, float64) {}
func (NopObserver) OnStopped(*Timeline)         {}
