package timeline

// A Cue is a sound started Delay seconds after the timeline starts playing.
type Cue struct {
	Sound string
	Delay float64
}

// SoundPlayer starts sounds. Playback is best-effort: an error is logged and
// never stops the tracks.
type SoundPlayer interface {
	Play(sound string, delay float64) error
}
