package stream

import (
	"encoding/json"
	"fmt"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/matt-g-everett/ledflow/runloop"
)

// CueMessage is published when a sound cue is due.
type CueMessage struct {
	Type  string  `json:"type"`
	Sound string  `json:"sound"`
	Delay float64 `json:"delay"`
}

// CuePlayer implements timeline.SoundPlayer by publishing a cue message on
// the cues topic once the cue's delay has passed. The sound device
// listening on that topic does the actual playback.
type CuePlayer struct {
	loop      *runloop.Loop
	publisher Publisher
	topic     string
	sounds    []string
}

// NewCuePlayer creates a CuePlayer. When sounds is non-empty, cues for any
// other sound are rejected as unavailable.
func NewCuePlayer(loop *runloop.Loop, publisher Publisher, topic string, sounds []string) *CuePlayer {
	p := new(CuePlayer)
	p.loop = loop
	p.publisher = publisher
	p.topic = topic
	p.sounds = sounds
	return p
}

// Play schedules sound to start after delay seconds.
func (p *CuePlayer) Play(sound string, delay float64) error {
	if len(p.sounds) > 0 && !lo.Contains(p.sounds, sound) {
		return fmt.Errorf("sound %q is not available", sound)
	}

	payload, err := json.Marshal(CueMessage{Type: "cue", Sound: sound, Delay: delay})
	if err != nil {
		return fmt.Errorf("encode cue %q: %w", sound, err)
	}

	p.loop.After(delay, func() {
		if err := p.publisher.Publish(p.topic, payload); err != nil {
			logrus.WithError(err).WithField("sound", sound).Warn("cue not delivered")
			return
		}
		logrus.WithField("sound", sound).Debug("cue sent")
	})
	return nil
}
