package stream

import (
	"github.com/sirupsen/logrus"

	"github.com/matt-g-everett/ledflow/runloop"
)

// Streamer that streams RGB data frames to an ledrx device.
type Streamer struct {
	publisher Publisher
	animation Animation
	topic     string
	frameRate float64
	stop      func()
}

// NewStreamer creates an instance of a Streamer.
func NewStreamer(publisher Publisher, topic string, animation Animation, frameRate float64) *Streamer {
	s := new(Streamer)
	s.publisher = publisher
	s.topic = topic
	s.animation = animation
	s.frameRate = frameRate
	return s
}

// SendFrame renders a frame and sends it as binary to the ledrx device.
func (s *Streamer) SendFrame() error {
	f := s.animation.CalculateFrame()
	b, err := f.MarshalBinary()
	if err != nil {
		return err
	}
	return s.publisher.Publish(s.topic, b)
}

// Start sends frames at the frame rate from the loop until Stop.
func (s *Streamer) Start(loop *runloop.Loop) {
	s.Stop()
	s.stop = loop.Every(1/s.frameRate, func() {
		if err := s.SendFrame(); err != nil {
			logrus.WithError(err).Warn("frame dropped")
		}
	})
}

// Stop halts streaming.
func (s *Streamer) Stop() {
	if s.stop != nil {
		s.stop()
		s.stop = nil
	}
}
