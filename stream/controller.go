package stream

import (
	"encoding/json"
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/sirupsen/logrus"

	"github.com/matt-g-everett/ledflow/runloop"
	"github.com/matt-g-everett/ledflow/timeline"
)

// Command is a control message received on the control topic.
type Command struct {
	Type string  `json:"type"`
	Time float64 `json:"time,omitempty"`
}

// Status describes the timeline after an event.
type Status struct {
	Event    string  `json:"event"`
	State    string  `json:"state"`
	Time     float64 `json:"time"`
	Duration float64 `json:"duration"`
	Playing  bool    `json:"playing"`
	Reversed bool    `json:"reversed"`
}

// Controller applies remote commands to the timeline and reports its
// transitions on the status topic. Everything except HandleMessage and
// HandlePayload must be called on the loop.
type Controller struct {
	loop        *runloop.Loop
	publisher   Publisher
	statusTopic string

	timeline *timeline.Timeline
	reversed bool
}

// NewController creates a Controller and registers it as tl's observer.
func NewController(loop *runloop.Loop, publisher Publisher, statusTopic string, tl *timeline.Timeline) *Controller {
	c := new(Controller)
	c.loop = loop
	c.publisher = publisher
	c.statusTopic = statusTopic
	c.timeline = tl
	tl.SetObserver(c)
	return c
}

// Timeline returns the timeline currently under control.
func (c *Controller) Timeline() *timeline.Timeline {
	return c.timeline
}

// Execute applies cmd to the timeline.
func (c *Controller) Execute(cmd Command) error {
	tl := c.timeline
	switch cmd.Type {
	case "play":
		tl.Play()
	case "pause":
		tl.Pause()
	case "offset":
		tl.Offset(cmd.Time)
	case "reset":
		tl.Reset(nil)
	case "end":
		tl.End()
	case "reverse":
		c.reverse()
	default:
		return fmt.Errorf("unknown command %q", cmd.Type)
	}
	return nil
}

// reverse swaps in the reversed timeline. The old timeline stops reporting
// here; the new one starts from its reset state.
func (c *Controller) reverse() {
	old := c.timeline
	old.Pause()
	old.SetObserver(nil)

	c.timeline = old.Reversed()
	c.timeline.SetObserver(c)
	c.reversed = !c.reversed
	c.publish("reversed", c.timeline)
}

// Status reports the current timeline state.
func (c *Controller) Status() Status {
	return c.status("status", c.timeline)
}

func (c *Controller) status(event string, tl *timeline.Timeline) Status {
	return Status{
		Event:    event,
		State:    tl.State().String(),
		Time:     tl.Time(),
		Duration: tl.Duration(),
		Playing:  tl.Playing(),
		Reversed: c.reversed,
	}
}

func (c *Controller) publish(event string, tl *timeline.Timeline) {
	s := c.status(event, tl)
	logrus.WithFields(logrus.Fields{
		"event": s.Event,
		"state": s.State,
		"time":  s.Time,
	}).Info("timeline event")

	payload, err := json.Marshal(s)
	if err != nil {
		logrus.WithError(err).Error("encode status")
		return
	}
	if err := c.publisher.Publish(c.statusTopic, payload); err != nil {
		logrus.WithError(err).Warn("status not delivered")
	}
}

func (c *Controller) OnReset(tl *timeline.Timeline) { c.publish("reset", tl) }
func (c *Controller) OnPlay(tl *timeline.Timeline)  { c.publish("play", tl) }
func (c *Controller) OnPause(tl *timeline.Timeline) { c.publish("pause", tl) }

func (c *Controller) OnOffset(tl *timeline.Timeline, _ float64) {
	c.publish("offset", tl)
}

func (c *Controller) OnStopped(tl *timeline.Timeline) { c.publish("stopped", tl) }

// HandlePayload decodes a JSON command and queues it on the loop. Safe to
// call from any goroutine.
func (c *Controller) HandlePayload(payload []byte) error {
	var cmd Command
	if err := json.Unmarshal(payload, &cmd); err != nil {
		return fmt.Errorf("decode command: %w", err)
	}
	c.loop.Post(func() {
		if err := c.Execute(cmd); err != nil {
			logrus.WithError(err).Warn("command rejected")
		}
	})
	return nil
}

// HandleMessage is the paho callback for the control topic.
func (c *Controller) HandleMessage(client mqtt.Client, msg mqtt.Message) {
	logrus.WithField("topic", msg.Topic()).Debugf("received %s", msg.Payload())
	if err := c.HandlePayload(msg.Payload()); err != nil {
		logrus.WithError(err).Warn("bad control message")
	}
}

// Subscribe listens for commands on topic.
func (c *Controller) Subscribe(client mqtt.Client, topic string) error {
	if token := client.Subscribe(topic, 0, c.HandleMessage); token.Wait() && token.Error() != nil {
		return fmt.Errorf("subscribe %s: %w", topic, token.Error())
	}
	return nil
}
