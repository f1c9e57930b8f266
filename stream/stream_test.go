package stream

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type message struct {
	topic   string
	payload []byte
}

type fakePublisher struct {
	mu   sync.Mutex
	msgs []message
	fail bool
}

func (p *fakePublisher) Publish(topic string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return errors.New("broker unavailable")
	}
	p.msgs = append(p.msgs, message{topic, append([]byte(nil), payload...)})
	return nil
}

func (p *fakePublisher) messages() []message {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]message(nil), p.msgs...)
}

func (p *fakePublisher) statuses(t *testing.T) []Status {
	t.Helper()
	var out []Status
	for _, m := range p.messages() {
		var s Status
		require.NoError(t, json.Unmarshal(m.payload, &s))
		out = append(out, s)
	}
	return out
}

func (p *fakePublisher) events(t *testing.T) []string {
	var out []string
	for _, s := range p.statuses(t) {
		out = append(out, s.Event)
	}
	return out
}
