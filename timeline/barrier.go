package timeline

// barrier counts outstanding completions and releases its waiters exactly
// once when the last one leaves. Each reset owns a fresh barrier, so a
// superseded reset can never release a newer one.
type barrier struct {
	remaining int
	waiters   []func()
	done      bool
}

func newBarrier(n int) *barrier {
	return &barrier{remaining: n}
}

// then queues fn to run when the barrier opens.
func (b *barrier) then(fn func()) {
	b.waiters = append(b.waiters, fn)
}

func (b *barrier) leave() {
	if b.done {
		return
	}
	b.remaining--
	if b.remaining > 0 {
		return
	}
	b.done = true
	for _, fn := range b.waiters {
		fn()
	}
	b.waiters = nil
}
