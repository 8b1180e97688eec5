package concurrent

import "sync"

// A latch is a reusable, manual-reset signal.  Wait blocks until the latch
// is released; a released latch admits all current and future waiters until
// the next Reset.  Unlike a one-shot future, a latch survives reuse across
// reconnect cycles.
type Latch struct {
	lock sync.Mutex
	gate chan struct{}
	open bool
}

func NewLatch(released bool) *Latch {
	l := &Latch{gate: make(chan struct{}), open: released}
	if released {
		close(l.gate)
	}
	return l
}

// Blocks until the latch is released.
func (l *Latch) Wait() {
	<-l.chanel()
}

// Returns a channel that is closed while the latch is released.  Useful
// for composing with selects.
func (l *Latch) Released() <-chan struct{} {
	return l.chanel()
}

// Releases the latch, admitting all waiters.  Idempotent.
func (l *Latch) Release() {
	l.lock.Lock()
	defer l.lock.Unlock()
	if l.open {
		return
	}

	l.open = true
	close(l.gate)
}

// Arms the latch again.  Waiters arriving after the reset block until the
// next release.  Idempotent.
func (l *Latch) Reset() {
	l.lock.Lock()
	defer l.lock.Unlock()
	if !l.open {
		return
	}

	l.open = false
	l.gate = make(chan struct{})
}

func (l *Latch) chanel() chan struct{} {
	l.lock.Lock()
	defer l.lock.Unlock()
	return l.gate
}
