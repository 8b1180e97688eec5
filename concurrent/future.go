package concurrent

import "sync"

// A completion is a single-shot, settable-once promise.  The first call to
// Complete or Fail wins; every later call is a no-op.
type Completion struct {
	once sync.Once
	done chan struct{}
	err  error
}

func NewCompletion() *Completion {
	return &Completion{done: make(chan struct{})}
}

func (c *Completion) Complete() {
	c.once.Do(func() {
		close(c.done)
	})
}

func (c *Completion) Fail(err error) {
	c.once.Do(func() {
		c.err = err
		close(c.done)
	})
}

func (c *Completion) Done() <-chan struct{} {
	return c.done
}

// Returns true once the completion has been settled.
func (c *Completion) IsDone() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// Blocks until the completion is settled and returns its outcome.
func (c *Completion) Await() error {
	<-c.done
	return c.err
}

// Returns the outcome of a settled completion.  Only meaningful after Done
// has fired.
func (c *Completion) Err() error {
	return c.err
}
