package client

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/pkopriv2/seglog/concurrent"
	"github.com/pkopriv2/seglog/net"
)

// Tracks the stream's current connection, its readiness, and its last
// failure.  The setup latch is reusable: every install resets it, and
// every completion (ready or failed) releases it, so waiters always
// observe one or the other rather than hanging.
//
// *This object is thread safe.*
type connState struct {
	lock  sync.Mutex
	conn  net.ClientConnection
	err   error
	setup *concurrent.Latch
}

func newConnState() *connState {
	return &connState{setup: concurrent.NewLatch(false)}
}

// Installs a freshly established connection: arms the setup latch, clears
// the last failure, and stores the connection.
func (c *connState) InstallNew(conn net.ClientConnection) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.setup.Reset()
	c.err = nil
	c.conn = conn
}

// Releases the setup latch; waiters receive the current connection.
func (c *connState) MarkReady() {
	c.setup.Release()
}

// Records the failure (first cause wins), clears the connection, and
// releases the setup latch so waiters observe the failure.  The old
// connection is dropped outside the lock.
func (c *connState) Fail(cause error) {
	c.lock.Lock()
	if c.err == nil {
		c.err = cause
	}
	old := c.conn
	c.conn = nil
	c.lock.Unlock()

	c.setup.Release()
	if old != nil {
		old.Drop()
	}
}

// Blocks until the setup latch is released, then returns the connection
// if it survived, or the recorded failure.
func (c *connState) AwaitReady() (net.ClientConnection, error) {
	c.setup.Wait()

	c.lock.Lock()
	defer c.lock.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	if c.conn == nil {
		return nil, errors.Wrap(net.ConnectionClosedError, "Connection released")
	}

	return c.conn, nil
}

// Returns the current connection, or nil.
func (c *connState) Current() net.ClientConnection {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.conn
}
