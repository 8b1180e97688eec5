package client

import (
	"sync"
	"testing"
	"time"

	"github.com/pkopriv2/seglog/common"
	"github.com/pkopriv2/seglog/net"
	"github.com/pkopriv2/seglog/wire"
)

// A scripted connection: records sends, fails on demand.
type fakeConn struct {
	lock    sync.Mutex
	sent    []wire.Request
	sendErr error
	dropped bool
}

func (c *fakeConn) Send(cmd wire.Request) error {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.sendErr != nil {
		return c.sendErr
	}

	c.sent = append(c.sent, cmd)
	return nil
}

func (c *fakeConn) Drop() {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.dropped = true
}

func (c *fakeConn) FailSends(err error) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.sendErr = err
}

func (c *fakeConn) Sent() []wire.Request {
	c.lock.Lock()
	defer c.lock.Unlock()
	return append([]wire.Request{}, c.sent...)
}

func (c *fakeConn) Dropped() bool {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.dropped
}

// Hands out fake connections and remembers the processor registered with
// each, so tests can inject replies.
type fakeFactory struct {
	lock        sync.Mutex
	err         error
	sendErrNext error
	conns       []*fakeConn
	procs       []*wire.ReplyProcessor
}

func (f *fakeFactory) Establish(endpoint net.Endpoint, proc *wire.ReplyProcessor) (net.ClientConnection, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	if f.err != nil {
		return nil, f.err
	}

	conn := &fakeConn{sendErr: f.sendErrNext}
	f.sendErrNext = nil
	f.conns = append(f.conns, conn)
	f.procs = append(f.procs, proc)
	return conn, nil
}

// The next established connection fails every send.
func (f *fakeFactory) FailSendsOnNext(err error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.sendErrNext = err
}

func (f *fakeFactory) FailEstablish(err error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.err = err
}

func (f *fakeFactory) Count() int {
	f.lock.Lock()
	defer f.lock.Unlock()
	return len(f.conns)
}

func (f *fakeFactory) Conn(i int) *fakeConn {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.conns[i]
}

func (f *fakeFactory) Proc(i int) *wire.ReplyProcessor {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.procs[i]
}

// Test context with retry sleeps disabled.
func newTestContext() common.Context {
	return common.NewContext(common.NewConfig(map[string]interface{}{
		confOutputConnectDelay: 0}))
}

func waitFor(t *testing.T, cond func() bool) {
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}

	t.Fatal("condition never met")
}

// Sets up a stream whose first connection has completed its handshake.
func readyStream(t *testing.T, factory *fakeFactory) *outputStream {
	stream := newOutputStream(newTestContext(), factory, net.NewEndpoint("fake", 1), "s1")
	if err := stream.start(); err != nil {
		t.Fatal(err)
	}

	factory.Proc(0).Dispatch(wire.AppendSetup{WriterId: stream.writerId, Segment: "s1", AckLevel: 0})
	return stream
}
