package net

import (
	"encoding/gob"
	"sync"

	"github.com/pkg/errors"
	"github.com/pkopriv2/seglog/common"
	"github.com/pkopriv2/seglog/wire"
)

const (
	confSendQueueSize = "seglog.net.send.queue.size"
)

const (
	defaultSendQueueSize = 256
)

// A client connection is one logical connection to a segment store
// endpoint.  Requests go out through Send; decoded replies are delivered
// to the reply processor registered at establish time, in server-send
// order, on a connection-owned goroutine.
type ClientConnection interface {

	// Enqueues a single wire command for transmission.  Never blocks:
	// fails with a wrapped ConnectionSendError when the outbound queue is
	// full, or a wrapped ConnectionClosedError once the connection is
	// dropped.  A transmit failure behind the queue drops the connection;
	// later sends surface it.
	Send(cmd wire.Request) error

	// Releases the connection.  Idempotent.  Further sends fail and no
	// further replies are delivered.
	Drop()
}

// Connection factories establish client connections.  Consumers should
// not retain references to a connection beyond its failure; establish a
// new one instead.
type ConnectionFactory interface {
	Establish(endpoint Endpoint, proc *wire.ReplyProcessor) (ClientConnection, error)
}

func NewConnectionFactory(ctx common.Context, network Network) ConnectionFactory {
	return &connectionFactory{
		logger:    ctx.Logger(),
		network:   network,
		queueSize: ctx.Config().OptionalInt(confSendQueueSize, defaultSendQueueSize)}
}

type connectionFactory struct {
	logger    common.Logger
	network   Network
	queueSize int
}

func (c *connectionFactory) Establish(endpoint Endpoint, proc *wire.ReplyProcessor) (ClientConnection, error) {
	raw, err := c.network.Dial(endpoint)
	if err != nil {
		return nil, errors.Wrapf(err, "Error dialing [%v]", endpoint)
	}

	conn := &clientConnection{
		logger: c.logger.Fmt("Conn(%v)", endpoint),
		raw:    raw,
		proc:   proc,
		tx:     make(chan wire.Request, c.queueSize),
		closed: make(chan struct{})}

	go conn.writePump()
	go conn.readPump()
	return conn, nil
}

type clientConnection struct {
	logger common.Logger
	raw    Connection
	proc   *wire.ReplyProcessor

	tx     chan wire.Request
	closed chan struct{}
	closer sync.Once
}

func (c *clientConnection) Send(cmd wire.Request) error {
	if c.isClosed() {
		return errors.Wrapf(ConnectionClosedError, "Unable to send [%v]", cmd)
	}

	select {
	case c.tx <- cmd:
		return nil
	default:
		return errors.Wrapf(ConnectionSendError, "Send queue full, dropping [%v]", cmd)
	}
}

func (c *clientConnection) Drop() {
	c.closer.Do(func() {
		close(c.closed)
		c.raw.Close()
	})
}

func (c *clientConnection) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

// Drains the outbound queue onto the wire.  The queue absorbs transport
// backpressure so Send never blocks; a failed transmit drops the
// connection and the queue's remains die with it.
func (c *clientConnection) writePump() {
	enc := gob.NewEncoder(c.raw)
	for {
		select {
		case <-c.closed:
			return
		case cmd := <-c.tx:
			if err := enc.Encode(&cmd); err != nil {
				if !c.isClosed() {
					c.logger.Debug("Transmit failed [%v]: %v", cmd, err)
				}
				c.Drop()
				return
			}
		}
	}
}

// Decodes replies off the raw connection and hands them to the processor.
// Exits on drop or on the first decode failure.
func (c *clientConnection) readPump() {
	dec := gob.NewDecoder(c.raw)
	for {
		var reply wire.Reply
		if err := dec.Decode(&reply); err != nil {
			if !c.isClosed() {
				c.logger.Debug("Reply stream terminated: %v", err)
			}
			return
		}

		if c.isClosed() {
			return
		}

		c.proc.Dispatch(reply)
	}
}
