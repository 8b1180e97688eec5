package client

import (
	"time"

	"github.com/pkg/errors"
	"github.com/pkopriv2/seglog/common"
	"github.com/pkopriv2/seglog/concurrent"
	"github.com/pkopriv2/seglog/net"
	"github.com/pkopriv2/seglog/wire"
	uuid "github.com/satori/go.uuid"
)

type client struct {
	ctx           common.Context
	logger        common.Logger
	factory       net.ConnectionFactory
	endpoint      net.Endpoint
	createTimeout time.Duration
}

func newClient(ctx common.Context, factory net.ConnectionFactory, endpoint net.Endpoint) *client {
	return &client{
		ctx:           ctx,
		logger:        ctx.Logger().Fmt("Client(%v)", endpoint),
		factory:       factory,
		endpoint:      endpoint,
		createTimeout: ctx.Config().OptionalDuration(confCreateTimeout, defaultCreateTimeout)}
}

// Creates the segment over a one-shot connection: a single request, a
// single expected reply.
func (c *client) CreateSegment(name string) (bool, error) {
	done := concurrent.NewCompletion()

	var created bool
	proc := wire.NewFailingReplyProcessor(func(r wire.Reply) {
		done.Fail(errors.Wrapf(ProtocolError, "Unexpected reply [%v]", r))
	})
	proc.SegmentCreated = func(wire.SegmentCreated) {
		created = true
		done.Complete()
	}
	proc.SegmentAlreadyExists = func(wire.SegmentAlreadyExists) {
		created = false
		done.Complete()
	}
	proc.WrongHost = func(r wire.WrongHost) {
		done.Fail(errors.Wrapf(UnsupportedError, "%v", r))
	}

	conn, err := c.factory.Establish(c.endpoint, proc)
	if err != nil {
		return false, errors.Wrapf(err, "Unable to create segment [%v]", name)
	}
	defer conn.Drop()

	if err := conn.Send(wire.CreateSegment{Segment: name}); err != nil {
		return false, errors.Wrapf(err, "Unable to create segment [%v]", name)
	}

	if err := concurrent.AwaitTimeout(done, c.createTimeout); err != nil {
		if concurrent.IsTimeoutError(err) {
			return false, errors.Wrapf(TimeoutError, "Timed out creating segment [%v]", name)
		}

		return false, extractError(err)
	}

	return created, nil
}

// Requires a probe reply the consumed wire set does not carry.
func (c *client) SegmentExists(name string) (bool, error) {
	return false, errors.Wrap(UnsupportedError, "SegmentExists is not implemented")
}

func (c *client) OpenOutput(name string) (OutputStream, error) {
	stream := newOutputStream(c.ctx, c.factory, c.endpoint, name)
	if err := stream.start(); err != nil {
		c.logger.Info("Initial connection attempt failed.  Suppressing: %v", err)
	}

	return stream, nil
}

func (c *client) OpenInput(name string) (InputStream, error) {
	return newInputStream(c.ctx, c.factory, c.endpoint, name), nil
}

func (c *client) OpenTransaction(name string, txId uuid.UUID) (OutputStream, error) {
	return nil, errors.Wrap(UnsupportedError, "Transactional appends are not implemented")
}
