package client

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/pkopriv2/seglog/common"
	"github.com/pkopriv2/seglog/concurrent"
	"github.com/pkopriv2/seglog/net"
	"github.com/pkopriv2/seglog/wire"
	uuid "github.com/satori/go.uuid"
)

// The segment output stream.  Stitches the transport, the reply
// demultiplexer, the in-flight ledger, and the connection state into the
// append protocol: handshake, write, flush, retransmit, close, and
// sealed termination.
//
// Locking discipline: the stream monitor serializes public operations and
// is held for the whole of each one, including its sends and its waits on
// the setup latch and the ledger's empty signal.  The ledger and the
// connection state carry their own locks, taken briefly inside the
// monitor; neither is ever held across a transport call or a latch wait.
// Reply handlers never take the stream monitor.
type outputStream struct {
	lock sync.Mutex

	logger   common.Logger
	factory  net.ConnectionFactory
	endpoint net.Endpoint
	segment  string
	writerId uuid.UUID

	state    *connState
	inflight *inflight
	proc     *wire.ReplyProcessor
	stats    *outputStats

	attempts int
	delay    time.Duration

	closed    bool  // guarded by the stream monitor
	sealed    int32 // atomic; sticky once set
	keepAlive int64 // guarded by the stream monitor
}

func newOutputStream(ctx common.Context, factory net.ConnectionFactory, endpoint net.Endpoint, segment string) *outputStream {
	writerId := uuid.NewV4()

	s := &outputStream{
		logger:   ctx.Logger().Fmt("Output(%v, %v)", segment, writerId),
		factory:  factory,
		endpoint: endpoint,
		segment:  segment,
		writerId: writerId,
		state:    newConnState(),
		inflight: newInflight(writerId),
		stats:    newOutputStats(segment),
		attempts: ctx.Config().OptionalInt(confOutputConnectAttempts, defaultOutputConnectAttempts),
		delay:    ctx.Config().OptionalDuration(confOutputConnectDelay, defaultOutputConnectDelay)}

	proc := wire.NewFailingReplyProcessor(s.onViolation)
	proc.AppendSetup = s.onAppendSetup
	proc.DataAppended = s.onDataAppended
	proc.SegmentIsSealed = s.onSegmentIsSealed
	proc.NoSuchSegment = s.onNoSuchSegment
	proc.NoSuchBatch = s.onNoSuchBatch
	proc.WrongHost = s.onWrongHost
	s.proc = proc
	return s
}

// Attempts the initial connect.  Callers may suppress the error; the
// stream recovers on the first write.
func (s *outputStream) start() error {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.connect()
}

func (s *outputStream) Write(payload []byte, done *concurrent.Completion) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.closed {
		return ClosedError
	}
	if s.isSealed() {
		return SealedError
	}

	conn, err := s.connection()
	if err != nil {
		return extractError(err)
	}

	// the ledger entry must exist before the send: a send failure then
	// leaves retransmission to the reconnect handshake.
	cmd := s.inflight.Append(payload, done)
	s.stats.appendsSent.Inc(1)
	s.stats.bytesSent.Inc(int64(len(payload)))

	if err := conn.Send(cmd); err != nil {
		s.logger.Info("Send failed, reconnecting: %v", err)
		s.state.Fail(err)
		if _, err := s.connection(); err != nil {
			return extractError(err)
		}
	}

	return nil
}

func (s *outputStream) Flush() error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.closed {
		return ClosedError
	}

	return s.flush()
}

// Drains the ledger, marks the stream closed, and releases the
// connection.  The stream monitor is held throughout, so no write can
// slip in between the drain and the close.  Safe to call repeatedly.  A
// segment already sealed before the close drains nothing (the ledger was
// failed when the seal was observed); a seal first observed during the
// drain propagates after the connection is released.
func (s *outputStream) Close() error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.closed {
		return nil
	}

	var err error
	if !s.isSealed() {
		err = s.flush()
	}

	s.closed = true
	s.state.Fail(ClosedError)
	return err
}

func (s *outputStream) Seal(timeout time.Duration) (int64, error) {
	return 0, errors.Wrap(UnsupportedError, "Seal is not implemented")
}

// Sends a keep-alive to force out any pending acks, then blocks until the
// ledger drains.  A transport failure mid-flush is swallowed: the ledger
// still holds everything unacked, so a reconnect retransmits and the
// caller may simply flush again.
func (s *outputStream) flush() error {
	conn, err := s.connection()
	if err != nil {
		return extractError(err)
	}

	s.keepAlive++
	if err := conn.Send(wire.KeepAlive{Seq: s.keepAlive}); err != nil {
		s.logger.Info("Keep-alive failed: %v", err)
		s.state.Fail(err)
		return nil
	}

	s.inflight.AwaitEmpty()
	if s.isSealed() {
		return SealedError
	}

	return nil
}

// Establishes a connection if none is installed and starts the append
// handshake.  The setup latch stays low until the AppendSetup reply
// arrives.
func (s *outputStream) connect() error {
	if s.closed {
		return ClosedError
	}
	if s.isSealed() {
		return SealedError
	}
	if s.state.Current() != nil {
		return nil
	}

	conn, err := s.factory.Establish(s.endpoint, s.proc)
	if err != nil {
		return err
	}

	s.state.InstallNew(conn)
	s.stats.reconnects.Inc(1)

	if err := conn.Send(wire.SetupAppend{WriterId: s.writerId, Segment: s.segment}); err != nil {
		s.state.Fail(err)
		return err
	}

	return nil
}

// Ensure-ready: connects and awaits the handshake, retrying transport
// failures with exponentially growing delays.  Terminal failures (sealed,
// invalid segment, closed) propagate immediately.
func (s *outputStream) connection() (net.ClientConnection, error) {
	delay := s.delay
	for attempt := 0; attempt < s.attempts; attempt++ {
		if attempt > 0 {
			time.Sleep(delay)
			delay *= connectDelayFactor
		}

		if err := s.connect(); err != nil {
			if !recoverable(err) {
				return nil, err
			}

			s.logger.Info("Connection attempt [%v] failed: %v", attempt, err)
			s.state.Fail(err)
			continue
		}

		conn, err := s.state.AwaitReady()
		if err == nil {
			return conn, nil
		}
		if !recoverable(err) {
			return nil, err
		}

		s.logger.Info("Connection attempt [%v] failed: %v", attempt, err)
		s.state.Fail(err)
	}

	return nil, errors.Wrapf(UnavailableError, "Unable to connect to [%v].  Giving up", s.endpoint)
}

func (s *outputStream) isSealed() bool {
	return atomic.LoadInt32(&s.sealed) == 1
}

// ** reply handlers: transport-owned goroutine **

// Ack + retransmit + mark ready.  The server's reported ack level on a
// fresh handshake drains whatever committed while we were away; the rest
// of the ledger is resent with its original offsets.
func (s *outputStream) onAppendSetup(setup wire.AppendSetup) {
	s.ackUpTo(setup.AckLevel)

	conn := s.state.Current()
	if conn == nil {
		return
	}

	for _, cmd := range s.inflight.Snapshot() {
		if err := conn.Send(cmd); err != nil {
			s.logger.Info("Retransmit failed: %v", err)
			s.state.Fail(err)
			return
		}
		s.stats.retransmits.Inc(1)
	}

	s.state.MarkReady()
}

func (s *outputStream) onDataAppended(ack wire.DataAppended) {
	s.ackUpTo(ack.ConnectionOffset)
}

func (s *outputStream) onSegmentIsSealed(r wire.SegmentIsSealed) {
	s.logger.Info("Segment sealed by server")
	atomic.StoreInt32(&s.sealed, 1)
	s.state.Fail(SealedError)
	s.inflight.FailAll(SealedError)
}

func (s *outputStream) onNoSuchSegment(r wire.NoSuchSegment) {
	err := errors.Wrapf(InvalidArgumentError, "%v", r)
	s.state.Fail(err)
	s.inflight.FailAll(err)
}

func (s *outputStream) onNoSuchBatch(r wire.NoSuchBatch) {
	err := errors.Wrapf(InvalidArgumentError, "%v", r)
	s.state.Fail(err)
	s.inflight.FailAll(err)
}

// No redirect in this version; the failure is treated as a broken
// connection.
func (s *outputStream) onWrongHost(r wire.WrongHost) {
	s.logger.Error("Server reports wrong host: %v", r)
	s.state.Fail(errors.Wrapf(net.ConnectionClosedError, "%v", r))
}

func (s *outputStream) onViolation(r wire.Reply) {
	s.logger.Error("Unexpected reply: %v", r)
	s.state.Fail(errors.Wrapf(ProtocolError, "Unexpected reply [%v]", r))
}

func (s *outputStream) ackUpTo(level int64) {
	for _, done := range s.inflight.AckUpTo(level) {
		done.Complete()
		s.stats.appendsAcked.Inc(1)
	}
}
