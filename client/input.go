package client

import (
	"io"
	"sync"

	"github.com/pkg/errors"
	"github.com/pkopriv2/seglog/common"
	"github.com/pkopriv2/seglog/concurrent"
	"github.com/pkopriv2/seglog/net"
	"github.com/pkopriv2/seglog/wire"
)

// A sequential reader over a segment.  Fetches chunks on demand and
// serves Read calls out of the current chunk.  The stream tolerates one
// transport failure per read by re-dialing and resuming from the current
// read offset; a second failure surfaces.
//
// A sealed segment does not fail reads: existing data drains normally and
// the stream ends with io.EOF.
type inputStream struct {
	lock sync.Mutex // serializes readers

	logger    common.Logger
	factory   net.ConnectionFactory
	endpoint  net.Endpoint
	segment   string
	fetchSize int

	// sync guards everything below against the reply pump
	sync    sync.Mutex
	conn    net.ClientConnection
	proc    *wire.ReplyProcessor
	pending *fetch
	buf     []byte
	offset  int64
	eof     bool
	closed  bool
}

// One outstanding chunk request.
type fetch struct {
	done *concurrent.Completion
	data []byte
	end  bool
}

func newInputStream(ctx common.Context, factory net.ConnectionFactory, endpoint net.Endpoint, segment string) *inputStream {
	s := &inputStream{
		logger:    ctx.Logger().Fmt("Input(%v)", segment),
		factory:   factory,
		endpoint:  endpoint,
		segment:   segment,
		fetchSize: ctx.Config().OptionalInt(confInputFetchSize, defaultInputFetchSize)}

	proc := wire.NewFailingReplyProcessor(s.onViolation)
	proc.SegmentRead = s.onSegmentRead
	proc.NoSuchSegment = s.onNoSuchSegment
	proc.SegmentIsSealed = s.onSegmentIsSealed
	s.proc = proc
	return s
}

func (s *inputStream) Read(p []byte) (int, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	for {
		s.sync.Lock()
		if s.closed {
			s.sync.Unlock()
			return 0, ClosedError
		}
		if len(s.buf) > 0 {
			n := copy(p, s.buf)
			s.buf = s.buf[n:]
			s.sync.Unlock()
			return n, nil
		}
		if s.eof {
			s.sync.Unlock()
			return 0, io.EOF
		}
		s.sync.Unlock()

		if err := s.fill(); err != nil {
			return 0, extractError(err)
		}
	}
}

func (s *inputStream) Close() error {
	s.sync.Lock()
	if s.closed {
		s.sync.Unlock()
		return nil
	}
	s.closed = true
	conn := s.conn
	s.conn = nil
	pending := s.pending
	s.pending = nil
	s.sync.Unlock()

	if pending != nil {
		pending.done.Fail(ClosedError)
	}
	if conn != nil {
		conn.Drop()
	}

	return nil
}

// Requests the next chunk and blocks for its arrival.  Retries a
// transport failure once over a fresh connection.
func (s *inputStream) fill() (err error) {
	for attempt := 0; attempt < 2; attempt++ {
		if attempt > 0 {
			s.logger.Info("Fetch failed, re-dialing: %v", err)
		}

		var conn net.ClientConnection
		if conn, err = s.connection(); err != nil {
			continue
		}

		f := &fetch{done: concurrent.NewCompletion()}

		s.sync.Lock()
		if s.closed {
			s.sync.Unlock()
			return ClosedError
		}
		offset := s.offset
		s.pending = f
		s.sync.Unlock()

		if err = conn.Send(wire.ReadSegment{Segment: s.segment, Offset: offset, Count: s.fetchSize}); err != nil {
			s.drop()
			continue
		}

		if err = f.done.Await(); err != nil {
			if !recoverable(err) {
				return err
			}

			s.drop()
			continue
		}

		// an empty chunk means the reader caught up with the segment
		// tail; the stream reports io.EOF rather than busy-polling.
		s.sync.Lock()
		s.buf = f.data
		s.offset += int64(len(f.data))
		s.eof = f.end || len(f.data) == 0
		s.sync.Unlock()
		return nil
	}

	return err
}

func (s *inputStream) connection() (net.ClientConnection, error) {
	s.sync.Lock()
	if s.conn != nil {
		defer s.sync.Unlock()
		return s.conn, nil
	}
	s.sync.Unlock()

	conn, err := s.factory.Establish(s.endpoint, s.proc)
	if err != nil {
		return nil, err
	}

	s.sync.Lock()
	if s.closed {
		s.sync.Unlock()
		conn.Drop()
		return nil, ClosedError
	}
	s.conn = conn
	s.sync.Unlock()
	return conn, nil
}

func (s *inputStream) drop() {
	s.sync.Lock()
	conn := s.conn
	s.conn = nil
	s.pending = nil
	s.sync.Unlock()

	if conn != nil {
		conn.Drop()
	}
}

// ** reply handlers: transport-owned goroutine **

func (s *inputStream) onSegmentRead(r wire.SegmentRead) {
	s.sync.Lock()
	pending := s.pending
	s.pending = nil
	s.sync.Unlock()

	if pending == nil {
		return
	}

	pending.data = r.Data
	pending.end = r.EndOfSegment
	pending.done.Complete()
}

func (s *inputStream) onNoSuchSegment(r wire.NoSuchSegment) {
	s.fail(errors.Wrapf(InvalidArgumentError, "%v", r))
}

// A seal terminates the stream at the end of the data; an outstanding
// fetch resolves empty.
func (s *inputStream) onSegmentIsSealed(r wire.SegmentIsSealed) {
	s.sync.Lock()
	s.eof = true
	pending := s.pending
	s.pending = nil
	s.sync.Unlock()

	if pending != nil {
		pending.end = true
		pending.done.Complete()
	}
}

func (s *inputStream) onViolation(r wire.Reply) {
	s.logger.Error("Unexpected reply: %v", r)
	s.fail(errors.Wrapf(ProtocolError, "Unexpected reply [%v]", r))
}

func (s *inputStream) fail(cause error) {
	s.sync.Lock()
	pending := s.pending
	s.pending = nil
	s.sync.Unlock()

	if pending != nil {
		pending.done.Fail(cause)
	}
}
