// Package client implements the append path to a segment store: a thin
// facade for creating segments plus streaming append and sequential read
// over a single segment.
//
// The central abstraction is the output stream.  A stream owns one writer
// id and one segment and turns an unreliable request/response transport
// into an ordered, at-most-once append channel.  The fundamental laws of
// output streams are as follows:
//
//   - Every append is assigned a connection offset (the cumulative byte
//     count of the writer's payload stream) at enqueue time, before it is
//     ever sent.  Offsets are never reused within a writer's lifetime.
//
//   - Un-acknowledged appends live in an ordered in-flight ledger.  On
//     every reconnect the entire ledger is retransmitted with the original
//     (writer id, offset, payload) tuples; the server deduplicates on
//     (writer id, offset), so retransmission is always safe.
//
//   - Acks are monotone.  An ack at level L durably commits every append
//     with offset <= L.
//
// The stream implements the following state machine:
//
//	fresh-->connecting-->handshaking-->ready<-->reconnecting
//	            |            |           |           |
//	            |----------->|---------->|---------->|----->sealed|closed
//
// Public operations of a single stream are serialized by an internal
// monitor.  Replies are processed on a transport-owned goroutine and
// touch only the ledger and the connection state, both internally
// synchronized.
package client

import (
	"io"
	"time"

	"github.com/pkg/errors"
	"github.com/pkopriv2/seglog/common"
	"github.com/pkopriv2/seglog/concurrent"
	"github.com/pkopriv2/seglog/net"
	uuid "github.com/satori/go.uuid"
)

// Core api errors
var (
	ClosedError          = errors.New("SegLog:ClosedError")
	SealedError          = errors.New("SegLog:SealedError")
	InvalidArgumentError = errors.New("SegLog:InvalidArgumentError")
	UnavailableError     = errors.New("SegLog:UnavailableError")
	UnsupportedError     = errors.New("SegLog:UnsupportedError")
	ProtocolError        = errors.New("SegLog:ProtocolError")
	TimeoutError         = errors.New("SegLog:TimeoutError")
)

// A client is the entry point to a segment store host.  It creates
// segments and opens streams over them.  The client itself is stateless;
// every stream owns its own connection.
type Client interface {

	// Creates the named segment.  Returns true if this call created it,
	// false if it already existed.
	CreateSegment(name string) (bool, error)

	// Probes for the named segment.  Not supported by the current wire
	// set; fails with UnsupportedError.
	SegmentExists(name string) (bool, error)

	// Opens the named segment for streaming append.  The stream owns a
	// freshly minted writer id.  An initial connection failure is
	// suppressed and deferred to the first write.
	OpenOutput(name string) (OutputStream, error)

	// Opens the named segment for sequential reading.
	OpenInput(name string) (InputStream, error)

	// Opens a transactional append stream.  Fails with UnsupportedError.
	OpenTransaction(name string, txId uuid.UUID) (OutputStream, error)
}

// A single-segment append channel with durable ordering.
type OutputStream interface {
	io.Closer

	// Enqueues the payload and sends it once.  The call returns as soon
	// as the append has been enqueued and transmitted; durability is
	// signaled through done, which resolves when the server acknowledges
	// the append's offset, or fails with SealedError or
	// InvalidArgumentError.
	Write(payload []byte, done *concurrent.Completion) error

	// Blocks until every previously enqueued append has been
	// acknowledged.  If the keep-alive cannot be sent, the connection is
	// failed and Flush returns nil without waiting; the appends stay in
	// the ledger and a later flush drains them.
	Flush() error

	// Seals the segment.  Not implemented in this version; fails with
	// UnsupportedError.
	Seal(timeout time.Duration) (int64, error)
}

// A sequential reader over a segment.  Not safe for concurrent readers.
type InputStream interface {
	io.Reader
	io.Closer
}

func NewClient(ctx common.Context, factory net.ConnectionFactory, endpoint net.Endpoint) Client {
	return newClient(ctx, factory, endpoint)
}

// Maps an arbitrary error chain onto the api taxonomy.  Wrapped causes
// are unwound to their sentinel; anything else passes through untouched.
func extractError(err error) error {
	if err == nil {
		return nil
	}

	cause := common.Extract(err, func(e error) bool {
		switch e {
		case ClosedError, SealedError, InvalidArgumentError,
			UnavailableError, UnsupportedError, ProtocolError, TimeoutError:
			return true
		}
		return false
	})

	if cause != nil {
		return cause
	}

	return err
}

// A recoverable failure drives reconnect; anything terminal propagates to
// the caller immediately.
func recoverable(err error) bool {
	switch extractError(err) {
	case SealedError, InvalidArgumentError, ClosedError, UnsupportedError, ProtocolError:
		return false
	}

	return true
}
