package net

import (
	"fmt"
	"io"

	"github.com/pkg/errors"
)

var (
	ConnectionClosedError = errors.New("CONN:CLOSED")
	ConnectionSendError   = errors.New("CONN:SEND")
	ListenerClosedError   = errors.New("CONN:LISTENER:CLOSED")
)

// A stable identifier of the host serving a segment.
type Endpoint struct {
	Host string
	Port int
}

func NewEndpoint(host string, port int) Endpoint {
	return Endpoint{host, port}
}

func (e Endpoint) String() string {
	return fmt.Sprintf("%v:%v", e.Host, e.Port)
}

// A connection is a full-duplex streaming abstraction.
//
// Implementations are expected to be thread-safe, with
// respect to concurrent reads and writes.
type Connection interface {
	io.Reader
	io.Writer
	io.Closer
}

// A network produces raw connections to endpoints.  In the event of
// failure, this allows streams to be recreated without leaking how they
// are generated.
type Network interface {
	Dial(endpoint Endpoint) (Connection, error)
}

// A simple listener abstraction.  This is the basis of standing up test
// servers against the client.
type Listener interface {
	io.Closer
	Accept() (Connection, error)
}
