package net

import (
	gonet "net"
	"sync"
)

// Implements a simple memory based connection environment.  This is mostly
// intended for testing, but is exposed publicly for general use when
// necessary.  Listeners rendezvous with dialers by endpoint.
type MemNetwork struct {
	lock      sync.Mutex
	listeners map[string]*memListener
}

func NewMemNetwork() *MemNetwork {
	return &MemNetwork{listeners: make(map[string]*memListener)}
}

func (m *MemNetwork) Listen(endpoint Endpoint) (Listener, error) {
	m.lock.Lock()
	defer m.lock.Unlock()
	if _, ok := m.listeners[endpoint.String()]; ok {
		return nil, ListenerClosedError
	}

	l := &memListener{
		network:  m,
		endpoint: endpoint,
		accept:   make(chan Connection),
		closed:   make(chan struct{})}

	m.listeners[endpoint.String()] = l
	return l, nil
}

func (m *MemNetwork) Dial(endpoint Endpoint) (Connection, error) {
	m.lock.Lock()
	l, ok := m.listeners[endpoint.String()]
	m.lock.Unlock()
	if !ok {
		return nil, ConnectionClosedError
	}

	local, remote := gonet.Pipe()

	select {
	case <-l.closed:
		local.Close()
		remote.Close()
		return nil, ConnectionClosedError
	case l.accept <- &memConnection{remote}:
	}

	return &memConnection{local}, nil
}

func (m *MemNetwork) remove(endpoint Endpoint) {
	m.lock.Lock()
	defer m.lock.Unlock()
	delete(m.listeners, endpoint.String())
}

type memListener struct {
	network  *MemNetwork
	endpoint Endpoint
	accept   chan Connection
	closed   chan struct{}
	closer   sync.Once
}

func (l *memListener) Accept() (Connection, error) {
	select {
	case <-l.closed:
		return nil, ListenerClosedError
	case conn := <-l.accept:
		return conn, nil
	}
}

func (l *memListener) Close() error {
	l.closer.Do(func() {
		close(l.closed)
		l.network.remove(l.endpoint)
	})
	return nil
}

type memConnection struct {
	raw gonet.Conn
}

func (m *memConnection) Read(p []byte) (int, error) {
	return m.raw.Read(p)
}

func (m *memConnection) Write(p []byte) (int, error) {
	return m.raw.Write(p)
}

func (m *memConnection) Close() error {
	return m.raw.Close()
}
