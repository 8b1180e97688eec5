package client

import (
	"encoding/gob"
	"sync"

	"github.com/pkopriv2/seglog/net"
	"github.com/pkopriv2/seglog/wire"
	uuid "github.com/satori/go.uuid"
)

// A minimal segment store speaking the client's wire protocol over the
// in-memory network.  Acks eagerly and deduplicates appends on
// (writer id, connection offset) the way the real store does.
type testServer struct {
	lock     sync.Mutex
	listener net.Listener
	segments map[string]*testSegment
}

type testSegment struct {
	data   []byte
	sealed bool
	acked  map[uuid.UUID]int64
}

func newTestServer(network *net.MemNetwork, endpoint net.Endpoint) (*testServer, error) {
	listener, err := network.Listen(endpoint)
	if err != nil {
		return nil, err
	}

	s := &testServer{listener: listener, segments: make(map[string]*testSegment)}
	go s.run()
	return s, nil
}

func (s *testServer) Close() error {
	return s.listener.Close()
}

func (s *testServer) Seal(name string) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if segment, ok := s.segments[name]; ok {
		segment.sealed = true
	}
}

func (s *testServer) Data(name string) []byte {
	s.lock.Lock()
	defer s.lock.Unlock()
	if segment, ok := s.segments[name]; ok {
		return append([]byte{}, segment.data...)
	}
	return nil
}

func (s *testServer) run() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return
		}

		go s.handle(conn)
	}
}

func (s *testServer) handle(conn net.Connection) {
	defer conn.Close()

	dec := gob.NewDecoder(conn)
	enc := gob.NewEncoder(conn)
	for {
		var req wire.Request
		if err := dec.Decode(&req); err != nil {
			return
		}

		for _, reply := range s.process(req) {
			if err := enc.Encode(&reply); err != nil {
				return
			}
		}
	}
}

func (s *testServer) process(req wire.Request) []wire.Reply {
	s.lock.Lock()
	defer s.lock.Unlock()

	switch cmd := req.(type) {
	case wire.CreateSegment:
		if _, ok := s.segments[cmd.Segment]; ok {
			return []wire.Reply{wire.SegmentAlreadyExists{Segment: cmd.Segment}}
		}

		s.segments[cmd.Segment] = &testSegment{acked: make(map[uuid.UUID]int64)}
		return []wire.Reply{wire.SegmentCreated{Segment: cmd.Segment}}

	case wire.SetupAppend:
		segment, ok := s.segments[cmd.Segment]
		if !ok {
			return []wire.Reply{wire.NoSuchSegment{Segment: cmd.Segment}}
		}

		if _, ok := segment.acked[cmd.WriterId]; !ok {
			segment.acked[cmd.WriterId] = 0
		}

		return []wire.Reply{wire.AppendSetup{
			WriterId: cmd.WriterId,
			Segment:  cmd.Segment,
			AckLevel: segment.acked[cmd.WriterId]}}

	case wire.AppendData:
		for _, segment := range s.segments {
			if acked, ok := segment.acked[cmd.WriterId]; ok {
				if segment.sealed {
					return []wire.Reply{wire.SegmentIsSealed{}}
				}

				if cmd.ConnectionOffset > acked {
					segment.data = append(segment.data, cmd.Data...)
					segment.acked[cmd.WriterId] = cmd.ConnectionOffset
				}

				return []wire.Reply{wire.DataAppended{
					WriterId:         cmd.WriterId,
					ConnectionOffset: segment.acked[cmd.WriterId]}}
			}
		}

		return []wire.Reply{wire.NoSuchBatch{}}

	case wire.KeepAlive:
		return nil

	case wire.ReadSegment:
		segment, ok := s.segments[cmd.Segment]
		if !ok {
			return []wire.Reply{wire.NoSuchSegment{Segment: cmd.Segment}}
		}

		data := segment.data
		if cmd.Offset > int64(len(data)) {
			return []wire.Reply{wire.SegmentRead{Segment: cmd.Segment, Offset: cmd.Offset, EndOfSegment: true}}
		}

		end := cmd.Offset + int64(cmd.Count)
		if end > int64(len(data)) {
			end = int64(len(data))
		}

		chunk := append([]byte{}, data[cmd.Offset:end]...)
		return []wire.Reply{wire.SegmentRead{
			Segment:      cmd.Segment,
			Offset:       cmd.Offset,
			Data:         chunk,
			EndOfSegment: end >= int64(len(data))}}
	}

	return nil
}
