// Package wire defines the typed commands exchanged with the segment
// store.  Commands are split into requests (client to server) and replies
// (server to client).  The concrete encoding is owned by the transport;
// every type here registers with gob so connections can move them as
// interface values.
package wire

import (
	"encoding/gob"
	"fmt"

	uuid "github.com/satori/go.uuid"
)

// Marker for commands sent by the client.
type Request interface {
	request()
}

// Marker for commands sent by the server.
type Reply interface {
	reply()
}

// Requests a new segment with the given name.
type CreateSegment struct {
	Segment string
}

// Announces a writer on a connection.  The server responds with an
// AppendSetup carrying the writer's current ack level.
type SetupAppend struct {
	WriterId uuid.UUID
	Segment  string
}

// Appends Data to the writer's payload stream.  ConnectionOffset is the
// cumulative byte count of the stream after this append; the server
// deduplicates on (WriterId, ConnectionOffset).
type AppendData struct {
	WriterId         uuid.UUID
	ConnectionOffset int64
	Data             []byte
}

// Prods the server to flush any pending acks.
type KeepAlive struct {
	Seq int64
}

// Requests up to Count bytes of segment data starting at Offset.
type ReadSegment struct {
	Segment string
	Offset  int64
	Count   int
}

func (CreateSegment) request() {}
func (SetupAppend) request()   {}
func (AppendData) request()    {}
func (KeepAlive) request()     {}
func (ReadSegment) request()   {}

func (c CreateSegment) String() string {
	return fmt.Sprintf("CreateSegment(%v)", c.Segment)
}

func (c SetupAppend) String() string {
	return fmt.Sprintf("SetupAppend(writer=%v, segment=%v)", c.WriterId, c.Segment)
}

func (c AppendData) String() string {
	return fmt.Sprintf("AppendData(writer=%v, offset=%v, size=%v)", c.WriterId, c.ConnectionOffset, len(c.Data))
}

func (c KeepAlive) String() string {
	return "KeepAlive"
}

func (c ReadSegment) String() string {
	return fmt.Sprintf("ReadSegment(segment=%v, offset=%v, count=%v)", c.Segment, c.Offset, c.Count)
}

type SegmentCreated struct {
	Segment string
}

type SegmentAlreadyExists struct {
	Segment string
}

// Completes a SetupAppend.  AckLevel is the highest connection offset the
// server has durably committed for this writer.
type AppendSetup struct {
	WriterId uuid.UUID
	Segment  string
	AckLevel int64
}

// Acknowledges every append at or below ConnectionOffset.
type DataAppended struct {
	WriterId         uuid.UUID
	ConnectionOffset int64
}

type SegmentIsSealed struct {
	Segment string
}

type NoSuchSegment struct {
	Segment string
}

type NoSuchBatch struct {
	Batch string
}

// The segment lives on another host.  This version of the client does not
// follow the redirect.
type WrongHost struct {
	Segment     string
	CorrectHost string
}

// Carries segment data for a ReadSegment request.  EndOfSegment indicates
// no data exists past Offset+len(Data).
type SegmentRead struct {
	Segment      string
	Offset       int64
	Data         []byte
	EndOfSegment bool
}

func (SegmentCreated) reply()       {}
func (SegmentAlreadyExists) reply() {}
func (AppendSetup) reply()          {}
func (DataAppended) reply()         {}
func (SegmentIsSealed) reply()      {}
func (NoSuchSegment) reply()        {}
func (NoSuchBatch) reply()          {}
func (WrongHost) reply()            {}
func (SegmentRead) reply()          {}

func (r SegmentCreated) String() string {
	return fmt.Sprintf("SegmentCreated(%v)", r.Segment)
}

func (r SegmentAlreadyExists) String() string {
	return fmt.Sprintf("SegmentAlreadyExists(%v)", r.Segment)
}

func (r AppendSetup) String() string {
	return fmt.Sprintf("AppendSetup(writer=%v, segment=%v, ackLevel=%v)", r.WriterId, r.Segment, r.AckLevel)
}

func (r DataAppended) String() string {
	return fmt.Sprintf("DataAppended(writer=%v, offset=%v)", r.WriterId, r.ConnectionOffset)
}

func (r SegmentIsSealed) String() string {
	return fmt.Sprintf("SegmentIsSealed(%v)", r.Segment)
}

func (r NoSuchSegment) String() string {
	return fmt.Sprintf("NoSuchSegment(%v)", r.Segment)
}

func (r NoSuchBatch) String() string {
	return fmt.Sprintf("NoSuchBatch(%v)", r.Batch)
}

func (r WrongHost) String() string {
	return fmt.Sprintf("WrongHost(segment=%v, correct=%v)", r.Segment, r.CorrectHost)
}

func (r SegmentRead) String() string {
	return fmt.Sprintf("SegmentRead(segment=%v, offset=%v, size=%v, end=%v)", r.Segment, r.Offset, len(r.Data), r.EndOfSegment)
}

func init() {
	gob.Register(CreateSegment{})
	gob.Register(SetupAppend{})
	gob.Register(AppendData{})
	gob.Register(KeepAlive{})
	gob.Register(ReadSegment{})

	gob.Register(SegmentCreated{})
	gob.Register(SegmentAlreadyExists{})
	gob.Register(AppendSetup{})
	gob.Register(DataAppended{})
	gob.Register(SegmentIsSealed{})
	gob.Register(NoSuchSegment{})
	gob.Register(NoSuchBatch{})
	gob.Register(WrongHost{})
	gob.Register(SegmentRead{})
}
