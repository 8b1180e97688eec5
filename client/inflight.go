package client

import (
	"sync"

	"github.com/emirpasic/gods/maps/treemap"
	"github.com/emirpasic/gods/utils"
	"github.com/pkopriv2/seglog/concurrent"
	"github.com/pkopriv2/seglog/wire"
	uuid "github.com/satori/go.uuid"
)

// The in-flight ledger: an ordered map from connection offset to the
// un-acknowledged append at that offset.  The ledger is the suffix of the
// writer's payload stream the server has not yet committed; emptiness is
// equivalent to "all prior writes durable".
//
// The ledger owns its payloads until they are acked, so a reconnect can
// always retransmit a consistent snapshot.  Completions are drained out
// of the ledger under its lock but settled by the caller outside it.
//
// *This object is thread safe.*
type inflight struct {
	lock        sync.Mutex
	writerId    uuid.UUID
	log         *treemap.Map
	empty       *concurrent.Latch
	writeOffset int64
}

type pendingAppend struct {
	data  []byte
	dones []*concurrent.Completion
}

func newInflight(writerId uuid.UUID) *inflight {
	return &inflight{
		writerId: writerId,
		log:      treemap.NewWith(utils.Int64Comparator),
		empty:    concurrent.NewLatch(true)}
}

// Assigns the next connection offset to the payload, records the append,
// and returns the command to send.  The offset advances by len(data); a
// zero-length payload keeps the current offset, piggybacking on the entry
// already there if one exists.
func (i *inflight) Append(data []byte, done *concurrent.Completion) wire.AppendData {
	i.lock.Lock()
	defer i.lock.Unlock()

	i.writeOffset += int64(len(data))
	i.empty.Reset()

	if cur, ok := i.log.Get(i.writeOffset); ok {
		pending := cur.(*pendingAppend)
		pending.dones = append(pending.dones, done)
	} else {
		i.log.Put(i.writeOffset, &pendingAppend{data: data, dones: []*concurrent.Completion{done}})
	}

	return wire.AppendData{WriterId: i.writerId, ConnectionOffset: i.writeOffset, Data: data}
}

// Drains every entry with offset <= level off the head of the ledger and
// returns the drained completions.  Raises the empty signal if the drain
// leaves the ledger empty.
func (i *inflight) AckUpTo(level int64) []*concurrent.Completion {
	i.lock.Lock()
	defer i.lock.Unlock()

	var acked []*concurrent.Completion
	for {
		k, v := i.log.Min()
		if k == nil || k.(int64) > level {
			break
		}

		acked = append(acked, v.(*pendingAppend).dones...)
		i.log.Remove(k)
	}

	if i.log.Empty() {
		i.empty.Release()
	}

	return acked
}

// Returns a consistent ascending copy of the ledger for retransmission.
func (i *inflight) Snapshot() []wire.AppendData {
	i.lock.Lock()
	defer i.lock.Unlock()

	ret := make([]wire.AppendData, 0, i.log.Size())
	for it := i.log.Iterator(); it.Next(); {
		ret = append(ret, wire.AppendData{
			WriterId:         i.writerId,
			ConnectionOffset: it.Key().(int64),
			Data:             it.Value().(*pendingAppend).data})
	}

	return ret
}

// Fails every outstanding completion with the cause and clears the
// ledger.  Used on terminal failures (sealed, invalid segment).
func (i *inflight) FailAll(cause error) {
	i.lock.Lock()
	var failed []*concurrent.Completion
	for it := i.log.Iterator(); it.Next(); {
		failed = append(failed, it.Value().(*pendingAppend).dones...)
	}
	i.log.Clear()
	i.empty.Release()
	i.lock.Unlock()

	for _, done := range failed {
		done.Fail(cause)
	}
}

// Blocks until the ledger is empty.  The empty signal is sticky until the
// next append.
func (i *inflight) AwaitEmpty() {
	i.empty.Wait()
}

func (i *inflight) Size() int {
	i.lock.Lock()
	defer i.lock.Unlock()
	return i.log.Size()
}
