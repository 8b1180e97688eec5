package wire

// A reply processor is the demultiplexer for a connection's reply stream:
// one handler per reply variant.  The transport dispatches every decoded
// reply through it, in server-send order, on a transport-owned goroutine.
//
// Consumers build one with NewFailingReplyProcessor and overwrite only the
// variants they expect; everything else lands on the violation handler.
type ReplyProcessor struct {
	WrongHost            func(WrongHost)
	SegmentIsSealed      func(SegmentIsSealed)
	NoSuchSegment        func(NoSuchSegment)
	NoSuchBatch          func(NoSuchBatch)
	SegmentAlreadyExists func(SegmentAlreadyExists)
	SegmentCreated       func(SegmentCreated)
	AppendSetup          func(AppendSetup)
	DataAppended         func(DataAppended)
	SegmentRead          func(SegmentRead)

	violation func(Reply)
}

// Returns a processor whose every handler invokes fail with the offending
// reply.  An unhandled reply variant is a protocol violation; fail decides
// how the enclosing operation dies.
func NewFailingReplyProcessor(fail func(Reply)) *ReplyProcessor {
	return &ReplyProcessor{
		WrongHost:            func(r WrongHost) { fail(r) },
		SegmentIsSealed:      func(r SegmentIsSealed) { fail(r) },
		NoSuchSegment:        func(r NoSuchSegment) { fail(r) },
		NoSuchBatch:          func(r NoSuchBatch) { fail(r) },
		SegmentAlreadyExists: func(r SegmentAlreadyExists) { fail(r) },
		SegmentCreated:       func(r SegmentCreated) { fail(r) },
		AppendSetup:          func(r AppendSetup) { fail(r) },
		DataAppended:         func(r DataAppended) { fail(r) },
		SegmentRead:          func(r SegmentRead) { fail(r) },
		violation:            fail}
}

// Routes the reply to its variant handler.
func (p *ReplyProcessor) Dispatch(reply Reply) {
	switch r := reply.(type) {
	case WrongHost:
		p.WrongHost(r)
	case SegmentIsSealed:
		p.SegmentIsSealed(r)
	case NoSuchSegment:
		p.NoSuchSegment(r)
	case NoSuchBatch:
		p.NoSuchBatch(r)
	case SegmentAlreadyExists:
		p.SegmentAlreadyExists(r)
	case SegmentCreated:
		p.SegmentCreated(r)
	case AppendSetup:
		p.AppendSetup(r)
	case DataAppended:
		p.DataAppended(r)
	case SegmentRead:
		p.SegmentRead(r)
	default:
		if p.violation != nil {
			p.violation(reply)
		}
	}
}
