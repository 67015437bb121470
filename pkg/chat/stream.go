package chat

// StreamEventKind tags a StreamEvent.
type StreamEventKind string

const (
	StreamChunk     StreamEventKind = "chunk"
	StreamNoContext StreamEventKind = "no_context_found"
	StreamComplete  StreamEventKind = "complete"
	StreamCancelled StreamEventKind = "cancelled"
	StreamError     StreamEventKind = "error"
)

// StreamEvent is one element of a request's output stream. Exactly one
// terminal event (Complete, Cancelled or Error) is produced per request;
// zero or more Chunk events precede it. NoContext precedes generation and
// does not terminate the request.
type StreamEvent struct {
	Kind     StreamEventKind
	Seq      int    // chunk ordinal, 0-based
	Chunk    string // chunk payload
	FullText string // complete response, set on Complete
	Err      string // failure message, set on Error
}

func ChunkEvent(seq int, text string) StreamEvent {
	return StreamEvent{Kind: StreamChunk, Seq: seq, Chunk: text}
}

func NoContextEvent() StreamEvent {
	return StreamEvent{Kind: StreamNoContext}
}

func CompleteEvent(fullText string) StreamEvent {
	return StreamEvent{Kind: StreamComplete, FullText: fullText}
}

func CancelledEvent() StreamEvent {
	return StreamEvent{Kind: StreamCancelled}
}

func ErrorEvent(message string) StreamEvent {
	return StreamEvent{Kind: StreamError, Err: message}
}

// Terminal reports whether the event ends the request's stream.
func (e StreamEvent) Terminal() bool {
	return e.Kind == StreamComplete || e.Kind == StreamCancelled || e.Kind == StreamError
}
