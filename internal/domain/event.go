package domain

// StreamEvent is one decoded frame from a streaming invocation. The
// struct doubles as the wire record: a discriminated JSON object with a
// "type" field, where each variant populates its own payload field.
type StreamEvent struct {
	Type     StreamEventType `json:"type"`
	Persona  Persona         `json:"persona,omitempty"`  // start
	Text     string          `json:"text,omitempty"`     // chunk
	ThreadID string          `json:"threadId,omitempty"` // done
	Message  string          `json:"message,omitempty"`  // error
}

type StreamEventType string

const (
	StreamEventStart StreamEventType = "start"
	StreamEventChunk StreamEventType = "chunk"
	StreamEventDone  StreamEventType = "done"
	StreamEventError StreamEventType = "error"
)

// KnownStreamEventType reports whether t is a recognized frame type.
// Frames carrying unknown types are skipped by the decoder.
func KnownStreamEventType(t StreamEventType) bool {
	switch t {
	case StreamEventStart, StreamEventChunk, StreamEventDone, StreamEventError:
		return true
	}
	return false
}
