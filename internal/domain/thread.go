package domain

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// Thread is the persistent identity of one conversation: an opaque id,
// the persona it targets, and its ordered message log. A thread is
// owned by exactly one session engine at a time.
type Thread struct {
	ID        string    `json:"id"`
	Persona   Persona   `json:"persona"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewThreadID generates a fresh, collision-free thread id. ULIDs are
// lexicographically sortable by creation time, which keeps directory
// listings cheap to order.
func NewThreadID() string {
	return ulid.Make().String()
}

// Summary is a read-only projection of a thread used by the directory
// cache. It is always replaced wholesale on refresh, never patched.
type Summary struct {
	ThreadID     string    `json:"threadId"`
	Persona      Persona   `json:"persona"`
	MessageCount int       `json:"messageCount"`
	Preview      string    `json:"preview"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
