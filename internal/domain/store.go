package domain

import (
	"context"
	"io"
)

// Store is the persistence collaborator. Read returns ErrNotFound for
// unknown thread ids. Write persists a full snapshot of the thread;
// partial updates are not supported. List returns bounded,
// recency-ordered summaries, optionally filtered by persona ("" means
// all personas).
//
// The interface lives in domain so the session engine depends only on
// the contract, never on a concrete backend.
type Store interface {
	Read(ctx context.Context, threadID string) (*Thread, error)
	Write(ctx context.Context, threadID string, persona Persona, messages []Message) error
	List(ctx context.Context, persona Persona, limit int) ([]Summary, error)
	Delete(ctx context.Context, threadID string) error
	Ping(ctx context.Context) error
	Close() error
}

// Request carries one prompt to the invocation collaborator.
type Request struct {
	Persona  Persona `json:"persona"`
	ThreadID string  `json:"threadId"`
	Prompt   string  `json:"prompt"`
}

// Invoker is the agent-invocation collaborator. Invoke performs a
// non-streaming round trip and returns one structured response.
// InvokeStream returns the raw line-framed body; the caller owns the
// ReadCloser and must release it on every exit path.
type Invoker interface {
	Invoke(ctx context.Context, req Request) (Response, error)
	InvokeStream(ctx context.Context, req Request) (io.ReadCloser, error)
}
