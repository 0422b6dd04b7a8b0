// Package testutil provides common test helpers and mocks.
package testutil

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/parleyhq/parley/internal/domain"
)

// MockInvoker simulates the agent-invocation service. Responses are
// served in order; past the end it fails.
type MockInvoker struct {
	Responses []domain.Response
	Errs      []error
	Streams   []string // raw framed bodies for InvokeStream

	mu       sync.Mutex
	calls    int
	Requests []domain.Request
}

var _ domain.Invoker = (*MockInvoker)(nil)

func NewMockInvoker(responses ...domain.Response) *MockInvoker {
	return &MockInvoker{Responses: responses}
}

// Failing returns an invoker that rejects every call with message.
func Failing(message string) *MockInvoker {
	return &MockInvoker{Errs: []error{errors.New(message)}}
}

func (m *MockInvoker) next(req domain.Request) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	idx := m.calls
	m.calls++
	m.Requests = append(m.Requests, req)
	return idx
}

func (m *MockInvoker) Invoke(ctx context.Context, req domain.Request) (domain.Response, error) {
	idx := m.next(req)
	if idx < len(m.Errs) && m.Errs[idx] != nil {
		return nil, m.Errs[idx]
	}
	if idx < len(m.Responses) {
		return m.Responses[idx], nil
	}
	return nil, errors.New("mock invoker: no response configured")
}

func (m *MockInvoker) InvokeStream(ctx context.Context, req domain.Request) (io.ReadCloser, error) {
	idx := m.next(req)
	if idx < len(m.Errs) && m.Errs[idx] != nil {
		return nil, m.Errs[idx]
	}
	if idx < len(m.Streams) {
		return io.NopCloser(strings.NewReader(m.Streams[idx])), nil
	}
	return nil, errors.New("mock invoker: no stream configured")
}

func (m *MockInvoker) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// MockStore is an in-memory persistence collaborator.
type MockStore struct {
	mu      sync.Mutex
	threads map[string]*domain.Thread

	WriteErr   error
	WriteCalls []WriteCall
}

// WriteCall records one Write invocation for assertions.
type WriteCall struct {
	ThreadID string
	Persona  domain.Persona
	Messages []domain.Message
}

var _ domain.Store = (*MockStore)(nil)

func NewMockStore() *MockStore {
	return &MockStore{threads: make(map[string]*domain.Thread)}
}

func (s *MockStore) Read(ctx context.Context, threadID string) (*domain.Thread, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	thread, ok := s.threads[threadID]
	if !ok {
		return nil, domain.NewNotFoundError(threadID)
	}
	clone := *thread
	clone.Messages = append([]domain.Message(nil), thread.Messages...)
	return &clone, nil
}

func (s *MockStore) Write(ctx context.Context, threadID string, persona domain.Persona, messages []domain.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.WriteCalls = append(s.WriteCalls, WriteCall{
		ThreadID: threadID,
		Persona:  persona,
		Messages: append([]domain.Message(nil), messages...),
	})
	if s.WriteErr != nil {
		return s.WriteErr
	}
	s.threads[threadID] = &domain.Thread{
		ID:       threadID,
		Persona:  persona,
		Messages: append([]domain.Message(nil), messages...),
	}
	return nil
}

func (s *MockStore) List(ctx context.Context, persona domain.Persona, limit int) ([]domain.Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var summaries []domain.Summary
	for _, t := range s.threads {
		if persona != "" && t.Persona != persona {
			continue
		}
		preview := ""
		if len(t.Messages) > 0 {
			preview = t.Messages[len(t.Messages)-1].Text
		}
		summaries = append(summaries, domain.Summary{
			ThreadID:     t.ID,
			Persona:      t.Persona,
			MessageCount: len(t.Messages),
			Preview:      preview,
			CreatedAt:    t.CreatedAt,
			UpdatedAt:    t.UpdatedAt,
		})
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].UpdatedAt.After(summaries[j].UpdatedAt)
	})
	if limit > 0 && len(summaries) > limit {
		summaries = summaries[:limit]
	}
	return summaries, nil
}

func (s *MockStore) Delete(ctx context.Context, threadID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.threads[threadID]; !ok {
		return domain.NewNotFoundError(threadID)
	}
	delete(s.threads, threadID)
	return nil
}

func (s *MockStore) Ping(ctx context.Context) error { return nil }
func (s *MockStore) Close() error                   { return nil }

// Seed installs a thread directly, bypassing Write bookkeeping.
func (s *MockStore) Seed(thread *domain.Thread) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.threads[thread.ID] = thread
}

// Writes returns a copy of the recorded Write calls.
func (s *MockStore) Writes() []WriteCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]WriteCall(nil), s.WriteCalls...)
}

// ChunkReader yields predefined chunks one Read at a time and records
// whether Close was called. Exercises arbitrary split points.
type ChunkReader struct {
	mu     sync.Mutex
	chunks []string
	pos    int
	closed bool
}

func NewChunkReader(chunks ...string) *ChunkReader {
	return &ChunkReader{chunks: chunks}
}

func (r *ChunkReader) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pos >= len(r.chunks) {
		return 0, io.EOF
	}
	n := copy(p, r.chunks[r.pos])
	if n < len(r.chunks[r.pos]) {
		r.chunks[r.pos] = r.chunks[r.pos][n:]
	} else {
		r.pos++
	}
	return n, nil
}

func (r *ChunkReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

func (r *ChunkReader) Closed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

// Frame serializes an event as one framed line, newline included.
func Frame(ev domain.StreamEvent) string {
	data, _ := json.Marshal(ev)
	return "data: " + string(data) + "\n"
}

// ChunkFrames builds a framed body from events, one line per event.
func ChunkFrames(events ...domain.StreamEvent) string {
	var b strings.Builder
	for _, ev := range events {
		b.WriteString(Frame(ev))
	}
	return b.String()
}
