// Package session owns one conversation: its thread identity, persona,
// append-only message log, and lifecycle phase. It drives the
// invocation collaborator on submit and keeps the debounced autosave
// controller fed with snapshots.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/parleyhq/parley/internal/autosave"
	"github.com/parleyhq/parley/internal/clock"
	"github.com/parleyhq/parley/internal/domain"
	"github.com/parleyhq/parley/internal/logging"
	"github.com/parleyhq/parley/internal/stream"
)

// Phase is the engine's lifecycle phase. Sending is transient: the
// engine returns to Idle after every invocation, success or failure.
type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhaseSending Phase = "sending"
)

var (
	// ErrBusy rejects an operation while an invocation is in flight.
	ErrBusy = errors.New("session: invocation already in flight")
	// ErrEmptyPrompt rejects empty or whitespace-only prompts.
	ErrEmptyPrompt = errors.New("session: empty prompt")
)

// Config tunes a new Engine. Zero values select defaults.
type Config struct {
	Persona   domain.Persona // default DefaultPersona
	SaveDelay time.Duration  // default autosave.DefaultDelay
	Streaming bool           // fold a framed stream instead of one round trip
	Clock     clock.Clock    // default real time
}

// Engine is the session state machine. Each Engine exclusively owns
// its message log, dirty flag, and save timer; no state is shared
// across instances.
type Engine struct {
	invoker   domain.Invoker
	store     domain.Store
	saver     *autosave.Controller
	decoder   *stream.Decoder
	streaming bool
	log       *logging.Logger

	mu        sync.Mutex
	threadID  string
	persona   domain.Persona
	messages  []domain.Message
	phase     Phase
	dirty     bool
	everSaved bool
	lastErr   error
}

// New creates an Engine seeded with a fresh thread id and the
// persona's welcome message.
func New(invoker domain.Invoker, store domain.Store, cfg Config) *Engine {
	persona := cfg.Persona
	if !persona.Valid() {
		persona = domain.DefaultPersona
	}

	e := &Engine{
		invoker:   invoker,
		store:     store,
		decoder:   stream.NewDecoder(),
		streaming: cfg.Streaming,
		log:       logging.New("session"),
	}
	e.saver = autosave.New(store, cfg.SaveDelay, cfg.Clock, e.saved)

	e.mu.Lock()
	e.persona = persona
	e.resetLocked()
	e.mu.Unlock()
	return e
}

// Submit sends promptText to the agent. Valid only from Idle; a second
// submit while Sending returns ErrBusy. The user message is appended
// before the round trip; the agent's reply (or a local "Error: ..."
// message on failure) is appended after it, and the engine returns to
// Idle either way. The returned message is the appended agent message.
func (e *Engine) Submit(ctx context.Context, promptText string) (domain.Message, error) {
	prompt := strings.TrimSpace(promptText)
	if prompt == "" {
		return domain.Message{}, ErrEmptyPrompt
	}

	e.mu.Lock()
	if e.phase != PhaseIdle {
		e.mu.Unlock()
		return domain.Message{}, ErrBusy
	}
	e.phase = PhaseSending
	req := domain.Request{
		Persona:  e.persona,
		ThreadID: e.threadID,
		Prompt:   prompt,
	}
	// Captured at send time so a persona change mid-flight cannot
	// drift the reply's prefix.
	display := e.persona.DisplayName()
	e.appendLocked(domain.NewMessage(domain.SenderUser, prompt))
	e.mu.Unlock()

	start := time.Now()
	text, doneThreadID, err := e.invoke(ctx, req)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.phase = PhaseIdle

	if err != nil {
		// Recovered locally: the failure becomes conversation
		// content and the session stays interactive.
		e.lastErr = err
		e.log.WithThread(req.ThreadID).Warn("invoke_failed", nil, err)
		reply := domain.NewMessage(domain.SenderAgent, "Error: "+err.Error())
		e.appendLocked(reply)
		return reply, nil
	}

	e.lastErr = nil
	e.log.WithThread(req.ThreadID).TimedEvent("invoke", start, nil)

	if doneThreadID != "" && e.threadID == req.ThreadID && !e.everSaved {
		// Adopt the service-issued id for a thread that has never
		// been persisted under the provisional one.
		e.threadID = doneThreadID
	}

	reply := domain.NewMessage(domain.SenderAgent, "["+display+"] "+text)
	e.appendLocked(reply)
	return reply, nil
}

// invoke performs one round trip and returns the reply text, plus the
// thread id from the stream's done frame when streaming.
func (e *Engine) invoke(ctx context.Context, req domain.Request) (string, string, error) {
	if e.streaming {
		return e.invokeStream(ctx, req)
	}

	resp, err := e.invoker.Invoke(ctx, req)
	if err != nil {
		return "", "", err
	}
	return FormatResponse(resp), "", nil
}

// invokeStream folds the decoded event stream into one reply.
func (e *Engine) invokeStream(ctx context.Context, req domain.Request) (string, string, error) {
	body, err := e.invoker.InvokeStream(ctx, req)
	if err != nil {
		return "", "", err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	events := e.decoder.Decode(ctx, body)

	var b strings.Builder
	var doneThreadID string
	for ev := range events {
		switch ev.Type {
		case domain.StreamEventChunk:
			b.WriteString(ev.Text)
		case domain.StreamEventDone:
			doneThreadID = ev.ThreadID
		case domain.StreamEventError:
			cancel()
			for range events {
			}
			return "", "", errors.New(ev.Message)
		}
	}

	if err := ctx.Err(); err != nil {
		return "", "", err
	}
	return b.String(), doneThreadID, nil
}

// SetPersona switches the persona used by future sends. History is
// untouched.
func (e *Engine) SetPersona(p domain.Persona) error {
	if !p.Valid() {
		return fmt.Errorf("unknown persona: %s", p)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.persona = p
	return nil
}

// StartNew flushes any pending save for the current thread (best
// effort, without blocking on it) and resets to a fresh thread seeded
// with the welcome message. Valid only from Idle: a reset mid-flight
// would let the in-flight reply land in the fresh thread's log.
func (e *Engine) StartNew() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.phase != PhaseIdle {
		return ErrBusy
	}

	// Flush never blocks on the write and never calls back into the
	// engine synchronously, so holding the lock across it is safe.
	e.saver.Flush()
	e.resetLocked()
	return nil
}

// Load replaces the session wholesale with the stored thread. On any
// failure, including not-found, current state is left untouched and
// the error is returned to the caller.
func (e *Engine) Load(ctx context.Context, threadID string) error {
	e.mu.Lock()
	if e.phase != PhaseIdle {
		e.mu.Unlock()
		return ErrBusy
	}
	e.mu.Unlock()

	thread, err := e.store.Read(ctx, threadID)
	if err != nil {
		return fmt.Errorf("load conversation %s: %w", threadID, err)
	}

	e.saver.Flush()

	e.mu.Lock()
	defer e.mu.Unlock()
	e.threadID = thread.ID
	e.persona = thread.Persona
	e.messages = append([]domain.Message(nil), thread.Messages...)
	e.dirty = false
	e.everSaved = true
	e.lastErr = nil
	e.log.WithThread(thread.ID).Info("loaded", map[string]interface{}{
		"messages": len(thread.Messages),
	})
	return nil
}

// Close cancels the pending save timer. Call on session teardown.
func (e *Engine) Close() error {
	e.saver.Cancel()
	return nil
}

// ThreadID returns the current thread id.
func (e *Engine) ThreadID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.threadID
}

// Persona returns the active persona.
func (e *Engine) Persona() domain.Persona {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.persona
}

// Phase returns the current lifecycle phase.
func (e *Engine) Phase() Phase {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.phase
}

// Messages returns a copy of the message log.
func (e *Engine) Messages() []domain.Message {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]domain.Message(nil), e.messages...)
}

// Dirty reports whether in-memory state has outrun persistence.
func (e *Engine) Dirty() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dirty
}

// LastError returns the error recovered by the most recent failed
// invocation, nil after a success.
func (e *Engine) LastError() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastErr
}

// LastSaveError returns the most recent autosave failure.
func (e *Engine) LastSaveError() error {
	return e.saver.LastErr()
}

// resetLocked assigns a fresh thread id and seeds the log with the
// persona's welcome message. Caller holds e.mu.
func (e *Engine) resetLocked() {
	e.threadID = domain.NewThreadID()
	welcome := domain.NewMessage(
		domain.SenderAgent,
		"["+e.persona.DisplayName()+"] "+e.persona.WelcomeText(),
	)
	e.messages = []domain.Message{welcome}
	e.phase = PhaseIdle
	e.dirty = false
	e.everSaved = false
	e.lastErr = nil
}

// appendLocked appends msg, marks the session dirty, and hands the
// autosave controller a snapshot bound to the current thread id.
// Caller holds e.mu.
func (e *Engine) appendLocked(msg domain.Message) {
	e.messages = append(e.messages, msg)
	e.dirty = true
	e.saver.Schedule(autosave.Snapshot{
		ThreadID: e.threadID,
		Persona:  e.persona,
		Messages: append([]domain.Message(nil), e.messages...),
	})
}

// saved clears the dirty flag after a successful save, but only when
// the saved thread id still matches the session's current one.
func (e *Engine) saved(threadID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if threadID == e.threadID {
		e.dirty = false
		e.everSaved = true
	}
}
