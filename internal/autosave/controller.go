// Package autosave schedules coalesced, best-effort persistence of a
// conversation thread. Every mutation reschedules a single cancellable
// timer (pure debounce); only the final mutation in a burst triggers a
// save. Failures are recorded and swallowed: in-memory history remains
// authoritative and the interactive session is never disturbed.
package autosave

import (
	"context"
	"sync"
	"time"

	"github.com/parleyhq/parley/internal/clock"
	"github.com/parleyhq/parley/internal/domain"
	"github.com/parleyhq/parley/internal/logging"
)

// DefaultDelay is the quiet period after the last mutation before a
// save fires. Long enough to coalesce a submit's user/agent message
// pair, short enough that little is lost on teardown.
const DefaultDelay = 2 * time.Second

const saveTimeout = 10 * time.Second

// Writer is the slice of the persistence collaborator the controller
// needs.
type Writer interface {
	Write(ctx context.Context, threadID string, persona domain.Persona, messages []domain.Message) error
}

// Snapshot is the state captured when a save is scheduled. It is bound
// to the thread id active at schedule time, so a thread switch before
// the timer fires cannot cross-contaminate saves.
type Snapshot struct {
	ThreadID string
	Persona  domain.Persona
	Messages []domain.Message
}

// Trivial reports whether the snapshot holds nothing beyond the seeded
// welcome message. Trivial conversations are never persisted.
func (s Snapshot) Trivial() bool {
	return len(s.Messages) <= 1
}

// SavedFunc is notified after each successful save with the snapshot's
// thread id. The session uses it to clear its dirty flag when the id
// still matches.
type SavedFunc func(threadID string)

// Controller owns the single debounce timer for one session.
type Controller struct {
	writer  Writer
	delay   time.Duration
	clk     clock.Clock
	onSaved SavedFunc
	log     *logging.Logger

	mu      sync.Mutex
	timer   clock.Timer
	pending *Snapshot
	lastErr error
}

// New creates a controller. onSaved may be nil.
func New(writer Writer, delay time.Duration, clk clock.Clock, onSaved SavedFunc) *Controller {
	if delay <= 0 {
		delay = DefaultDelay
	}
	if clk == nil {
		clk = clock.Real()
	}
	return &Controller{
		writer:  writer,
		delay:   delay,
		clk:     clk,
		onSaved: onSaved,
		log:     logging.New("autosave"),
	}
}

// Schedule records snap as the pending save and (re)starts the quiet
// timer. A prior unfired timer is cancelled: the save fires relative
// to the last mutation, not the first. Trivial snapshots cancel any
// pending save and schedule nothing.
func (c *Controller) Schedule(snap Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	if snap.Trivial() {
		c.pending = nil
		return
	}

	c.pending = &snap
	c.timer = c.clk.AfterFunc(c.delay, c.fire)
}

// fire runs on the timer goroutine when the quiet period elapses.
func (c *Controller) fire() {
	c.mu.Lock()
	snap := c.pending
	c.pending = nil
	c.timer = nil
	c.mu.Unlock()

	if snap != nil {
		c.save(*snap)
	}
}

// Flush fires any pending save immediately without waiting for the
// quiet period. Best effort: the write happens on its own goroutine
// and Flush does not block on it.
func (c *Controller) Flush() {
	c.mu.Lock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	snap := c.pending
	c.pending = nil
	c.mu.Unlock()

	if snap != nil {
		go c.save(*snap)
	}
}

// Cancel drops any pending save without writing it. Call on session
// teardown so a stale timer cannot persist against a thread id that is
// no longer current.
func (c *Controller) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.pending = nil
}

// LastErr returns the most recent save failure, nil if the last save
// succeeded. Observability only; failures are never retried.
func (c *Controller) LastErr() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

func (c *Controller) save(snap Snapshot) {
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()

	err := c.writer.Write(ctx, snap.ThreadID, snap.Persona, snap.Messages)

	c.mu.Lock()
	c.lastErr = err
	c.mu.Unlock()

	if err != nil {
		// Swallowed: the in-memory log stays authoritative and the
		// user is never interrupted over a failed save.
		c.log.Warn("save_failed", map[string]interface{}{
			"thread":   snap.ThreadID,
			"messages": len(snap.Messages),
		}, err)
		return
	}

	c.log.Debug("saved", map[string]interface{}{
		"thread":   snap.ThreadID,
		"messages": len(snap.Messages),
	})
	if c.onSaved != nil {
		c.onSaved(snap.ThreadID)
	}
}
