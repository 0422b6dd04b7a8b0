// Package runtime coordinates graceful teardown of long-lived resources.
package runtime

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/parleyhq/parley/internal/logging"
)

// ShutdownFunc releases one resource during teardown.
type ShutdownFunc func(ctx context.Context) error

const shutdownTimeout = 10 * time.Second

type handler struct {
	name string
	fn   ShutdownFunc
}

// Shutdowner runs registered handlers in LIFO order exactly once.
type Shutdowner struct {
	mu       sync.Mutex
	handlers []handler
	once     sync.Once
	done     chan struct{}
	log      *logging.Logger
}

func NewShutdowner() *Shutdowner {
	return &Shutdowner{
		done: make(chan struct{}),
		log:  logging.New("runtime"),
	}
}

// Register adds a named teardown handler. Handlers run in reverse
// registration order so dependents close before their dependencies.
func (s *Shutdowner) Register(name string, fn ShutdownFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers = append(s.handlers, handler{name: name, fn: fn})
}

// RegisterSimple adapts a plain func() error handler.
func (s *Shutdowner) RegisterSimple(name string, fn func() error) {
	s.Register(name, func(context.Context) error { return fn() })
}

// ListenForSignals triggers Shutdown on SIGINT or SIGTERM.
func (s *Shutdowner) ListenForSignals() {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-ch
		s.log.Info("signal_received", map[string]any{"signal": sig.String()})
		s.Shutdown()
	}()
}

// Shutdown runs all handlers once. Later calls return immediately.
func (s *Shutdowner) Shutdown() {
	s.once.Do(func() {
		defer close(s.done)

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		s.mu.Lock()
		handlers := make([]handler, len(s.handlers))
		copy(handlers, s.handlers)
		s.mu.Unlock()

		for i := len(handlers) - 1; i >= 0; i-- {
			h := handlers[i]
			if err := h.fn(ctx); err != nil {
				s.log.Warn("handler_failed", map[string]any{"handler": h.name}, err)
				continue
			}
			s.log.Debug("handler_done", map[string]any{"handler": h.name})
		}
	})
}

// Done is closed once Shutdown has finished.
func (s *Shutdowner) Done() <-chan struct{} {
	return s.done
}
