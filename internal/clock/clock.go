// Package clock abstracts timer scheduling so debounce behavior can be
// tested deterministically. Production code injects Real(); tests
// inject a Fake and advance it by hand.
package clock

import "time"

// Clock schedules deferred calls.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// AfterFunc waits for duration d, then calls f in its own
	// goroutine. The returned Timer cancels the pending call.
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a handle on one scheduled call.
type Timer interface {
	// Stop prevents the call from firing. Returns false if it has
	// already fired or been stopped.
	Stop() bool
}

type realClock struct{}

// Real returns a Clock backed by the time package.
func Real() Clock { return realClock{} }

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return realTimer{t: time.AfterFunc(d, f)}
}

type realTimer struct {
	t *time.Timer
}

func (r realTimer) Stop() bool { return r.t.Stop() }
