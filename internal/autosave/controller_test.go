package autosave

import (
	"sync"
	"testing"
	"time"

	"github.com/parleyhq/parley/internal/clock"
	"github.com/parleyhq/parley/internal/domain"
	"github.com/parleyhq/parley/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snapshot(threadID string, texts ...string) Snapshot {
	msgs := make([]domain.Message, len(texts))
	for i, text := range texts {
		msgs[i] = domain.NewMessage(domain.SenderUser, text)
	}
	return Snapshot{ThreadID: threadID, Persona: domain.PersonaScribe, Messages: msgs}
}

func TestDebounceCoalescing(t *testing.T) {
	store := testutil.NewMockStore()
	fake := clock.NewFake()
	c := New(store, time.Second, fake, nil)

	// Three mutations inside the quiet window.
	c.Schedule(snapshot("t-1", "seed", "one"))
	fake.Advance(400 * time.Millisecond)
	c.Schedule(snapshot("t-1", "seed", "one", "two"))
	fake.Advance(400 * time.Millisecond)
	c.Schedule(snapshot("t-1", "seed", "one", "two", "three"))

	// A full quiet period after the first mutation: nothing yet,
	// because the timer restarts on every mutation.
	fake.Advance(400 * time.Millisecond)
	assert.Empty(t, store.Writes())

	// A full quiet period after the last mutation: exactly one save,
	// carrying the final snapshot.
	fake.Advance(700 * time.Millisecond)
	writes := store.Writes()
	require.Len(t, writes, 1)
	assert.Equal(t, "t-1", writes[0].ThreadID)
	assert.Len(t, writes[0].Messages, 4)
}

func TestThreadSwitchRaceSafety(t *testing.T) {
	store := testutil.NewMockStore()
	fake := clock.NewFake()
	c := New(store, time.Second, fake, nil)

	// Pending save for thread A, flushed on switch.
	snapA := snapshot("t-a", "seed", "a-message")
	c.Schedule(snapA)
	c.Flush()

	// Mutations on thread B before A's write would have fired.
	c.Schedule(snapshot("t-b", "seed", "b-message"))
	fake.Advance(time.Second)

	require.Eventually(t, func() bool {
		return len(store.Writes()) == 2
	}, time.Second, 5*time.Millisecond)

	writes := store.Writes()
	byThread := map[string]testutil.WriteCall{}
	for _, w := range writes {
		byThread[w.ThreadID] = w
	}
	require.Contains(t, byThread, "t-a")
	require.Contains(t, byThread, "t-b")

	// A's save carries A's snapshot from schedule time, never B's data.
	assert.Equal(t, "a-message", byThread["t-a"].Messages[1].Text)
	assert.Equal(t, "b-message", byThread["t-b"].Messages[1].Text)
}

func TestTrivialThreadNeverPersisted(t *testing.T) {
	store := testutil.NewMockStore()
	fake := clock.NewFake()
	c := New(store, time.Second, fake, nil)

	c.Schedule(snapshot("t-1", "welcome only"))
	fake.Advance(2 * time.Second)
	c.Flush()

	assert.Empty(t, store.Writes())
	assert.Zero(t, fake.Pending())
}

func TestSaveFailureSwallowedAndRecorded(t *testing.T) {
	store := testutil.NewMockStore()
	store.WriteErr = assert.AnError
	fake := clock.NewFake()

	var saved []string
	var mu sync.Mutex
	c := New(store, time.Second, fake, func(threadID string) {
		mu.Lock()
		saved = append(saved, threadID)
		mu.Unlock()
	})

	c.Schedule(snapshot("t-1", "seed", "one"))
	fake.Advance(time.Second)

	require.Len(t, store.Writes(), 1)
	assert.ErrorIs(t, c.LastErr(), assert.AnError)

	mu.Lock()
	defer mu.Unlock()
	assert.Empty(t, saved, "failed save must not report success")
}

func TestSavedCallbackOnSuccess(t *testing.T) {
	store := testutil.NewMockStore()
	fake := clock.NewFake()

	var saved []string
	var mu sync.Mutex
	c := New(store, time.Second, fake, func(threadID string) {
		mu.Lock()
		saved = append(saved, threadID)
		mu.Unlock()
	})

	c.Schedule(snapshot("t-1", "seed", "one"))
	fake.Advance(time.Second)

	require.NoError(t, c.LastErr())
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"t-1"}, saved)
}

func TestCancelDropsPendingSave(t *testing.T) {
	store := testutil.NewMockStore()
	fake := clock.NewFake()
	c := New(store, time.Second, fake, nil)

	c.Schedule(snapshot("t-1", "seed", "one"))
	c.Cancel()
	fake.Advance(5 * time.Second)

	assert.Empty(t, store.Writes())
}

func TestFlushWithoutPendingIsNoop(t *testing.T) {
	store := testutil.NewMockStore()
	c := New(store, time.Second, clock.NewFake(), nil)

	c.Flush()
	assert.Empty(t, store.Writes())
}
