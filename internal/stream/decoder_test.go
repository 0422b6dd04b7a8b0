package stream

import (
	"context"
	"testing"
	"time"

	"github.com/parleyhq/parley/internal/domain"
	"github.com/parleyhq/parley/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(t *testing.T, events <-chan domain.StreamEvent) []domain.StreamEvent {
	t.Helper()
	var out []domain.StreamEvent
	for ev := range events {
		out = append(out, ev)
	}
	return out
}

func TestDecodeChunkBoundaryInvariance(t *testing.T) {
	body := testutil.ChunkFrames(
		domain.StreamEvent{Type: domain.StreamEventStart, Persona: domain.PersonaScribe},
		domain.StreamEvent{Type: domain.StreamEventChunk, Text: "Hello"},
		domain.StreamEvent{Type: domain.StreamEventChunk, Text: " world"},
		domain.StreamEvent{Type: domain.StreamEventDone, ThreadID: "t-1"},
	)

	chunkings := map[string][]string{
		"unsplit":     {body},
		"byte-wise":   splitEvery(body, 1),
		"three-bytes": splitEvery(body, 3),
		"mid-line":    {body[:7], body[7:31], body[31:]},
		"per-line":    splitEvery(body, len(testutil.Frame(domain.StreamEvent{Type: domain.StreamEventChunk, Text: "Hello"}))),
	}

	for name, chunks := range chunkings {
		t.Run(name, func(t *testing.T) {
			src := testutil.NewChunkReader(chunks...)
			events := collect(t, NewDecoder().Decode(context.Background(), src))

			require.Len(t, events, 4)
			assert.Equal(t, domain.StreamEventStart, events[0].Type)
			assert.Equal(t, "Hello", events[1].Text)
			assert.Equal(t, " world", events[2].Text)
			assert.Equal(t, "t-1", events[3].ThreadID)
			assert.True(t, src.Closed())
		})
	}
}

func splitEvery(s string, n int) []string {
	var chunks []string
	for len(s) > n {
		chunks = append(chunks, s[:n])
		s = s[n:]
	}
	return append(chunks, s)
}

func TestDecodeSplitLineRecombination(t *testing.T) {
	line := testutil.Frame(domain.StreamEvent{Type: domain.StreamEventChunk, Text: "split across chunks"})

	src := testutil.NewChunkReader(line[:4], line[4:19], line[19:])
	events := collect(t, NewDecoder().Decode(context.Background(), src))

	require.Len(t, events, 1)
	assert.Equal(t, domain.StreamEventChunk, events[0].Type)
	assert.Equal(t, "split across chunks", events[0].Text)
}

func TestDecodeMalformedLineIsolation(t *testing.T) {
	body := testutil.Frame(domain.StreamEvent{Type: domain.StreamEventChunk, Text: "before"}) +
		"data: {not json at all\n" +
		testutil.Frame(domain.StreamEvent{Type: domain.StreamEventChunk, Text: "after"})

	src := testutil.NewChunkReader(body)
	events := collect(t, NewDecoder().Decode(context.Background(), src))

	require.Len(t, events, 2)
	assert.Equal(t, "before", events[0].Text)
	assert.Equal(t, "after", events[1].Text)
}

func TestDecodeIgnoresUnprefixedLines(t *testing.T) {
	body := ": keepalive comment\n" +
		"event: ping\n" +
		testutil.Frame(domain.StreamEvent{Type: domain.StreamEventChunk, Text: "payload"}) +
		"\n"

	src := testutil.NewChunkReader(body)
	events := collect(t, NewDecoder().Decode(context.Background(), src))

	require.Len(t, events, 1)
	assert.Equal(t, "payload", events[0].Text)
}

func TestDecodeSkipsUnknownEventType(t *testing.T) {
	body := `data: {"type":"telemetry","text":"x"}` + "\n" +
		testutil.Frame(domain.StreamEvent{Type: domain.StreamEventDone, ThreadID: "t-9"})

	src := testutil.NewChunkReader(body)
	events := collect(t, NewDecoder().Decode(context.Background(), src))

	require.Len(t, events, 1)
	assert.Equal(t, domain.StreamEventDone, events[0].Type)
}

func TestDecodeDiscardsTrailingFragment(t *testing.T) {
	// The final line never gets its newline: it must not be emitted.
	body := testutil.Frame(domain.StreamEvent{Type: domain.StreamEventChunk, Text: "complete"}) +
		`data: {"type":"chunk","text":"incompl`

	src := testutil.NewChunkReader(body)
	events := collect(t, NewDecoder().Decode(context.Background(), src))

	require.Len(t, events, 1)
	assert.Equal(t, "complete", events[0].Text)
	assert.True(t, src.Closed())
}

func TestDecodeReleasesSourceOnCancel(t *testing.T) {
	// Enough events to outrun the channel buffer so the decoder is
	// mid-stream when the consumer walks away.
	var evs []domain.StreamEvent
	for i := 0; i < 100; i++ {
		evs = append(evs, domain.StreamEvent{Type: domain.StreamEventChunk, Text: "x"})
	}
	src := testutil.NewChunkReader(testutil.ChunkFrames(evs...))

	ctx, cancel := context.WithCancel(context.Background())
	events := NewDecoder().Decode(ctx, src)

	<-events
	cancel()
	for range events {
	}

	require.Eventually(t, src.Closed, time.Second, 5*time.Millisecond)
}

func TestDecodeEmptyStream(t *testing.T) {
	src := testutil.NewChunkReader()
	events := collect(t, NewDecoder().Decode(context.Background(), src))

	assert.Empty(t, events)
	assert.True(t, src.Closed())
}
