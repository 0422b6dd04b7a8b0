package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerEmitsStructuredJSON(t *testing.T) {
	var buf bytes.Buffer
	log := New("session").WithThread("t-1").WithPersona("scribe").WithOutput(&buf)

	log.Warn("save_failed", map[string]interface{}{"messages": 3}, assert.AnError)

	var event Event
	require.NoError(t, json.Unmarshal(buf.Bytes(), &event))
	assert.Equal(t, LevelWarn, event.Level)
	assert.Equal(t, "session", event.Component)
	assert.Equal(t, "save_failed", event.Event)
	assert.Equal(t, "t-1", event.Thread)
	assert.Equal(t, "scribe", event.Persona)
	assert.Equal(t, assert.AnError.Error(), event.Error)
	assert.EqualValues(t, 3, event.Extra["messages"])
}

func TestWithThreadDoesNotMutateParent(t *testing.T) {
	var buf bytes.Buffer
	parent := New("stream").WithOutput(&buf)
	parent.WithThread("t-9") // derived logger discarded

	parent.Info("frame_skipped", nil)

	var event Event
	require.NoError(t, json.Unmarshal(buf.Bytes(), &event))
	assert.Empty(t, event.Thread)
}
