package invoke

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/parleyhq/parley/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvokeDecodesResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Error("missing or wrong Authorization header")
		}
		if r.Header.Get("X-Request-ID") == "" {
			t.Error("missing X-Request-ID header")
		}

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "scribe", body["persona"])
		assert.Equal(t, "Hello", body["prompt"])
		assert.Equal(t, false, body["stream"])

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"type":"text","content":"Hi there"}`))
	}))
	defer server.Close()

	client := New(server.URL, "test-key")
	resp, err := client.Invoke(context.Background(), domain.Request{
		Persona:  domain.PersonaScribe,
		ThreadID: "t-1",
		Prompt:   "Hello",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.TextResponse{Text: "Hi there"}, resp)
}

func TestInvokeSurfacesServiceError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "persona unavailable", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := New(server.URL, "")
	_, err := client.Invoke(context.Background(), domain.Request{Prompt: "Hello"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
	assert.Contains(t, err.Error(), "persona unavailable")
}

func TestInvokeStreamReturnsFramedBody(t *testing.T) {
	framed := "data: {\"type\":\"chunk\",\"text\":\"Hi\"}\n" +
		"data: {\"type\":\"done\",\"threadId\":\"t-1\"}\n"

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, true, body["stream"])

		w.Header().Set("Content-Type", "text/event-stream")
		w.Write([]byte(framed))
	}))
	defer server.Close()

	client := New(server.URL, "")
	rc, err := client.InvokeStream(context.Background(), domain.Request{Prompt: "Hello"})
	require.NoError(t, err)
	defer rc.Close()

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, framed, string(data))
}
