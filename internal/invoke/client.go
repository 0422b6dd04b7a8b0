// Package invoke talks to the agent-invocation service over HTTP. It
// implements both round-trip modes of domain.Invoker: one structured
// JSON response, or a line-framed streaming body decoded elsewhere.
package invoke

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/parleyhq/parley/internal/domain"
	"github.com/parleyhq/parley/internal/logging"
)

const invokePath = "/v1/invoke"

type Client struct {
	baseURL string
	apiKey  string
	client  HTTPClient
	log     *logging.Logger
}

var _ domain.Invoker = (*Client)(nil)

func New(baseURL, apiKey string) *Client {
	return NewWithClient(baseURL, apiKey, &http.Client{})
}

func NewWithClient(baseURL, apiKey string, client HTTPClient) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  client,
		log:     logging.New("invoke"),
	}
}

type invokeBody struct {
	Persona  domain.Persona `json:"persona"`
	ThreadID string         `json:"threadId"`
	Prompt   string         `json:"prompt"`
	Stream   bool           `json:"stream"`
}

// Invoke performs a non-streaming round trip and decodes the single
// structured response.
func (c *Client) Invoke(ctx context.Context, req domain.Request) (domain.Response, error) {
	resp, err := c.post(ctx, req, false)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	response, err := domain.UnmarshalResponse(data)
	if err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return response, nil
}

// InvokeStream performs a streaming round trip and hands the framed
// body to the caller, who owns closing it.
func (c *Client) InvokeStream(ctx context.Context, req domain.Request) (io.ReadCloser, error) {
	resp, err := c.post(ctx, req, true)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

func (c *Client) post(ctx context.Context, req domain.Request, stream bool) (*http.Response, error) {
	body := invokeBody{
		Persona:  req.Persona,
		ThreadID: req.ThreadID,
		Prompt:   req.Prompt,
		Stream:   stream,
	}
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+invokePath, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Request-ID", uuid.NewString())
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("agent service error %d: %s", resp.StatusCode, string(data))
	}
	return resp, nil
}
