// Package chat is a small client for the external chat-completion endpoint.
package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Message is one turn of a chat exchange, as echoed back by the endpoint.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Completion is one element of the endpoint's response array.
type Completion struct {
	Inputs struct {
		Messages []Message `json:"messages"`
	} `json:"inputs"`
	Response struct {
		Response string             `json:"response"`
		Usage    map[string]float64 `json:"usage,omitempty"`
	} `json:"response"`
}

// Client calls the chat-completion endpoint.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.httpClient = c }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(cl *Client) { cl.httpClient.Timeout = d }
}

// New creates a client for the given endpoint.
func New(endpoint string, opts ...Option) *Client {
	c := &Client{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Complete sends the query and returns the raw completion array.
// A non-2xx status is an error carrying the status code and text.
func (c *Client) Complete(ctx context.Context, query string) ([]Completion, error) {
	body, err := json.Marshal(map[string]string{
		"query": query,
		"type":  "chat",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("request failed: %d %s", resp.StatusCode, resp.Status)
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var completions []Completion
	if err := json.Unmarshal(respBody, &completions); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return completions, nil
}

// Reply extracts the reply text from a completion array: the first
// element's response.response field. Any unexpected shape yields the
// empty string rather than an error.
func Reply(completions []Completion) string {
	if len(completions) == 0 {
		return ""
	}
	return completions[0].Response.Response
}
