// Package gateway is the HTTP client for the CRUD API. The orchestrator's
// steps and the CLI go through it instead of talking to the store directly.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"noteflow/pkg/api"
)

// APIError represents an error response from the CRUD API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (%d): %s", e.StatusCode, e.Message)
}

// Client handles API calls to the CRUD service.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// New creates a new client with the given base URL.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// StoreUser sends POST /api/storeUser to register a new user.
func (c *Client) StoreUser(ctx context.Context, email, password string) (*api.StoreUserResponse, error) {
	var result api.StoreUserResponse
	err := c.post(ctx, "/api/storeUser", api.StoreUserRequest{Email: email, Password: password}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// GetUser sends GET /api/getUser?email= and returns the matching records.
func (c *Client) GetUser(ctx context.Context, email string) ([]api.UserRecord, error) {
	endpoint := fmt.Sprintf("%s/api/getUser?email=%s", c.BaseURL, url.QueryEscape(email))

	var records []api.UserRecord
	if err := c.get(ctx, endpoint, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// StoreNote sends POST /api/storeNotes to create a note.
func (c *Client) StoreNote(ctx context.Context, userID, content string) (*api.StoreNotesResponse, error) {
	var result api.StoreNotesResponse
	err := c.post(ctx, "/api/storeNotes", api.StoreNotesRequest{UserID: userID, Content: content}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// GetNotes sends GET /api/getNotes?user_id= and returns the user's notes,
// newest first.
func (c *Client) GetNotes(ctx context.Context, userID string) ([]api.NoteRecord, error) {
	endpoint := fmt.Sprintf("%s/api/getNotes?user_id=%s", c.BaseURL, url.QueryEscape(userID))

	var notes []api.NoteRecord
	if err := c.get(ctx, endpoint, &notes); err != nil {
		return nil, err
	}
	return notes, nil
}

// SaveNotes sends POST /api/saveNotes to replace the user's note content.
func (c *Client) SaveNotes(ctx context.Context, userID, content string) (*api.SaveNotesResponse, error) {
	var result api.SaveNotesResponse
	err := c.post(ctx, "/api/saveNotes", api.SaveNotesRequest{UserID: userID, Content: content}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) post(ctx context.Context, path string, payload, result interface{}) error {
	bodyBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Add("Content-Type", "application/json")

	return c.do(httpReq, result)
}

func (c *Client) get(ctx context.Context, endpoint string, result interface{}) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	return c.do(httpReq, result)
}

func (c *Client) do(req *http.Request, result interface{}) error {
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return &APIError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	if err := json.Unmarshal(respBody, result); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
