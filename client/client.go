// Package client is the typed HTTP client the CLI and tests use to
// reach the downtime API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"

	"downtimelog/models"
)

const defaultBaseURL = "http://localhost:5001"

// BaseURL resolves the API base URL: the DOWNTIME_API_BASE environment
// variable when set, the local development server otherwise.
func BaseURL() string {
	if base := os.Getenv("DOWNTIME_API_BASE"); base != "" {
		return base
	}
	return defaultBaseURL
}

// APIError is a non-2xx response from the server, carrying the
// server-supplied error string when one was returned.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("api error %d", e.StatusCode)
}

type Client struct {
	base string
	http *http.Client
}

func New(base string) *Client {
	return &Client{
		base: base,
		http: &http.Client{Timeout: 15 * time.Second},
	}
}

// EntryPayload is a create or update body. Nil fields are omitted so
// updates touch only the supplied fields.
type EntryPayload struct {
	Username *string `json:"username,omitempty"`
	ClockIn  *string `json:"clockIn,omitempty"`
	ClockOut *string `json:"clockOut,omitempty"`
	Notes    *string `json:"notes,omitempty"`
}

func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/api/health", nil, nil)
}

func (c *Client) Register(ctx context.Context, username, password string) error {
	body := map[string]string{"username": username, "password": password}
	return c.do(ctx, http.MethodPost, "/api/register", body, nil)
}

func (c *Client) Login(ctx context.Context, username, password string) error {
	body := map[string]string{"username": username, "password": password}
	return c.do(ctx, http.MethodPost, "/api/login", body, nil)
}

func (c *Client) ListDowntime(ctx context.Context, username string) ([]models.DowntimeEntry, error) {
	var entries []models.DowntimeEntry
	path := "/api/downtime?username=" + url.QueryEscape(username)
	if err := c.do(ctx, http.MethodGet, path, nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (c *Client) CreateDowntime(ctx context.Context, payload EntryPayload) (*models.DowntimeEntry, error) {
	var entry models.DowntimeEntry
	if err := c.do(ctx, http.MethodPost, "/api/downtime", payload, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

func (c *Client) UpdateDowntime(ctx context.Context, id int, payload EntryPayload) (*models.DowntimeEntry, error) {
	var entry models.DowntimeEntry
	path := fmt.Sprintf("/api/downtime/%d", id)
	if err := c.do(ctx, http.MethodPut, path, payload, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

func (c *Client) DeleteDowntime(ctx context.Context, id int) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/downtime/%d", id), nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var e struct {
			Error string `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&e) == nil {
			apiErr.Message = e.Error
		}
		return apiErr
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
