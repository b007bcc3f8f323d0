package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/lazypower/ephemeral/internal/archive"
	"github.com/lazypower/ephemeral/internal/decay"
)

const (
	defaultServerURL = "http://127.0.0.1:37778"
	httpTimeout      = 10 * time.Second
)

// ErrBusy is returned by Forget when the server is already decaying something.
var ErrBusy = errors.New("server is busy forgetting")

// Client talks to a running ephemeral server.
type Client struct {
	http      *http.Client
	serverURL string
}

// NewClient creates a client for serverURL. An empty URL falls back to the
// EPHEMERAL_URL env var, then http://127.0.0.1:37778.
func NewClient(serverURL string) *Client {
	if serverURL == "" {
		serverURL = os.Getenv("EPHEMERAL_URL")
	}
	if serverURL == "" {
		serverURL = defaultServerURL
	}
	return &Client{
		http:      &http.Client{Timeout: httpTimeout},
		serverURL: strings.TrimRight(serverURL, "/"),
	}
}

func (c *Client) URL() string { return c.serverURL }

// ForgetResult is the server's acknowledgement of a started session.
type ForgetResult struct {
	Status      string            `json:"status"`
	SessionID   string            `json:"session_id"`
	Algorithm   string            `json:"algorithm"`
	ContentType decay.ContentType `json:"content_type"`
	Integrity   int               `json:"integrity"`
}

// ForgetRequest is the body of POST /api/forget. Data holds raw PNG or audio
// bytes and is sent base64 encoded.
type ForgetRequest struct {
	ContentType decay.ContentType `json:"content_type"`
	Text        string            `json:"text,omitempty"`
	Data        []byte            `json:"data,omitempty"`
	Algorithm   string            `json:"algorithm,omitempty"`
}

// Forget asks the server to start decaying. An empty algorithm lets the
// server pick one at random.
func (c *Client) Forget(ctx context.Context, req ForgetRequest) (ForgetResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return ForgetResult{}, fmt.Errorf("encode request: %w", err)
	}

	data, status, err := c.do(ctx, http.MethodPost, "/api/forget", body)
	if status == http.StatusConflict {
		return ForgetResult{}, ErrBusy
	}
	if err != nil {
		return ForgetResult{}, err
	}
	var res ForgetResult
	if err := json.Unmarshal(data, &res); err != nil {
		return ForgetResult{}, fmt.Errorf("decode forget response: %w", err)
	}
	return res, nil
}

// Archive lists archive entries oldest first.
func (c *Client) Archive(ctx context.Context) ([]archive.Entry, error) {
	data, _, err := c.do(ctx, http.MethodGet, "/api/archive", nil)
	if err != nil {
		return nil, err
	}
	var entries []archive.Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode archive: %w", err)
	}
	return entries, nil
}

func (c *Client) Stats(ctx context.Context) (archive.Stats, error) {
	data, _, err := c.do(ctx, http.MethodGet, "/api/archive/stats", nil)
	if err != nil {
		return archive.Stats{}, err
	}
	var stats archive.Stats
	if err := json.Unmarshal(data, &stats); err != nil {
		return archive.Stats{}, fmt.Errorf("decode stats: %w", err)
	}
	return stats, nil
}

func (c *Client) Clear(ctx context.Context) error {
	_, _, err := c.do(ctx, http.MethodDelete, "/api/archive", nil)
	return err
}

// Healthy checks if the server is reachable.
func (c *Client) Healthy(ctx context.Context) bool {
	_, status, err := c.do(ctx, http.MethodGet, "/api/health", nil)
	return err == nil && status == http.StatusOK
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) ([]byte, int, error) {
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.serverURL+path, r)
	if err != nil {
		return nil, 0, fmt.Errorf("%s %s: %w", method, path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read response %s: %w", path, err)
	}
	if resp.StatusCode >= 400 {
		return data, resp.StatusCode, fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, bytes.TrimSpace(data))
	}
	return data, resp.StatusCode, nil
}
