// Package client talks to a running honeypot service over HTTP.
package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/Mayank-Dandane/honeypot-api/pkg/models"
)

const (
	// DefaultPort matches the service default.
	DefaultPort = 8080
	// DefaultTimeout bounds every request made by the client.
	DefaultTimeout = 30 * time.Second
)

// ErrNotFound is returned when the service has no record of the requested resource.
var ErrNotFound = errors.New("not found")

// Client calls the honeypot HTTP API.
type Client struct {
	http    *http.Client
	baseURL string
	apiKey  string
}

// Option configures a Client.
type Option func(*Client)

// WithAPIKey sets the x-api-key header sent on every request.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// New creates a client for the service at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// LocalURL returns the loopback URL of a local service, honouring HONEYPOT_PORT.
func LocalURL() string {
	port := DefaultPort
	if v := os.Getenv("HONEYPOT_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil && p > 0 {
			port = p
		}
	}
	return fmt.Sprintf("http://127.0.0.1:%d", port)
}

// Health is the body of the health endpoint.
type Health struct {
	Status         string  `json:"status"`
	Version        string  `json:"version"`
	ActiveSessions int     `json:"activeSessions"`
	UptimeSeconds  float64 `json:"uptimeSeconds"`
}

// SendTurn posts one conversation turn and returns the persona reply.
func (c *Client) SendTurn(ctx context.Context, req models.TurnRequest) (models.TurnResponse, error) {
	var resp models.TurnResponse
	body, err := json.Marshal(req)
	if err != nil {
		return resp, fmt.Errorf("encode turn: %w", err)
	}
	err = c.do(ctx, http.MethodPost, "/api/honeypot", body, &resp)
	return resp, err
}

// Health fetches the service health.
func (c *Client) Health(ctx context.Context) (Health, error) {
	var h Health
	err := c.do(ctx, http.MethodGet, "/api/health", nil, &h)
	return h, err
}

// IsRunning reports whether the service answers its health check.
func (c *Client) IsRunning(ctx context.Context) bool {
	h, err := c.Health(ctx)
	return err == nil && h.Status == "ok"
}

// GetSession fetches the current view of a session.
func (c *Client) GetSession(ctx context.Context, id string) (models.SessionView, error) {
	var view models.SessionView
	err := c.do(ctx, http.MethodGet, "/api/sessions/"+url.PathEscape(id), nil, &view)
	return view, err
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode != http.StatusOK:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
