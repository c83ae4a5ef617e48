// Package frappe calls whitelisted methods of a Frappe/ERPNext site over its
// REST API.
package frappe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrNotConfigured is returned when no site URL is set.
var ErrNotConfigured = errors.New("frappe: site url not configured")

// RPCError is a server-side exception reported in a method response.
type RPCError struct {
	Method    string
	Status    int
	ExcType   string
	Exception string
	Messages  []string
}

func (e *RPCError) Error() string {
	msg := e.Exception
	if len(e.Messages) > 0 {
		msg = strings.Join(e.Messages, "; ")
	}
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	if e.ExcType != "" {
		return fmt.Sprintf("frappe: %s: %s: %s", e.Method, e.ExcType, msg)
	}
	return fmt.Sprintf("frappe: %s: %s", e.Method, msg)
}

// Config configures the client.
type Config struct {
	BaseURL   string
	APIKey    string
	APISecret string
	Timeout   time.Duration
}

// Client calls methods on one site.
type Client struct {
	base   *url.URL
	auth   string
	http   *http.Client
	logger *slog.Logger
}

// NewClient validates cfg and builds a client.
func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, ErrNotConfigured
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("frappe: parse base url: %w", err)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{base: base, http: &http.Client{Timeout: cfg.Timeout}, logger: logger}
	if cfg.APIKey != "" {
		c.auth = "token " + cfg.APIKey + ":" + cfg.APISecret
	}
	return c, nil
}

type envelope struct {
	Message        json.RawMessage `json:"message"`
	Exc            string          `json:"exc"`
	ExcType        string          `json:"exc_type"`
	Exception      string          `json:"exception"`
	ServerMessages string          `json:"_server_messages"`
}

// Call posts args to /api/method/<method> and decodes the message into out.
// out may be nil.
func (c *Client) Call(ctx context.Context, method string, args map[string]any, out any) error {
	body, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("frappe: encode %s args: %w", method, err)
	}
	endpoint := c.base.JoinPath("api", "method", method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("frappe: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.auth != "" {
		req.Header.Set("Authorization", c.auth)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("frappe: %s: %w", method, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return fmt.Errorf("frappe: read %s response: %w", method, err)
	}
	c.logger.Debug("frappe call", slog.String("method", method), slog.Int("status", resp.StatusCode), slog.Duration("duration", time.Since(start)))

	var env envelope
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil && resp.StatusCode < 300 {
			return fmt.Errorf("frappe: decode %s response: %w", method, err)
		}
	}
	if resp.StatusCode >= 300 || env.Exc != "" || env.ExcType != "" {
		return &RPCError{
			Method:    method,
			Status:    resp.StatusCode,
			ExcType:   env.ExcType,
			Exception: env.Exception,
			Messages:  serverMessages(env.ServerMessages),
		}
	}
	if out == nil || len(env.Message) == 0 || string(env.Message) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Message, out); err != nil {
		return fmt.Errorf("frappe: decode %s message: %w", method, err)
	}
	return nil
}

// serverMessages unpacks _server_messages: a JSON list of JSON encoded
// message objects.
func serverMessages(raw string) []string {
	if raw == "" {
		return nil
	}
	var encoded []string
	if err := json.Unmarshal([]byte(raw), &encoded); err != nil {
		return nil
	}
	out := make([]string, 0, len(encoded))
	for _, e := range encoded {
		var m struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal([]byte(e), &m); err == nil && m.Message != "" {
			out = append(out, m.Message)
			continue
		}
		out = append(out, e)
	}
	return out
}
