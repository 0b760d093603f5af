// Package api talks to the marketplace REST backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrUnreachable means no HTTP response was received from the backend.
	ErrUnreachable = errors.New("backend unreachable")
	// ErrUnauthorized matches 401 and 403 responses.
	ErrUnauthorized = errors.New("unauthorized")
)

// StatusError is a non-2xx response. Message is taken from the response body when possible.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return e.Message
}

func (e *StatusError) Is(target error) bool {
	return target == ErrUnauthorized &&
		(e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden)
}

// TokenSource supplies the bearer token, if any.
type TokenSource interface {
	Token() (string, bool)
}

// Config configures the backend client.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
	Tokens     TokenSource
	Logger     *zap.Logger
	HTTPClient *http.Client
}

type Client struct {
	baseURL    string
	client     *http.Client
	maxRetries int
	retryBase  time.Duration
	tokens     TokenSource
	logger     *zap.Logger
}

// NewClient creates a backend client using the provided configuration.
func NewClient(cfg Config) *Client {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = "http://localhost:4000"
	}
	t := cfg.Timeout
	if t == 0 {
		t = 15 * time.Second
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: t}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	retries := cfg.MaxRetries
	if retries < 0 {
		retries = 0
	}
	return &Client{
		baseURL:    base,
		client:     hc,
		maxRetries: retries,
		retryBase:  200 * time.Millisecond,
		tokens:     cfg.Tokens,
		logger:     logger,
	}
}

func (c *Client) BaseURL() string { return c.baseURL }

type request struct {
	method string
	path   string
	body   any
	token  string
	// retry is only safe for idempotent requests.
	retry bool
}

// do sends req and decodes a 2xx JSON body into out.
func (c *Client) do(ctx context.Context, req request, out any) error {
	endpoint := c.baseURL + req.path

	var payload []byte
	if req.body != nil {
		var err error
		payload, err = json.Marshal(req.body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
	}

	attempts := 1
	if req.retry {
		attempts += c.maxRetries
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			if err := sleepCtx(ctx, c.retryDelay(attempt-1)); err != nil {
				return lastErr
			}
		}

		status, body, err := c.send(ctx, req, endpoint, payload)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				return err
			}
			continue
		}

		if status == http.StatusTooManyRequests || status >= 500 {
			lastErr = statusError(status, body, "request to "+req.path)
			continue
		}
		if status < 200 || status >= 300 {
			return statusError(status, body, "request to "+req.path)
		}

		if out == nil {
			return nil
		}
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("failed to decode response from %s: %w", req.path, err)
		}
		return nil
	}
	return lastErr
}

func (c *Client) send(ctx context.Context, req request, endpoint string, payload []byte) (int, []byte, error) {
	var rdr io.Reader
	if payload != nil {
		rdr = bytes.NewReader(payload)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.method, endpoint, rdr)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to build request: %w", err)
	}
	requestID := uuid.NewString()
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-ID", requestID)
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if req.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.token)
	}

	start := time.Now()
	resp, err := c.client.Do(httpReq)
	if err != nil {
		c.logger.Debug("request failed",
			zap.String("method", req.method),
			zap.String("path", req.path),
			zap.String("request_id", requestID),
			zap.Error(err))
		return 0, nil, transportError(ctx, endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read response from %s: %w", req.path, err)
	}

	c.logger.Debug("request completed",
		zap.String("method", req.method),
		zap.String("path", req.path),
		zap.String("request_id", requestID),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	return resp.StatusCode, body, nil
}

func (c *Client) optionalToken() string {
	if c.tokens == nil {
		return ""
	}
	if tok, ok := c.tokens.Token(); ok {
		return tok
	}
	return ""
}

func transportError(ctx context.Context, endpoint string, err error) error {
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return fmt.Errorf("request to %s timed out: %w", endpoint, ctx.Err())
	case errors.Is(ctx.Err(), context.Canceled):
		return ctx.Err()
	}
	return fmt.Errorf("%w: cannot connect to backend server at %s, make sure the backend is running: %v",
		ErrUnreachable, endpoint, err)
}

// statusError picks the most useful message out of an error response.
func statusError(status int, body []byte, what string) error {
	msg := fmt.Sprintf("%s failed (%d)", what, status)

	var parsed struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil {
		switch {
		case parsed.Error != "":
			msg = parsed.Error
		case parsed.Message != "":
			msg = parsed.Message
		}
	} else if text := strings.TrimSpace(string(body)); text != "" {
		msg = text
	}

	return &StatusError{StatusCode: status, Message: msg}
}

func (c *Client) retryDelay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	// exponential backoff capped at 5s
	d := c.retryBase << attempt
	if d > 5*time.Second {
		d = 5 * time.Second
	}
	return d
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// flexID accepts identifiers encoded either as JSON strings or numbers.
type flexID string

func (f *flexID) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexID(n.String())
	return nil
}

func parseTime(raw string) *time.Time {
	if raw == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t
		}
	}
	return nil
}

// sortOrder treats a missing sort_order as 0.
func sortOrder(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}
