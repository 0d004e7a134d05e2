// Package fetch provides the HTTP GET client shared by network-backed detectors.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"time"
)

const (
	// DefaultMaxRetries is the total number of attempts per request.
	DefaultMaxRetries = 3
	// DefaultRetryDelay is the wait before the first retry.
	DefaultRetryDelay = time.Second
	// DefaultBackoff multiplies the delay after each retry.
	DefaultBackoff = 2.0
	// DefaultTimeout bounds a single attempt.
	DefaultTimeout = 30 * time.Second
	// DefaultMaxBodySize caps a response body.
	DefaultMaxBodySize = 64 << 20
)

// ErrBodyTooLarge is returned when a response exceeds the body size cap.
var ErrBodyTooLarge = errors.New("response body too large")

// StatusError is returned for non-2xx responses.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: HTTP %d", e.URL, e.Code)
}

// Retryable reports whether the status is worth retrying.
func (e *StatusError) Retryable() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= http.StatusInternalServerError
}

// Options configures a Client.
type Options struct {
	// MaxRetries is the total number of attempts, including the first.
	MaxRetries  int
	MaxBodySize int64
	RetryDelay time.Duration
	Backoff    float64
	Timeout    time.Duration
	UserAgent  string
	// Transport overrides the HTTP transport, mostly for tests.
	Transport http.RoundTripper
}

// Client performs GET requests with exponential backoff on 429, 5xx and
// network errors. Other 4xx responses fail immediately.
type Client struct {
	http    *http.Client
	opts    Options
	sleeper func(ctx context.Context, d time.Duration) error
}

// NewClient creates a Client, filling zero options with defaults.
func NewClient(opts Options) *Client {
	if opts.MaxRetries < 1 {
		opts.MaxRetries = 1
	}

	if opts.MaxBodySize <= 0 {
		opts.MaxBodySize = DefaultMaxBodySize
	}

	if opts.RetryDelay <= 0 {
		opts.RetryDelay = DefaultRetryDelay
	}

	if opts.Backoff < 1 {
		opts.Backoff = DefaultBackoff
	}

	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}

	if opts.UserAgent == "" {
		opts.UserAgent = "auxmark/1.0"
	}

	return &Client{
		http:    &http.Client{Timeout: opts.Timeout, Transport: opts.Transport},
		opts:    opts,
		sleeper: sleep,
	}
}

// Response is a successful GET result.
type Response struct {
	Body        []byte
	ContentType string
}

// Get fetches url, retrying transient failures.
func (c *Client) Get(ctx context.Context, url string) (*Response, error) {
	var lastErr error

	for attempt := 1; attempt <= c.opts.MaxRetries; attempt++ {
		if attempt > 1 {
			delay := c.delay(attempt)
			slog.Debug("Retrying request", "url", url, "attempt", attempt, "delay", delay, "error", lastErr)

			if err := c.sleeper(ctx, delay); err != nil {
				return nil, err
			}
		}

		resp, err := c.get(ctx, url)
		if err == nil {
			return resp, nil
		}

		lastErr = err

		if !retryable(ctx, err) {
			return nil, err
		}
	}

	return nil, fmt.Errorf("giving up after %d attempts: %w", c.opts.MaxRetries, lastErr)
}

func (c *Client) get(ctx context.Context, url string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("User-Agent", c.opts.UserAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, c.opts.MaxBodySize))
		return nil, &StatusError{URL: url, Code: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.opts.MaxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("read body of %s: %w", url, err)
	}

	if int64(len(body)) > c.opts.MaxBodySize {
		return nil, fmt.Errorf("GET %s: %w (limit %d bytes)", url, ErrBodyTooLarge, c.opts.MaxBodySize)
	}

	return &Response{Body: body, ContentType: resp.Header.Get("Content-Type")}, nil
}

// delay is the wait before the given attempt (2 or later).
func (c *Client) delay(attempt int) time.Duration {
	return time.Duration(float64(c.opts.RetryDelay) * math.Pow(c.opts.Backoff, float64(attempt-2)))
}

func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil || errors.Is(err, ErrBodyTooLarge) {
		return false
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Retryable()
	}

	return true
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
