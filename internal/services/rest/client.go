package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	defaultHTTPTimeout    = 30 * time.Second
	defaultRetryMaxDelay  = 10 * time.Second
	defaultRetryBaseDelay = 500 * time.Millisecond
	defaultRetryAttempts  = 3
	maxErrorBody          = 512
)

// Config captures the runtime settings for one REST collaborator.
type Config struct {
	Name           string
	BaseURL        string
	Token          string
	TimeoutSeconds int
}

// Client issues authenticated JSON requests against a base URL.
type Client struct {
	cfg        Config
	httpClient *http.Client
	timeout    time.Duration

	retryMaxAttempts int
	retryBaseDelay   time.Duration
	retryMaxDelay    time.Duration
	sleeper          func(context.Context, time.Duration) error
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithRetryMaxAttempts overrides the default retry count.
func WithRetryMaxAttempts(attempts int) Option {
	return func(c *Client) {
		c.retryMaxAttempts = attempts
	}
}

// WithRetryBackoff overrides the retry backoff delays.
func WithRetryBackoff(baseDelay, maxDelay time.Duration) Option {
	return func(c *Client) {
		c.retryBaseDelay = baseDelay
		c.retryMaxDelay = maxDelay
	}
}

// NewClient constructs a client for the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			Name:           strings.TrimSpace(cfg.Name),
			BaseURL:        strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
			Token:          strings.TrimSpace(cfg.Token),
			TimeoutSeconds: cfg.TimeoutSeconds,
		},
		httpClient:       newHTTPClient(timeout),
		timeout:          timeout,
		retryMaxAttempts: defaultRetryAttempts,
		retryBaseDelay:   defaultRetryBaseDelay,
		retryMaxDelay:    defaultRetryMaxDelay,
		sleeper:          sleepContext,
	}
	if client.cfg.Name == "" {
		client.cfg.Name = "rest"
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// newHTTPClient bounds the wait for response headers only. Bodies may stream
// for as long as the caller's context allows, so large object transfers are
// not cut off mid-stream.
func newHTTPClient(timeout time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.ResponseHeaderTimeout = timeout
	return &http.Client{Transport: transport}
}

// BaseURL returns the normalized base URL.
func (c *Client) BaseURL() string {
	return c.cfg.BaseURL
}

// StatusError reports a non-2xx response.
type StatusError struct {
	Op         string
	StatusCode int
	Body       string
	RetryAfter time.Duration
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: http %d: %s", e.Op, e.StatusCode, e.Body)
}

// NotFound reports whether the response was a 404.
func (e *StatusError) NotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// Transient reports whether the status is worth retrying.
func (e *StatusError) Transient() bool {
	return e.StatusCode == http.StatusRequestTimeout ||
		e.StatusCode == http.StatusTooManyRequests ||
		e.StatusCode >= http.StatusInternalServerError
}

// IsNotFound reports whether err carries a 404 response.
func IsNotFound(err error) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.NotFound()
}

// IsTransient reports whether err carries a retryable response or network timeout.
func IsTransient(err error) bool {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Transient()
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// DoJSON sends in (when non-nil) as a JSON body and decodes the response into
// out (when non-nil). path is joined onto the base URL.
func (c *Client) DoJSON(ctx context.Context, method, path string, in, out any) error {
	var encoded []byte
	if in != nil {
		var err error
		encoded, err = json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s %s: encode body: %w", c.cfg.Name, path, err)
		}
	}
	op := fmt.Sprintf("%s %s %s", c.cfg.Name, method, path)
	return c.withRetry(ctx, op, func() error {
		attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()
		var body io.Reader
		if encoded != nil {
			body = bytes.NewReader(encoded)
		}
		resp, err := c.send(attemptCtx, op, method, path, body, "application/json")
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if out == nil {
			_, _ = io.Copy(io.Discard, resp.Body)
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("%s: decode response: %w", op, err)
		}
		return nil
	})
}

// Download streams the response body for path into w. It is not retried
// because w may already hold a partial body. Only the wait for headers is
// bounded by the client timeout; the transfer itself runs under ctx.
func (c *Client) Download(ctx context.Context, path string, w io.Writer) (int64, error) {
	op := fmt.Sprintf("%s GET %s", c.cfg.Name, path)
	resp, err := c.send(ctx, op, http.MethodGet, path, nil, "")
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, fmt.Errorf("%s: read body: %w", op, err)
	}
	return n, nil
}

// Upload sends body to path with PUT. open is called once per attempt so the
// body can be replayed on retry.
func (c *Client) Upload(ctx context.Context, path, contentType string, open func() (io.ReadCloser, error)) error {
	op := fmt.Sprintf("%s PUT %s", c.cfg.Name, path)
	return c.withRetry(ctx, op, func() error {
		body, err := open()
		if err != nil {
			return fmt.Errorf("%s: open body: %w", op, err)
		}
		defer body.Close()
		resp, err := c.send(ctx, op, http.MethodPut, path, body, contentType)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	})
}

func (c *Client) send(ctx context.Context, op, method, path string, body io.Reader, contentType string) (*http.Response, error) {
	endpoint, err := url.JoinPath(c.cfg.BaseURL, path)
	if err != nil {
		return nil, fmt.Errorf("%s: build url: %w", op, err)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("%s: new request: %w", op, err)
	}
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	}
	if body != nil && contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: http error (timeout=%s): %w", op, c.timeout, err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		defer resp.Body.Close()
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		retryAfter, _ := parseRetryAfter(resp.Header.Get("Retry-After"))
		return nil, &StatusError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(snippet)),
			RetryAfter: retryAfter,
		}
	}
	return resp, nil
}

func (c *Client) withRetry(ctx context.Context, op string, attemptFn func() error) error {
	attempts := c.retryMaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		err := attemptFn()
		if err == nil {
			return nil
		}
		lastErr = err
		delay, retry := c.retryDelay(ctx, err, attempt, attempts)
		if !retry {
			return err
		}
		if err := c.sleeper(ctx, delay); err != nil {
			return err
		}
	}
	return fmt.Errorf("%s: failed after %d attempts: %w", op, attempts, lastErr)
}

func (c *Client) retryDelay(ctx context.Context, err error, attempt, maxAttempts int) (time.Duration, bool) {
	if attempt >= maxAttempts || ctx.Err() != nil {
		return 0, false
	}
	if errors.Is(err, context.Canceled) {
		return 0, false
	}
	// A per-attempt deadline with a live parent context is a slow server.
	if errors.Is(err, context.DeadlineExceeded) {
		return c.backoffDelay(attempt), true
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		if !statusErr.Transient() {
			return 0, false
		}
		if statusErr.RetryAfter > 0 {
			return min(statusErr.RetryAfter, c.retryMaxDelay), true
		}
		return c.backoffDelay(attempt), true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return c.backoffDelay(attempt), true
	}
	return 0, false
}

// backoffDelay doubles from the base delay: attempt 1 -> base, 2 -> 2*base.
func (c *Client) backoffDelay(attempt int) time.Duration {
	if c.retryBaseDelay <= 0 {
		return 0
	}
	delay := c.retryBaseDelay
	for i := 1; i < attempt; i++ {
		if delay > c.retryMaxDelay/2 {
			return c.retryMaxDelay
		}
		delay *= 2
	}
	return min(delay, c.retryMaxDelay)
}

func parseRetryAfter(value string) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	if seconds, err := strconv.Atoi(value); err == nil && seconds >= 0 {
		return time.Duration(seconds) * time.Second, true
	}
	if when, err := http.ParseTime(value); err == nil {
		if d := time.Until(when); d > 0 {
			return d, true
		}
	}
	return 0, false
}

func sleepContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
