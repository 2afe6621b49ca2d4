package patentsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kailas-cloud/patentsearch/internal/version"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultRetryWait = 500 * time.Millisecond
	maxRetryWait     = 30 * time.Second
)

// maxErrorBody bounds how much of a non-JSON error body is kept.
const maxErrorBody = 4 << 10

// Client is the patentsearch SDK entry point. It is safe for concurrent use.
type Client struct {
	baseURL   string
	http      *http.Client
	apiKey    string
	userAgent string
	retries   int
	retryWait time.Duration
	obs       *observer
}

// New creates a Client for the API at baseURL (scheme and host, optionally a path prefix).
func New(baseURL string, opts ...Option) (*Client, error) {
	cfg := &settings{
		timeout:   defaultTimeout,
		userAgent: "patentsearch-go/" + version.Version,
		retryWait: defaultRetryWait,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.retryWait <= 0 {
		cfg.retryWait = defaultRetryWait
	}

	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("patentsearch: parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("patentsearch: base url must be http or https, got %q", baseURL)
	}

	hc := cfg.httpClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.timeout}
	}

	obs := &observer{log: cfg.logger}
	if cfg.registerer != nil {
		if obs.metrics, err = newSDKMetrics(cfg.registerer); err != nil {
			return nil, err
		}
	}
	return &Client{
		baseURL:   u.String(),
		http:      hc,
		apiKey:    cfg.apiKey,
		userAgent: cfg.userAgent,
		retries:   cfg.retries,
		retryWait: cfg.retryWait,
		obs:       obs,
	}, nil
}

// call runs one API request, retrying transient answers, and records it
// under op.
func (c *Client) call(
	ctx context.Context, op, method, path string, query url.Values, in, out any,
) (err error) {
	start := time.Now()
	defer func() { c.obs.done(op, start, err) }()

	for attempt := 0; ; attempt++ {
		err = c.do(ctx, method, path, query, in, out)
		if err == nil || attempt >= c.retries || !IsRetryable(err) {
			return err
		}
		wait := c.backoff(attempt, err)
		c.obs.retried(op, attempt+1, wait, err)
		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return fmt.Errorf("patentsearch: %s: %w (last error: %w)", op, ctx.Err(), err)
		case <-t.C:
		}
	}
}

// backoff doubles from the base wait unless the server sent Retry-After.
func (c *Client) backoff(attempt int, err error) time.Duration {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.RetryAfter > 0 {
		return min(apiErr.RetryAfter, maxRetryWait)
	}
	return min(c.retryWait<<attempt, maxRetryWait)
}

// do sends in as JSON (when non-nil) and decodes a 2xx body into out (when non-nil).
// path must already be escaped.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	target := c.baseURL + path
	if q := query.Encode(); q != "" {
		target += "?" + q
	}

	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("patentsearch: encode request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("patentsearch: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("patentsearch: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("patentsearch: decode %s response: %w", path, err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	apiErr := &APIError{
		StatusCode: resp.StatusCode,
		RetryAfter: retryAfter(resp.Header),
	}
	var eb errorBody
	if err := json.Unmarshal(raw, &eb); err == nil && eb.Code != "" {
		apiErr.Code = eb.Code
		apiErr.Message = eb.Message
	} else {
		apiErr.Message = strings.TrimSpace(string(raw))
	}
	return apiErr
}

// Health reports server health. The endpoint answers 200 even when degraded,
// so inspect Status.
func (c *Client) Health(ctx context.Context) (HealthStatus, error) {
	var h HealthStatus
	err := c.call(ctx, "health", http.MethodGet, "/health", nil, nil, &h)
	return h, err
}

// IsRetryable reports whether err is a transient server-side condition.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrRateLimited) ||
		errors.Is(err, ErrLexicalUnavailable) ||
		errors.Is(err, ErrVectorUnavailable) ||
		errors.Is(err, ErrIdentityUnavailable) ||
		errors.Is(err, ErrTimeout)
}
