// Package fetch retrieves upstream documents. Every request is bounded by a
// timeout and by an outbound rate limit shared by all callers of a Client.
package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gregjones/httpcache"
	"golang.org/x/time/rate"
)

const (
	DefaultTimeout   = 10 * time.Second
	DefaultUserAgent = "feedgate/1.0"

	maxBodyBytes = 5 << 20
)

// ErrBodyTooLarge is returned when an upstream body exceeds the read limit
var ErrBodyTooLarge = errors.New("upstream body too large")

// StatusError is returned for non-2xx upstream responses
type StatusError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: %s", e.URL, e.Status)
}

type Client struct {
	http      *http.Client
	limiter   *rate.Limiter
	timeout   time.Duration
	userAgent string
	onResult  func(err error)
	maxBody   int64
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithRateLimit caps outbound requests at rps with the given burst.
// rps <= 0 disables the cap.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithMaxBody caps the size of an upstream body. Larger bodies are errors.
func WithMaxBody(n int64) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxBody = n
		}
	}
}

// WithResultHook registers a callback invoked after every fetch with its error (nil on success)
func WithResultHook(fn func(err error)) Option {
	return func(c *Client) { c.onResult = fn }
}

// New creates a client. By default responses go through an in-memory
// HTTP cache that honours upstream Cache-Control/ETag headers.
func New(opts ...Option) *Client {
	c := &Client{
		http:      &http.Client{Transport: httpcache.NewMemoryCacheTransport()},
		timeout:   DefaultTimeout,
		userAgent: DefaultUserAgent,
		maxBody:   maxBodyBytes,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Get returns the body of url. Timeouts, transport failures and non-2xx
// statuses are errors.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	body, err := c.get(ctx, url)
	if c.onResult != nil {
		c.onResult(err)
	}
	return body, err
}

// GetJSON fetches url and decodes the body into out
func (c *Client) GetJSON(ctx context.Context, url string, out any) error {
	body, err := c.Get(ctx, url)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s: %w", url, err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("wait for upstream slot: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode, Status: resp.Status}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}
	if int64(len(body)) > c.maxBody {
		return nil, fmt.Errorf("read %s: %w (limit %d bytes)", url, ErrBodyTooLarge, c.maxBody)
	}
	return body, nil
}
