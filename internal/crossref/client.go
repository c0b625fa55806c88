package crossref

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	// BaseURL is the public Crossref REST API.
	BaseURL = "https://api.crossref.org"

	// DefaultTimeout is the HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultDelay is the fixed pause between consecutive requests.
	DefaultDelay = time.Second

	// UserAgent identifies bibnet to Crossref. The contact address is
	// appended when one is configured.
	UserAgent = "bibnet/1.0"

	// maxBodyBytes bounds how much of a response body is decoded.
	maxBodyBytes = 32 << 20
)

// Client is a throttled HTTP client for the Crossref REST API. Requests are
// issued one at a time with a fixed delay between them and are never
// retried.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
	mailto     string
	delay      time.Duration
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithMailto sets the contact address sent with every request.
func WithMailto(email string) ClientOption {
	return func(c *Client) {
		c.mailto = strings.TrimSpace(email)
	}
}

// WithDelay sets the pause between consecutive requests. Zero disables
// throttling.
func WithDelay(d time.Duration) ClientOption {
	return func(c *Client) {
		c.delay = d
	}
}

// NewClient creates a new Crossref client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		baseURL:    BaseURL,
		delay:      DefaultDelay,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.delay > 0 {
		c.limiter = rate.NewLimiter(rate.Every(c.delay), 1)
	} else {
		c.limiter = rate.NewLimiter(rate.Inf, 1)
	}
	return c
}

// Mailto returns the configured contact address.
func (c *Client) Mailto() string {
	return c.mailto
}

func (c *Client) userAgent() string {
	if c.mailto == "" {
		return UserAgent
	}
	return fmt.Sprintf("%s (mailto:%s)", UserAgent, c.mailto)
}

// getJSON waits for the limiter, issues a GET and decodes the response into v.
func (c *Client) getJSON(ctx context.Context, path string, params url.Values, v any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	if params == nil {
		params = url.Values{}
	}
	if c.mailto != "" {
		params.Set("mailto", c.mailto)
	}

	u := c.baseURL + path
	if q := params.Encode(); q != "" {
		u += "?" + q
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent())
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", ErrNetworkError, err)
	}
	defer resp.Body.Close()

	if err := checkHTTPErrors(resp); err != nil {
		return err
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return nil
}

// checkHTTPErrors returns an error if the HTTP response indicates a problem.
func checkHTTPErrors(resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: status %d", ErrNotFound, resp.StatusCode)
	case resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: status %d", ErrRateLimited, resp.StatusCode)
	case resp.StatusCode >= 400:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		msg := strings.TrimSpace(string(body))
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &APIError{StatusCode: resp.StatusCode, Message: msg}
	}
	return nil
}
