// Package spotify provides a thin authorized client for the Spotify Web API.
package spotify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"
)

const (
	apiBaseURL = "https://api.spotify.com/v1"
	userAgent  = "spotify-mood-mixer/1.0"

	requestTimeout = 10 * time.Second
)

// APIError is returned for any response with status >= 400, and for transport
// failures including timeouts (StatusCode 0). The client never retries;
// callers decide whether a failure triggers a fallback.
type APIError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("spotify: request %s failed: %s", e.URL, e.Body)
	}
	return fmt.Sprintf("spotify: %s -> %d: %s", e.URL, e.StatusCode, e.Body)
}

// Client is a Spotify Web API client. Every call attaches the caller's bearer
// token; token lifecycle lives in the auth package. One Client is shared
// across all users.
type Client struct {
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBaseURL overrides the API base URL.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = u
	}
}

// WithRateLimit enables client-side request limiting at rps requests per
// second. Zero or negative leaves limiting disabled.
func WithRateLimit(rps int) Option {
	return func(c *Client) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// NewClient creates a Spotify Web API client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: requestTimeout},
		baseURL:    apiBaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// get performs an authorized GET request and decodes the JSON response into dst.
func (c *Client) get(ctx context.Context, token, endpoint string, params url.Values, dst any) error {
	reqURL := c.baseURL + endpoint
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	return c.do(req, token, dst)
}

// post performs an authorized POST request with a JSON body and decodes the
// response into dst when dst is non-nil.
func (c *Client) post(ctx context.Context, token, endpoint string, payload, dst any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, token, dst)
}

// do executes the request, mapping any status >= 400 and any transport
// failure to *APIError.
func (c *Client) do(req *http.Request, token string, dst any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(req.Context()); err != nil {
			return fmt.Errorf("waiting for rate limiter: %w", err)
		}
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &APIError{URL: req.URL.String(), Body: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		return &APIError{
			StatusCode: resp.StatusCode,
			URL:        req.URL.String(),
			Body:       string(body),
		}
	}

	if dst == nil {
		return nil
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("parsing response from %s: %w", req.URL.Path, err)
	}
	return nil
}
