package readwise

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/readwise-mcp/internal/httpclient"
)

const (
	// DefaultBaseURL is the Reader (v3) API base.
	DefaultBaseURL = "https://readwise.io/api/v3"

	// DefaultV2BaseURL is the Highlights (v2) API base.
	DefaultV2BaseURL = "https://readwise.io/api/v2"

	// DefaultAuthURL is the token validation endpoint.
	DefaultAuthURL = "https://readwise.io/api/v2/auth/"

	// DefaultTimeout is the default HTTP timeout.
	DefaultTimeout = 30 * time.Second
)

// APIVersion selects which base URL a relative endpoint is joined to.
type APIVersion int

const (
	V3 APIVersion = iota
	V2
)

// Client is a Readwise API client. It performs exactly one attempt per call;
// retrying after a RateLimitError is left to the caller.
type Client struct {
	baseURL    string
	v2BaseURL  string
	authURL    string
	token      string
	httpClient *http.Client
	logger     arbor.ILogger
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithBaseURL sets a custom v3 base URL.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithV2BaseURL sets a custom v2 base URL.
func WithV2BaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.v2BaseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithAuthURL sets a custom auth validation URL.
func WithAuthURL(authURL string) ClientOption {
	return func(c *Client) {
		c.authURL = authURL
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTimeout replaces the HTTP client with one using the given timeout.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient = httpclient.NewDefaultHTTPClient(timeout)
		}
	}
}

// WithLogger sets a logger.
func WithLogger(logger arbor.ILogger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a new Readwise API client. An empty token is rejected.
func NewClient(token string, opts ...ClientOption) (*Client, error) {
	if strings.TrimSpace(token) == "" {
		return nil, &ValidationError{Field: "token", Message: "READWISE_TOKEN environment variable is required"}
	}

	c := &Client{
		baseURL:    DefaultBaseURL,
		v2BaseURL:  DefaultV2BaseURL,
		authURL:    DefaultAuthURL,
		token:      token,
		httpClient: httpclient.NewDefaultHTTPClient(DefaultTimeout),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// resolve joins endpoint to the base of the given version unless it is already absolute.
func (c *Client) resolve(endpoint string, version APIVersion, query url.Values) string {
	reqURL := endpoint
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		base := c.baseURL
		if version == V2 {
			base = c.v2BaseURL
		}
		reqURL = base + endpoint
	}
	if len(query) > 0 {
		sep := "?"
		if strings.Contains(reqURL, "?") {
			sep = "&"
		}
		reqURL = reqURL + sep + query.Encode()
	}
	return reqURL
}

// do performs one request. out is left untouched when the response has no body.
func (c *Client) do(ctx context.Context, method, endpoint string, version APIVersion, query url.Values, body, out interface{}) error {
	reqURL := c.resolve(endpoint, version, query)

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Token "+c.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	if c.logger != nil {
		c.logger.Debug().
			Str("method", method).
			Str("endpoint", endpoint).
			Msg("Readwise API request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"))
		if c.logger != nil {
			c.logger.Warn().
				Str("endpoint", endpoint).
				Int("retry_after_seconds", int(retryAfter/time.Second)).
				Msg("Readwise API rate limited")
		}
		return &RateLimitError{RetryAfter: retryAfter}
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return &APIError{
			StatusCode: resp.StatusCode,
			Body:       string(data),
			Endpoint:   endpoint,
		}
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// parseRetryAfter reads a Retry-After value in seconds, falling back to DefaultRetryAfter.
func parseRetryAfter(value string) time.Duration {
	seconds, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || seconds < 0 {
		return DefaultRetryAfter
	}
	return time.Duration(seconds) * time.Second
}

// ValidateAuth checks the token against the auth endpoint.
func (c *Client) ValidateAuth(ctx context.Context) error {
	if err := c.do(ctx, http.MethodGet, c.authURL, V2, nil, nil, nil); err != nil {
		return fmt.Errorf("validate auth: %w", err)
	}
	return nil
}
