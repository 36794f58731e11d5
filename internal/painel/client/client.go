// Package client provides an HTTP client for the painel backend API
package client

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultTimeout bounds every backend request
const DefaultTimeout = 30 * time.Second

// Client provides methods for interacting with the painel backend
type Client struct {
	// baseURL is the root URL for all API requests
	baseURL *url.URL
	// httpClient is the underlying HTTP client
	httpClient *http.Client
	// userAgent identifies the player to the backend
	userAgent string
}

// ClientOption configures a Client
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the per-request timeout
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithTLSConfig sets custom TLS configuration
func WithTLSConfig(config *tls.Config) ClientOption {
	return func(c *Client) {
		c.httpClient = &http.Client{
			Transport: &http.Transport{TLSClientConfig: config},
			Timeout:   c.httpClient.Timeout,
		}
	}
}

// WithUserAgent sets the User-Agent header
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// NewClient creates a new API client
func NewClient(baseURL string, options ...ClientOption) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid base URL %q: scheme must be http or https", baseURL)
	}
	u.Path = strings.TrimRight(u.Path, "/")

	c := &Client{
		baseURL: u,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		userAgent: "painel",
	}

	for _, opt := range options {
		opt(c)
	}

	return c, nil
}

// BaseURL returns the configured backend root
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// doRequest performs an HTTP request and returns the response when the
// status is 2xx. Non-2xx responses are converted to *StatusError.
func (c *Client) doRequest(ctx context.Context, method, pathStr string, body interface{}) (*http.Response, error) {
	// pathStr is already escaped. The backend routes end with a slash, so
	// it is appended verbatim.
	u := *c.baseURL
	u.RawPath = c.baseURL.EscapedPath() + pathStr
	unescaped, err := url.PathUnescape(u.RawPath)
	if err != nil {
		return nil, fmt.Errorf("error building request path: %w", err)
	}
	u.Path = unescaped

	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("error encoding request body: %w", err)
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), bodyReader)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error sending request: %w", err)
	}

	if err := handleResponse(resp); err != nil {
		return nil, err
	}
	return resp, nil
}
