package authsdk

import (
	"net/http"
	"strings"
	"time"
)

// SDKClient talks to a jwtshield service. It only needs a base URL.
type SDKClient struct {
	BaseURL    string
	HTTPClient *http.Client

	// headers are sent with every request.
	headers map[string]string
}

// Option configures an SDKClient.
type Option func(*SDKClient)

// WithHTTPClient replaces the default client, e.g. with httptest's.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *SDKClient) { c.HTTPClient = hc }
}

// WithHeader sends a fixed header on every request. Services sitting behind
// a proxy use it to pass X-Forwarded-For along.
func WithHeader(key, value string) Option {
	return func(c *SDKClient) { c.headers[key] = value }
}

// NewSDKClient creates a client with a 10 second timeout unless an option
// says otherwise.
func NewSDKClient(baseURL string, opts ...Option) *SDKClient {
	c := &SDKClient{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		headers: make(map[string]string),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}
