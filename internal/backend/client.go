// Package backend submits job requests to the remote scraping service.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/law-makers/scrapejob/internal/reqctx"
	"github.com/law-makers/scrapejob/pkg/models"
)

// DefaultEndpoint is the job-submission endpoint of a locally running backend
const DefaultEndpoint = "http://localhost:3000/scrap/"

// maxErrorBody caps how much of a failed response is kept for diagnostics
const maxErrorBody = 4096

// Client sends one job request and returns the raw success payload.
// Errors are *Error values classified as network, server or malformed-response failures.
type Client interface {
	Submit(ctx context.Context, req models.BackendRequest) (json.RawMessage, error)
}

// Option configures an HTTPClient
type Option func(*HTTPClient)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *HTTPClient) {
		c.http = hc
	}
}

// WithUserAgent sets the User-Agent header sent with every request
func WithUserAgent(ua string) Option {
	return func(c *HTTPClient) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithHeaders adds extra headers to every request
func WithHeaders(h map[string]string) Option {
	return func(c *HTTPClient) {
		for k, v := range h {
			c.headers[k] = v
		}
	}
}

// WithTimeout sets the transport-level timeout of the default HTTP client
func WithTimeout(d time.Duration) Option {
	return func(c *HTTPClient) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// HTTPClient posts BackendRequest values as JSON to a fixed endpoint
type HTTPClient struct {
	endpoint  string
	http      *http.Client
	userAgent string
	headers   map[string]string
}

// NewClient creates a client for the given submission endpoint
func NewClient(endpoint string, opts ...Option) *HTTPClient {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	c := &HTTPClient{
		endpoint:  endpoint,
		userAgent: "scrapejob/1.0",
		headers:   make(map[string]string),
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Endpoint returns the URL jobs are posted to
func (c *HTTPClient) Endpoint() string {
	return c.endpoint
}

// CloseIdleConnections releases pooled connections
func (c *HTTPClient) CloseIdleConnections() {
	c.http.CloseIdleConnections()
}

// Submit posts req and returns the response body when the backend answers 2xx with JSON
func (c *HTTPClient) Submit(ctx context.Context, req models.BackendRequest) (json.RawMessage, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	requestID := reqctx.RequestID(ctx)
	logger := reqctx.Logger(ctx)
	logger.Debug().
		Str("endpoint", c.endpoint).
		RawJSON("body", body).
		Msg("Sending job to backend")

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, NewNetworkError("failed to create request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)
	if requestID != "" {
		httpReq.Header.Set(reqctx.HeaderRequestID, requestID)
	}
	for k, v := range c.headers {
		httpReq.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, NewNetworkError("failed to reach backend", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, NewNetworkError("failed to read response", err)
	}

	logger.Debug().
		Int("status", resp.StatusCode).
		Int("bytes", len(payload)).
		Dur("elapsed", time.Since(start)).
		Msg("Backend responded")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, NewServerError(resp.StatusCode, resp.Status, truncate(payload))
	}

	if !json.Valid(payload) {
		return nil, NewMalformedError(resp.StatusCode, truncate(payload), nil)
	}

	return json.RawMessage(payload), nil
}

func truncate(b []byte) string {
	if len(b) > maxErrorBody {
		return string(b[:maxErrorBody])
	}
	return string(b)
}
