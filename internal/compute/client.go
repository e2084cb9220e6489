package compute

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/novacheck/novacheck/internal/config"
	"github.com/novacheck/novacheck/internal/logging"
)

const (
	// DefaultTimeout is the default HTTP request timeout
	DefaultTimeout = 60 * time.Second

	// DefaultMaxRetries is the default number of retry attempts for failed requests
	DefaultMaxRetries = 3

	// DefaultRetryDelay is the default delay between retry attempts
	DefaultRetryDelay = 1 * time.Second

	// DefaultMaxRetryDelay is the maximum delay for exponential backoff
	DefaultMaxRetryDelay = 30 * time.Second

	// DefaultRequestRate is the default request pacing in requests per second
	DefaultRequestRate = 10

	// DefaultBuildTimeout is the default waiter budget
	DefaultBuildTimeout = 300 * time.Second

	// DefaultBuildInterval is the default waiter poll interval
	DefaultBuildInterval = 1 * time.Second
)

// Client represents an HTTP client for one OpenStack-style API endpoint.
// The same type serves compute and block storage; only the base URL differs.
type Client struct {
	// BaseURL is the service endpoint (e.g., "http://controller:8774/v2.1")
	BaseURL string

	// Token is sent as X-Auth-Token on every request
	Token string

	// HTTPClient is the underlying HTTP client
	HTTPClient *http.Client

	// MaxRetries is the maximum number of retry attempts for failed requests
	MaxRetries int

	// RetryDelay is the initial delay between retry attempts
	RetryDelay time.Duration

	// MaxRetryDelay is the maximum delay for exponential backoff
	MaxRetryDelay time.Duration

	// UseExponentialBackoff enables exponential backoff for retries
	UseExponentialBackoff bool

	// Limiter paces outgoing requests; nil disables pacing
	Limiter *rate.Limiter

	// BuildTimeout is how long waiters poll for a status transition
	BuildTimeout time.Duration

	// BuildInterval is the delay between waiter polls
	BuildInterval time.Duration
}

// NewClient creates a client for the given endpoint with the default
// tunables.
func NewClient(endpoint, token string) *Client {
	return &Client{
		BaseURL:               strings.TrimRight(endpoint, "/"),
		Token:                 token,
		HTTPClient:            &http.Client{Timeout: DefaultTimeout},
		MaxRetries:            DefaultMaxRetries,
		RetryDelay:            DefaultRetryDelay,
		MaxRetryDelay:         DefaultMaxRetryDelay,
		UseExponentialBackoff: true,
		Limiter:               rate.NewLimiter(rate.Limit(DefaultRequestRate), 1),
		BuildTimeout:          DefaultBuildTimeout,
		BuildInterval:         DefaultBuildInterval,
	}
}

// NewClientFromConfig creates a compute client tuned by the suite
// configuration.
func NewClientFromConfig(cfg *config.Config) *Client {
	c := NewClient(cfg.Compute.Endpoint, cfg.Compute.Token)
	c.MaxRetries = cfg.Compute.MaxRetries
	c.Limiter = rate.NewLimiter(rate.Limit(cfg.Compute.RequestRate), 1)
	c.BuildTimeout = cfg.Compute.BuildTimeoutDuration()
	c.BuildInterval = cfg.Compute.BuildIntervalDuration()
	return c
}

// NewVolumeClientFromConfig creates a block storage client from the suite
// configuration, or nil when no volume endpoint is configured.
func NewVolumeClientFromConfig(cfg *config.Config) *Client {
	if cfg.Volume.Endpoint == "" {
		return nil
	}
	c := NewClient(cfg.Volume.Endpoint, cfg.Compute.Token)
	c.MaxRetries = cfg.Compute.MaxRetries
	c.Limiter = rate.NewLimiter(rate.Limit(cfg.Compute.RequestRate), 1)
	c.BuildTimeout = cfg.Compute.BuildTimeoutDuration()
	c.BuildInterval = cfg.Compute.BuildIntervalDuration()
	return c
}

// do performs one API request with pacing, retries and error classification.
// respBody, when non-nil, receives the decoded JSON response.
func (c *Client) do(ctx context.Context, method, path string, reqBody, respBody any) error {
	var lastErr error
	currentDelay := c.RetryDelay

	for attempt := 0; attempt <= c.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(currentDelay):
			case <-ctx.Done():
				return NewNetworkError("request aborted", ctx.Err())
			}

			if c.UseExponentialBackoff {
				currentDelay *= 2
				if currentDelay > c.MaxRetryDelay {
					currentDelay = c.MaxRetryDelay
				}
			}
		}

		err := c.attempt(ctx, method, path, reqBody, respBody, attempt)
		if err == nil {
			return nil
		}

		lastErr = err

		if !IsRetryable(err) {
			return err
		}
	}

	return lastErr
}

// attempt performs a single API request.
func (c *Client) attempt(ctx context.Context, method, path string, reqBody, respBody any, attempt int) error {
	if c.Limiter != nil {
		if err := c.Limiter.Wait(ctx); err != nil {
			return NewNetworkError("request pacing interrupted", err)
		}
	}

	var body io.Reader
	if reqBody != nil {
		data, err := json.Marshal(reqBody)
		if err != nil {
			return NewParseError("failed to encode request body", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return NewNetworkError("failed to create request", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Auth-Token", c.Token)
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return NewNetworkError(method+" "+path+" failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	logging.LogAPICall(method, path, resp.StatusCode, attempt)

	if resp.StatusCode == http.StatusUnauthorized {
		return NewAuthError("authentication failed (check token)")
	}
	if resp.StatusCode >= 400 {
		data, _ := io.ReadAll(resp.Body)
		return newAPIStatusError(resp.StatusCode, data)
	}

	if respBody != nil {
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return NewNetworkError("failed to read response body", err)
		}
		if err := json.Unmarshal(data, respBody); err != nil {
			return NewParseError("failed to parse response body", err)
		}
	}

	return nil
}
