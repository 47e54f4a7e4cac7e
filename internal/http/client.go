// Package http implements the retrying transport used by the request pipeline.
package http

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/fivetwenty-io/jsonplaceholder-client/internal/constants"
	"github.com/fivetwenty-io/jsonplaceholder-client/pkg/jsonph"
)

// Logger interface for debug logging.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// Client sends pipeline requests to a single origin, retrying transient
// failures. It implements jsonph.Transport.
type Client struct {
	baseURL     string
	retryClient *retryablehttp.Client
	policy      *jsonph.RetryPolicy
	timeout     time.Duration
	userAgent   string
	logger      Logger
	debug       bool
}

// Option configures the HTTP client.
type Option func(*Client)

// WithLogger sets the logger used for debug output.
func WithLogger(logger Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithDebug enables request/response debug logging.
func WithDebug(debug bool) Option {
	return func(c *Client) {
		c.debug = debug
	}
}

// WithUserAgent sets the User-Agent header sent when a request has none.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// WithRetryPolicy replaces the default retry policy.
func WithRetryPolicy(policy *jsonph.RetryPolicy) Option {
	return func(c *Client) {
		if policy != nil {
			c.policy = policy
		}
	}
}

// WithRetryConfig sets the retry count and base delay.
func WithRetryConfig(retryMax int, baseDelay time.Duration) Option {
	return func(c *Client) {
		c.policy = &jsonph.RetryPolicy{MaxRetries: retryMax, BaseDelay: baseDelay}
	}
}

// WithTimeout bounds each call, every attempt and backoff included.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithHTTPClient sets the client used for each attempt.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.retryClient.HTTPClient = httpClient
		}
	}
}

// NewClient creates a transport for baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	client := &Client{
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		retryClient: retryablehttp.NewClient(),
		policy:      jsonph.DefaultRetryPolicy(),
		timeout:     constants.DefaultHTTPTimeout,
		userAgent:   constants.DefaultUserAgent,
	}

	for _, opt := range opts {
		opt(client)
	}

	// Attempts are not logged individually; the pipeline logs one event per call.
	client.retryClient.Logger = nil
	client.retryClient.RetryMax = client.policy.MaxRetries
	client.retryClient.CheckRetry = client.checkRetry
	client.retryClient.Backoff = client.backoff
	client.retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler

	return client
}

// BaseURL returns the origin requests are sent to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Do sends req and returns the final response, which may carry any status.
// An error means no response was received on the last attempt.
func (c *Client) Do(ctx context.Context, req *jsonph.Request) (*jsonph.Response, error) {
	timeout := c.timeout
	if req.Timeout > 0 {
		timeout = req.Timeout
	}

	if timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	httpReq, err := c.newRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	start := time.Now()

	if c.debug && c.logger != nil {
		c.logger.Debug("HTTP Request", map[string]interface{}{
			"method":     req.Method,
			"url":        httpReq.URL.String(),
			"request_id": req.ID,
		})
	}

	resp, err := c.retryClient.Do(httpReq)
	if err != nil {
		if resp != nil {
			_ = resp.Body.Close()
		}

		return nil, fmt.Errorf("%s %s: %w", req.Method, req.Path, err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if c.debug && c.logger != nil {
		c.logger.Debug("HTTP Response", map[string]interface{}{
			"status":     resp.StatusCode,
			"duration":   time.Since(start).String(),
			"request_id": req.ID,
		})
	}

	return &jsonph.Response{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       body,
		Origin:     jsonph.OriginNetwork,
	}, nil
}

func (c *Client) newRequest(ctx context.Context, req *jsonph.Request) (*retryablehttp.Request, error) {
	var body interface{}
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := retryablehttp.NewRequestWithContext(ctx, req.Method, c.baseURL+req.Path, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	for key, values := range req.Headers {
		for _, value := range values {
			httpReq.Header.Add(key, value)
		}
	}

	if httpReq.Header.Get("Accept") == "" {
		httpReq.Header.Set("Accept", constants.DefaultContentType)
	}

	if httpReq.Header.Get("User-Agent") == "" && c.userAgent != "" {
		httpReq.Header.Set("User-Agent", c.userAgent)
	}

	return httpReq, nil
}

// checkRetry stops on cancellation and otherwise defers to the retry policy.
func (c *Client) checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}

	statusCode := 0
	if resp != nil {
		statusCode = resp.StatusCode
	}

	return c.policy.ShouldRetry(statusCode, err), nil
}

// backoff ignores the retryablehttp bounds; attemptNum is zero-based.
func (c *Client) backoff(_, _ time.Duration, attemptNum int, _ *http.Response) time.Duration {
	return c.policy.Delay(attemptNum + 1)
}
