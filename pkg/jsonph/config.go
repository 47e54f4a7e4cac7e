package jsonph

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/oauth2"

	"github.com/fivetwenty-io/jsonplaceholder-client/internal/constants"
)

// Config holds client construction options.
type Config struct {
	// BaseURL is the upstream origin. Defaults to
	// https://jsonplaceholder.typicode.com; a trailing slash is trimmed.
	BaseURL string
	// Timeout bounds each logical call, retries and backoff included.
	// Defaults to 10s. A per-request Timeout overrides it.
	Timeout time.Duration
	// Headers are sent with every request after Content-Type:
	// application/json. Per-request headers take precedence.
	Headers map[string]string
	// UserAgent overrides the default User-Agent header.
	UserAgent string

	// RetryMax is the number of retries after the first attempt. Zero uses the
	// default of 3; a negative value disables retries.
	RetryMax int
	// RetryBaseDelay is doubled for each retry. Defaults to 100ms.
	RetryBaseDelay time.Duration

	// LogLevel is the minimum level for the default logger. Ignored when
	// Logger is set.
	LogLevel string
	// Logger receives pipeline and cache events. Nil builds an hclog JSON
	// logger on stderr.
	Logger Logger

	// Cache selects the cache backend. Nil means Redis on localhost:6379.
	Cache *CacheConfig

	// Metrics registers request metrics when non-nil.
	Metrics prometheus.Registerer

	// HTTPClient is used for the underlying connections when set.
	HTTPClient *http.Client
	// TokenSource adds an Authorization: Bearer header to every attempt.
	// The public upstream needs none.
	TokenSource oauth2.TokenSource
}

// DefaultConfig returns a config pointing at the public upstream.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:        constants.DefaultBaseURL,
		Timeout:        constants.DefaultHTTPTimeout,
		RetryMax:       constants.DefaultRetryMax,
		RetryBaseDelay: constants.DefaultRetryBaseDelay,
		LogLevel:       constants.DefaultLogLevel,
		Cache:          DefaultCacheConfig(),
	}
}

// WithDefaults returns a copy of the config with empty fields filled in.
func (c *Config) WithDefaults() *Config {
	resolved := *c

	if resolved.BaseURL == "" {
		resolved.BaseURL = constants.DefaultBaseURL
	}

	resolved.BaseURL = strings.TrimSuffix(resolved.BaseURL, "/")

	if resolved.Timeout <= 0 {
		resolved.Timeout = constants.DefaultHTTPTimeout
	}

	if resolved.RetryMax == 0 {
		resolved.RetryMax = constants.DefaultRetryMax
	}

	if resolved.RetryMax < 0 {
		resolved.RetryMax = 0
	}

	if resolved.RetryBaseDelay <= 0 {
		resolved.RetryBaseDelay = constants.DefaultRetryBaseDelay
	}

	if resolved.LogLevel == "" {
		resolved.LogLevel = constants.DefaultLogLevel
	}

	if resolved.UserAgent == "" {
		resolved.UserAgent = constants.DefaultUserAgent
	}

	if resolved.Cache == nil {
		resolved.Cache = DefaultCacheConfig()
	}

	return &resolved
}

// Validate checks the fields that cannot be defaulted.
func (c *Config) Validate() error {
	parsed, err := url.Parse(c.BaseURL)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return fmt.Errorf("%w: %q", constants.ErrInvalidBaseURL, c.BaseURL)
	}

	if c.Timeout < 0 {
		return fmt.Errorf("%w: %s", constants.ErrInvalidTimeout, c.Timeout)
	}

	return nil
}

// RetryPolicy returns the retry policy described by the config.
func (c *Config) RetryPolicy() *RetryPolicy {
	return &RetryPolicy{
		MaxRetries: c.RetryMax,
		BaseDelay:  c.RetryBaseDelay,
	}
}

// DefaultHeaders returns Content-Type: application/json merged with Headers.
func (c *Config) DefaultHeaders() http.Header {
	headers := make(http.Header, len(c.Headers)+1)
	headers.Set("Content-Type", constants.DefaultContentType)

	for key, value := range c.Headers {
		headers.Set(key, value)
	}

	return headers
}
