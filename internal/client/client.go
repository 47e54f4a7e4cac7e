package client

import (
	"fmt"
	stdhttp "net/http"
	"strings"

	"golang.org/x/oauth2"

	"github.com/fivetwenty-io/jsonplaceholder-client/internal/http"
	"github.com/fivetwenty-io/jsonplaceholder-client/pkg/jsonph"
)

// Client implements the jsonph.Client interface.
type Client struct {
	pipeline *jsonph.Pipeline
	cache    *jsonph.CacheStore
	baseURL  string
	logger   jsonph.Logger

	// Resource clients
	posts jsonph.PostsClient
}

// createHTTPClientOptions builds HTTP client options from config.
func createHTTPClientOptions(config *jsonph.Config, logger jsonph.Logger) []http.Option {
	httpOpts := []http.Option{
		http.WithLogger(logger),
		http.WithDebug(isDebugLevel(config.LogLevel)),
		http.WithUserAgent(config.UserAgent),
		http.WithTimeout(config.Timeout),
		http.WithRetryPolicy(config.RetryPolicy()),
	}

	if httpClient := createHTTPClient(config); httpClient != nil {
		httpOpts = append(httpOpts, http.WithHTTPClient(httpClient))
	}

	return httpOpts
}

// isDebugLevel reports whether level enables transport debug logs.
func isDebugLevel(level string) bool {
	return strings.EqualFold(level, "debug") || strings.EqualFold(level, "trace")
}

// createHTTPClient returns config.HTTPClient, wrapped with an oauth2
// transport when a token source is configured.
func createHTTPClient(config *jsonph.Config) *stdhttp.Client {
	if config.TokenSource == nil {
		return config.HTTPClient
	}

	client := &stdhttp.Client{}

	var base stdhttp.RoundTripper
	if config.HTTPClient != nil {
		*client = *config.HTTPClient
		base = config.HTTPClient.Transport
	}

	client.Transport = &oauth2.Transport{
		Source: oauth2.ReuseTokenSource(nil, config.TokenSource),
		Base:   base,
	}

	return client
}

// createLogger returns the configured logger or an hclog JSON logger at the
// configured level.
func createLogger(config *jsonph.Config) (jsonph.Logger, error) {
	if config.Logger != nil {
		return config.Logger, nil
	}

	logger, err := jsonph.NewLogger(jsonph.LoggerOptions{
		Level: config.LogLevel,
		JSON:  true,
	})
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	return logger, nil
}

// New creates a client that sends requests to config.BaseURL. No cache
// connection is opened here.
func New(config *jsonph.Config) (*Client, error) {
	if config == nil {
		return nil, jsonph.ErrConfigRequired
	}

	resolved := config.WithDefaults()

	logger, err := createLogger(resolved)
	if err != nil {
		return nil, err
	}

	transport := http.NewClient(resolved.BaseURL, createHTTPClientOptions(resolved, logger)...)

	return newClient(resolved, logger, transport)
}

// NewWithTransport creates a client around a caller-supplied transport.
func NewWithTransport(config *jsonph.Config, transport jsonph.Transport) (*Client, error) {
	if config == nil {
		return nil, jsonph.ErrConfigRequired
	}

	resolved := config.WithDefaults()

	logger, err := createLogger(resolved)
	if err != nil {
		return nil, err
	}

	return newClient(resolved, logger, transport)
}

func newClient(config *jsonph.Config, logger jsonph.Logger, transport jsonph.Transport) (*Client, error) {
	err := config.Validate()
	if err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	cache, err := jsonph.NewCacheStoreFromConfig(config.Cache, logger)
	if err != nil {
		return nil, fmt.Errorf("creating cache store: %w", err)
	}

	var metrics *jsonph.MetricsCollector
	if config.Metrics != nil {
		metrics = jsonph.NewMetricsCollector(config.Metrics)
	}

	pipeline, err := jsonph.NewStandardPipeline(transport, jsonph.PipelineOptions{
		BaseURL: config.BaseURL,
		Headers: config.DefaultHeaders(),
		Logger:  logger,
		Cache:   cache,
		Metrics: metrics,
	})
	if err != nil {
		_ = cache.Disconnect()

		return nil, fmt.Errorf("creating pipeline: %w", err)
	}

	client := &Client{
		pipeline: pipeline,
		cache:    cache,
		baseURL:  config.BaseURL,
		logger:   logger,
	}

	// Initialize resource clients
	client.posts = NewPostsClient(pipeline)

	return client, nil
}

// Posts implements jsonph.Client.Posts.
func (c *Client) Posts() jsonph.PostsClient {
	return c.posts
}

// Pipeline implements jsonph.Client.Pipeline.
func (c *Client) Pipeline() *jsonph.Pipeline {
	return c.pipeline
}

// BaseURL returns the upstream origin.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Close implements jsonph.Client.Close.
func (c *Client) Close() error {
	err := c.cache.Disconnect()
	if err != nil {
		c.logger.Warn("Cache disconnect error", map[string]interface{}{"error": err.Error()})

		return err
	}

	return nil
}
