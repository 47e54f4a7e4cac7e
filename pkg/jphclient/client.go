package jphclient

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/fivetwenty-io/jsonplaceholder-client/internal/client"
	"github.com/fivetwenty-io/jsonplaceholder-client/internal/config"
	"github.com/fivetwenty-io/jsonplaceholder-client/pkg/jsonph"
)

// New creates a JSONPlaceholder client. Empty config fields take their
// defaults; a nil config is an error.
func New(config *jsonph.Config) (jsonph.Client, error) {
	if config == nil {
		return nil, jsonph.ErrConfigRequired
	}

	c, err := client.New(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create new client: %w", err)
	}

	return c, nil
}

// NewWithBaseURL creates a client for baseURL with every other option at its
// default.
func NewWithBaseURL(baseURL string) (jsonph.Client, error) {
	return New(&jsonph.Config{BaseURL: baseURL})
}

// NewWithTransport creates a client whose pipeline sends requests through
// transport instead of HTTP.
func NewWithTransport(config *jsonph.Config, transport jsonph.Transport) (jsonph.Client, error) {
	c, err := client.NewWithTransport(config, transport)
	if err != nil {
		return nil, fmt.Errorf("failed to create new client: %w", err)
	}

	return c, nil
}

// NewFromEnv creates a client configured from JSONPH_* environment variables
// and the unprefixed REDIS_HOST, REDIS_PORT and LOG_LEVEL.
func NewFromEnv() (jsonph.Client, error) {
	v := viper.New()

	err := config.SetDefaults(v)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	return NewFromViper(v)
}

// NewFromViper creates a client from an already populated viper instance.
func NewFromViper(v *viper.Viper) (jsonph.Client, error) {
	cfg, err := config.Load(v)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	return New(cfg)
}
