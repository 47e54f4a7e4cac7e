package jsonph

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fivetwenty-io/jsonplaceholder-client/internal/constants"
)

// RedisConfig configures the Redis cache backend.
type RedisConfig struct {
	// Host defaults to localhost.
	Host string
	// Port defaults to 6379.
	Port     int
	Password string
	DB       int

	// DialTimeout bounds each connection attempt.
	DialTimeout time.Duration
	// MaxRetries is the per-command reconnect budget; -1 disables retries.
	MaxRetries int
}

// DefaultRedisConfig returns a config pointing at localhost:6379.
func DefaultRedisConfig() *RedisConfig {
	return &RedisConfig{
		Host:        constants.DefaultRedisHost,
		Port:        constants.DefaultRedisPort,
		DialTimeout: constants.RedisDialTimeout,
		MaxRetries:  constants.RedisMaxRetries,
	}
}

// Addr returns host:port with defaults applied.
func (c *RedisConfig) Addr() string {
	host := c.Host
	if host == "" {
		host = constants.DefaultRedisHost
	}

	port := c.Port
	if port == 0 {
		port = constants.DefaultRedisPort
	}

	return net.JoinHostPort(host, strconv.Itoa(port))
}

// RedisCache stores bodies with GET / SET key value EX ttl. go-redis dials on
// the first command, so construction never touches the network.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache creates a Redis backend.
func NewRedisCache(config *RedisConfig) (*RedisCache, error) {
	if config == nil {
		return nil, ErrRedisConfigRequired
	}

	dialTimeout := config.DialTimeout
	if dialTimeout <= 0 {
		dialTimeout = constants.RedisDialTimeout
	}

	client := redis.NewClient(&redis.Options{
		Addr:                  config.Addr(),
		Password:              config.Password,
		DB:                    config.DB,
		DialTimeout:           dialTimeout,
		ReadTimeout:           dialTimeout,
		WriteTimeout:          dialTimeout,
		MaxRetries:            config.MaxRetries,
		MinRetryBackoff:       constants.CacheMinRetryBackoff,
		MaxRetryBackoff:       constants.CacheMaxRetryBackoff,
		ContextTimeoutEnabled: true,
	})

	return &RedisCache{client: client}, nil
}

// NewRedisCacheFromClient wraps an existing go-redis client.
func NewRedisCacheFromClient(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

// Get implements Cache.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}

	if err != nil {
		return nil, fmt.Errorf("redis get %q: %w", key, err)
	}

	return value, nil
}

// Set implements Cache. Whole-second TTLs are sent as EX.
func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	err := c.client.Set(ctx, key, value, ttl).Err()
	if err != nil {
		return fmt.Errorf("redis set %q: %w", key, err)
	}

	return nil
}

// Close implements Cache.
func (c *RedisCache) Close() error {
	err := c.client.Close()
	if err != nil {
		return fmt.Errorf("redis close: %w", err)
	}

	return nil
}
