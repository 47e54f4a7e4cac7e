package jsonph

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fivetwenty-io/jsonplaceholder-client/internal/constants"
)

// CacheType represents the type of cache backend.
type CacheType string

const (
	// CacheTypeRedis represents a Redis server.
	CacheTypeRedis CacheType = "redis"

	// CacheTypeNATS represents NATS KV cache.
	CacheTypeNATS CacheType = "nats"

	// CacheTypeMemory represents in-memory cache.
	CacheTypeMemory CacheType = "memory"

	// CacheTypeNone represents no caching.
	CacheTypeNone CacheType = "none"
)

// CacheConfig configures cache backend.
type CacheConfig struct {
	// Type is the cache backend type
	Type CacheType

	// TTL is applied to every cached response. Defaults to 300s.
	TTL time.Duration

	// OperationTimeout bounds each backend Get and Set. Defaults to 250ms.
	OperationTimeout time.Duration

	// L1Size puts an in-memory tier of this many entries in front of a Redis
	// or NATS backend. Zero disables it.
	L1Size int

	// Redis cache configuration
	Redis *RedisConfig

	// NATS KV cache configuration
	NATS *NATSKVConfig

	// Memory cache configuration
	Memory *MemoryCacheConfig
}

// MemoryCacheConfig configures memory cache.
type MemoryCacheConfig struct {
	// MaxSize is the maximum number of items in the cache
	MaxSize int
}

// DefaultCacheConfig returns default cache configuration: Redis on localhost.
func DefaultCacheConfig() *CacheConfig {
	return &CacheConfig{
		Type:  CacheTypeRedis,
		TTL:   constants.DefaultCacheTTL,
		Redis: DefaultRedisConfig(),
	}
}

// NewCacheFromConfig creates a cache backend from configuration. No backend
// connects here.
func NewCacheFromConfig(config *CacheConfig) (Cache, error) {
	if config == nil {
		config = DefaultCacheConfig()
	}

	switch config.Type {
	case CacheTypeRedis:
		redisConfig := config.Redis
		if redisConfig == nil {
			redisConfig = DefaultRedisConfig()
		}

		cache, err := NewRedisCache(redisConfig)
		if err != nil {
			return nil, err
		}

		return withL1(config, cache), nil

	case CacheTypeNATS:
		if config.NATS == nil {
			return nil, ErrNATSConfigRequired
		}

		cache, err := NewNATSKVCache(config.NATS)
		if err != nil {
			return nil, err
		}

		return withL1(config, cache), nil

	case CacheTypeMemory:
		maxSize := constants.DefaultCacheSize
		if config.Memory != nil && config.Memory.MaxSize > 0 {
			maxSize = config.Memory.MaxSize
		}

		return NewMemoryCache(maxSize), nil

	case CacheTypeNone, "":
		return NewNoOpCache(), nil

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedCacheType, config.Type)
	}
}

// NewCacheStoreFromConfig builds the backend and wraps it in a CacheStore.
func NewCacheStoreFromConfig(config *CacheConfig, logger Logger) (*CacheStore, error) {
	if config == nil {
		config = DefaultCacheConfig()
	}

	backend, err := NewCacheFromConfig(config)
	if err != nil {
		return nil, err
	}

	return NewCacheStore(backend, logger, config.TTL, WithOperationTimeout(config.OperationTimeout)), nil
}

func withL1(config *CacheConfig, remote Cache) Cache {
	if config.L1Size <= 0 {
		return remote
	}

	return NewCacheChain(config.TTL, NewMemoryCache(config.L1Size), remote)
}

// CacheChain implements a chain of cache backends (L1, L2, etc.). A hit in a
// later tier is copied into the earlier ones with backfillTTL.
type CacheChain struct {
	caches      []Cache
	backfillTTL time.Duration
}

// NewCacheChain creates a new cache chain. A backfillTTL <= 0 uses the default
// cache TTL.
func NewCacheChain(backfillTTL time.Duration, caches ...Cache) *CacheChain {
	if backfillTTL <= 0 {
		backfillTTL = constants.DefaultCacheTTL
	}

	return &CacheChain{
		caches:      caches,
		backfillTTL: backfillTTL,
	}
}

// Get returns the first hit. A tier error is skipped; it is returned only when
// no tier has the key.
func (c *CacheChain) Get(ctx context.Context, key string) ([]byte, error) {
	var lastErr error

	for i, cache := range c.caches {
		value, err := cache.Get(ctx, key)
		if err == nil {
			for j := 0; j < i; j++ {
				_ = c.caches[j].Set(ctx, key, value, c.backfillTTL)
			}

			return value, nil
		}

		if !isCacheMiss(err) {
			lastErr = err
		}
	}

	if lastErr != nil {
		return nil, lastErr
	}

	return nil, ErrCacheMiss
}

// Set stores value in every tier.
func (c *CacheChain) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	var lastErr error

	for _, cache := range c.caches {
		err := cache.Set(ctx, key, value, ttl)
		if err != nil && !isCacheDisabled(err) {
			lastErr = err
		}
	}

	return lastErr
}

// Close closes every tier.
func (c *CacheChain) Close() error {
	errs := make([]error, 0, len(c.caches))
	for _, cache := range c.caches {
		errs = append(errs, cache.Close())
	}

	return errors.Join(errs...)
}

// NoOpCache is a cache that does nothing (no caching).
type NoOpCache struct{}

// NewNoOpCache creates a new no-op cache.
func NewNoOpCache() *NoOpCache {
	return &NoOpCache{}
}

// Get always returns ErrCacheMiss.
func (c *NoOpCache) Get(ctx context.Context, key string) ([]byte, error) {
	return nil, ErrCacheMiss
}

// Set always returns ErrCacheDisabled.
func (c *NoOpCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return ErrCacheDisabled
}

// Close does nothing.
func (c *NoOpCache) Close() error {
	return nil
}

// CacheBuilder helps build cache configurations.
type CacheBuilder struct {
	config *CacheConfig
}

// NewCacheBuilder creates a new cache builder.
func NewCacheBuilder() *CacheBuilder {
	return &CacheBuilder{
		config: DefaultCacheConfig(),
	}
}

// WithType sets the cache type.
func (b *CacheBuilder) WithType(cacheType CacheType) *CacheBuilder {
	b.config.Type = cacheType

	return b
}

// WithTTL sets the default entry TTL.
func (b *CacheBuilder) WithTTL(ttl time.Duration) *CacheBuilder {
	b.config.TTL = ttl

	return b
}

// WithRedisConfig sets Redis cache configuration.
func (b *CacheBuilder) WithRedisConfig(config *RedisConfig) *CacheBuilder {
	b.config.Redis = config

	return b
}

// WithNATSConfig sets NATS cache configuration.
func (b *CacheBuilder) WithNATSConfig(config *NATSKVConfig) *CacheBuilder {
	b.config.NATS = config

	return b
}

// WithL1Size puts an in-memory tier in front of a remote backend.
func (b *CacheBuilder) WithL1Size(size int) *CacheBuilder {
	b.config.L1Size = size

	return b
}

// WithMemoryConfig sets memory cache configuration.
func (b *CacheBuilder) WithMemoryConfig(maxSize int) *CacheBuilder {
	b.config.Memory = &MemoryCacheConfig{MaxSize: maxSize}

	return b
}

// Config returns the accumulated configuration.
func (b *CacheBuilder) Config() *CacheConfig {
	return b.config
}

// Build creates the cache from the configuration.
func (b *CacheBuilder) Build() (Cache, error) {
	return NewCacheFromConfig(b.config)
}

func isCacheMiss(err error) bool {
	return errors.Is(err, ErrCacheMiss)
}

func isCacheDisabled(err error) bool {
	return errors.Is(err, ErrCacheDisabled)
}
