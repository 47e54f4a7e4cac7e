package jsonph

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fivetwenty-io/jsonplaceholder-client/internal/constants"
)

// Cache is a key-value backend with per-entry TTL. Implementations report a
// missing or expired key as ErrCacheMiss and any other failure as an error;
// CacheStore decides what callers see.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Close() error
}

// CacheKey derives the cache key for a request. Only GET requests with a path
// are cacheable.
func CacheKey(req *Request) (string, bool) {
	if req == nil || req.Method != MethodGet || req.Path == "" {
		return "", false
	}

	return constants.CacheKeyPrefix + req.Path, true
}

// CacheStore is a best-effort cache: it never returns backend errors. Each
// backend operation gets its own short deadline, and a CircuitBreaker skips
// the backend for a cooldown once it keeps failing, so an unreachable cache
// costs a call at most one operation timeout per stage.
type CacheStore struct {
	backend    Cache
	logger     Logger
	defaultTTL time.Duration
	opTimeout  time.Duration
	breaker    *CircuitBreaker

	closeOnce sync.Once
	closeErr  error
}

// CacheStoreOption configures a CacheStore.
type CacheStoreOption func(*CacheStore)

// WithOperationTimeout bounds each backend Get and Set. Zero or less keeps the
// default.
func WithOperationTimeout(timeout time.Duration) CacheStoreOption {
	return func(s *CacheStore) {
		if timeout > 0 {
			s.opTimeout = timeout
		}
	}
}

// WithCircuitBreaker replaces the default breaker.
func WithCircuitBreaker(breaker *CircuitBreaker) CacheStoreOption {
	return func(s *CacheStore) {
		if breaker != nil {
			s.breaker = breaker
		}
	}
}

// NewCacheStore wraps backend. A nil backend yields a store that always misses.
func NewCacheStore(backend Cache, logger Logger, defaultTTL time.Duration, opts ...CacheStoreOption) *CacheStore {
	if backend == nil {
		backend = NewNoOpCache()
	}

	if logger == nil {
		logger = NopLogger{}
	}

	if defaultTTL <= 0 {
		defaultTTL = constants.DefaultCacheTTL
	}

	store := &CacheStore{
		backend:    backend,
		logger:     logger,
		defaultTTL: defaultTTL,
		opTimeout:  constants.CacheOperationTimeout,
		breaker:    NewCircuitBreaker(nil),
	}

	for _, opt := range opts {
		opt(store)
	}

	return store
}

// Get returns the cached value for key. Backend failures are logged at warn
// level and reported as a miss.
func (s *CacheStore) Get(ctx context.Context, key string) ([]byte, bool) {
	if !s.breaker.Allow() {
		return nil, false
	}

	opCtx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	value, err := s.backend.Get(opCtx, key)
	if err == nil {
		s.breaker.RecordSuccess()

		return value, true
	}

	if isCacheMiss(err) {
		s.breaker.RecordSuccess()

		return nil, false
	}

	s.logger.Warn("Cache get error", map[string]interface{}{
		"key":   key,
		"error": err.Error(),
	})
	s.recordFailure()

	return nil, false
}

// Set stores value under key. A ttl <= 0 uses the store default. Failures are
// logged, never returned.
func (s *CacheStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if !s.breaker.Allow() {
		return
	}

	if ttl <= 0 {
		ttl = s.defaultTTL
	}

	opCtx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	err := s.backend.Set(opCtx, key, value, ttl)
	if err == nil || isCacheDisabled(err) {
		s.breaker.RecordSuccess()

		return
	}

	s.logger.Warn("Cache set error", map[string]interface{}{
		"key":   key,
		"error": err.Error(),
	})
	s.recordFailure()
}

// Breaker returns the circuit breaker guarding the backend.
func (s *CacheStore) Breaker() *CircuitBreaker {
	return s.breaker
}

func (s *CacheStore) recordFailure() {
	if s.breaker.RecordFailure() {
		s.logger.Warn("Cache backend disabled", map[string]interface{}{
			"cooldown": s.breaker.config.Cooldown.String(),
		})
	}
}

// DefaultTTL returns the TTL applied when Set is given none.
func (s *CacheStore) DefaultTTL() time.Duration {
	return s.defaultTTL
}

// Disconnect releases the backend connection. Later calls return the first result.
func (s *CacheStore) Disconnect() error {
	s.closeOnce.Do(func() {
		err := s.backend.Close()
		if err != nil {
			s.closeErr = fmt.Errorf("closing cache backend: %w", err)
		}
	})

	return s.closeErr
}

// MemoryCache is an in-process backend bounded by entry count.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	maxSize int
	now     func() time.Time
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// NewMemoryCache creates a memory cache holding at most maxSize entries.
func NewMemoryCache(maxSize int) *MemoryCache {
	if maxSize <= 0 {
		maxSize = constants.DefaultCacheSize
	}

	return &MemoryCache{
		entries: make(map[string]memoryEntry),
		maxSize: maxSize,
		now:     time.Now,
	}
}

// Get retrieves an unexpired entry.
func (c *MemoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	now := c.now()
	c.mu.RUnlock()

	if !ok || !now.Before(entry.expiresAt) {
		return nil, ErrCacheMiss
	}

	value := make([]byte, len(entry.value))
	copy(value, entry.value)

	return value, nil
}

// Set stores a copy of value until ttl elapses.
func (c *MemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	stored := make([]byte, len(value))
	copy(stored, value)

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxSize {
		c.evictLocked()
	}

	c.entries[key] = memoryEntry{
		value:     stored,
		expiresAt: c.now().Add(ttl),
	}

	return nil
}

// Cleanup drops expired entries.
func (c *MemoryCache) Cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()

	for key, entry := range c.entries {
		if !now.Before(entry.expiresAt) {
			delete(c.entries, key)
		}
	}
}

// Len returns the number of stored entries, expired or not.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}

// Close drops every entry.
func (c *MemoryCache) Close() error {
	c.mu.Lock()
	c.entries = make(map[string]memoryEntry)
	c.mu.Unlock()

	return nil
}

// SetClock replaces the time source. Intended for tests.
func (c *MemoryCache) SetClock(now func() time.Time) {
	c.mu.Lock()
	c.now = now
	c.mu.Unlock()
}

// evictLocked removes expired entries, or the entry closest to expiry when
// nothing has expired.
func (c *MemoryCache) evictLocked() {
	now := c.now()

	var (
		victim   string
		earliest time.Time
	)

	for key, entry := range c.entries {
		if !now.Before(entry.expiresAt) {
			delete(c.entries, key)

			continue
		}

		if victim == "" || entry.expiresAt.Before(earliest) {
			victim = key
			earliest = entry.expiresAt
		}
	}

	if len(c.entries) >= c.maxSize && victim != "" {
		delete(c.entries, victim)
	}
}
