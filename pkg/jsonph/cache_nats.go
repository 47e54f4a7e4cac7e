package jsonph

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/fivetwenty-io/jsonplaceholder-client/internal/constants"
)

// NATSKVConfig configures the NATS JetStream KV cache backend.
type NATSKVConfig struct {
	// URL defaults to nats://127.0.0.1:4222.
	URL string
	// Bucket defaults to jsonph-cache.
	Bucket string
	// BucketTTL is the bucket-wide max age. Per-entry TTLs are enforced on read
	// but cannot outlive it. Defaults to the default cache TTL.
	BucketTTL time.Duration
	// ConnectTimeout bounds each dial attempt.
	ConnectTimeout time.Duration
	// ConnectAttempts bounds the lazy connect loop.
	ConnectAttempts int
	// Options are appended to the connection options.
	Options []nats.Option
}

// DefaultNATSKVConfig returns a config for a local NATS server.
func DefaultNATSKVConfig() *NATSKVConfig {
	return &NATSKVConfig{
		URL:             constants.DefaultNATSURL,
		Bucket:          constants.DefaultNATSBucket,
		BucketTTL:       constants.DefaultCacheTTL,
		ConnectTimeout:  constants.NATSConnectTimeout,
		ConnectAttempts: constants.NATSConnectAttempts,
	}
}

// NATSKVCache stores bodies in a JetStream key-value bucket. The connection is
// opened on first use by a background dial; callers wait for it only as long
// as their context allows. A failed dial is retried on the next operation.
type NATSKVCache struct {
	config *NATSKVConfig

	mu      sync.Mutex
	conn    *nats.Conn
	kv      jetstream.KeyValue
	pending *natsDial
	cancel  context.CancelFunc
	closed  bool
}

// natsDial is one background connect; err is set before done is closed.
type natsDial struct {
	done chan struct{}
	err  error
}

type natsEnvelope struct {
	Value     []byte    `json:"value"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NewNATSKVCache creates a NATS KV backend without connecting.
func NewNATSKVCache(config *NATSKVConfig) (*NATSKVCache, error) {
	if config == nil {
		return nil, ErrNATSConfigRequired
	}

	resolved := *DefaultNATSKVConfig()
	if config.URL != "" {
		resolved.URL = config.URL
	}

	if config.Bucket != "" {
		resolved.Bucket = config.Bucket
	}

	if config.BucketTTL > 0 {
		resolved.BucketTTL = config.BucketTTL
	}

	if config.ConnectTimeout > 0 {
		resolved.ConnectTimeout = config.ConnectTimeout
	}

	if config.ConnectAttempts > 0 {
		resolved.ConnectAttempts = config.ConnectAttempts
	}

	resolved.Options = config.Options

	return &NATSKVCache{config: &resolved}, nil
}

// Get implements Cache.
func (c *NATSKVCache) Get(ctx context.Context, key string) ([]byte, error) {
	kv, err := c.keyValue(ctx)
	if err != nil {
		return nil, err
	}

	entry, err := kv.Get(ctx, natsKey(key))
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		return nil, ErrCacheMiss
	}

	if err != nil {
		return nil, fmt.Errorf("nats kv get %q: %w", key, err)
	}

	var envelope natsEnvelope

	err = json.Unmarshal(entry.Value(), &envelope)
	if err != nil {
		return nil, fmt.Errorf("decoding nats kv entry %q: %w", key, err)
	}

	if !time.Now().Before(envelope.ExpiresAt) {
		return nil, ErrCacheMiss
	}

	return envelope.Value, nil
}

// Set implements Cache.
func (c *NATSKVCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	kv, err := c.keyValue(ctx)
	if err != nil {
		return err
	}

	data, err := json.Marshal(natsEnvelope{
		Value:     value,
		ExpiresAt: time.Now().Add(ttl),
	})
	if err != nil {
		return fmt.Errorf("encoding nats kv entry %q: %w", key, err)
	}

	_, err = kv.Put(ctx, natsKey(key), data)
	if err != nil {
		return fmt.Errorf("nats kv put %q: %w", key, err)
	}

	return nil
}

// Close implements Cache. A dial still in flight is abandoned.
func (c *NATSKVCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	c.kv = nil

	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}

	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}

	return nil
}

func (c *NATSKVCache) keyValue(ctx context.Context) (jetstream.KeyValue, error) {
	c.mu.Lock()

	if c.closed {
		c.mu.Unlock()

		return nil, ErrCacheClosed
	}

	if c.kv != nil {
		kv := c.kv
		c.mu.Unlock()

		return kv, nil
	}

	if c.pending == nil {
		dialCtx, cancel := context.WithCancel(context.Background())
		c.pending = &natsDial{done: make(chan struct{})}
		c.cancel = cancel

		go c.dial(dialCtx, c.pending)
	}

	pending := c.pending
	c.mu.Unlock()

	select {
	case <-pending.done:
	case <-ctx.Done():
		return nil, fmt.Errorf("waiting for NATS connection: %w", ctx.Err())
	}

	if pending.err != nil {
		return nil, pending.err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.kv == nil {
		return nil, ErrCacheClosed
	}

	return c.kv, nil
}

// dial connects and opens the bucket without holding c.mu.
func (c *NATSKVCache) dial(ctx context.Context, pending *natsDial) {
	conn, kv, err := c.open(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.pending = nil

	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}

	switch {
	case err != nil:
		pending.err = err
	case c.closed:
		conn.Close()

		pending.err = ErrCacheClosed
	default:
		c.conn = conn
		c.kv = kv
	}

	close(pending.done)
}

func (c *NATSKVCache) open(ctx context.Context) (*nats.Conn, jetstream.KeyValue, error) {
	conn, err := c.connect(ctx)
	if err != nil {
		return nil, nil, err
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()

		return nil, nil, fmt.Errorf("creating jetstream context: %w", err)
	}

	bucketCtx, cancel := context.WithTimeout(ctx, c.config.ConnectTimeout)
	defer cancel()

	kv, err := js.CreateOrUpdateKeyValue(bucketCtx, jetstream.KeyValueConfig{
		Bucket: c.config.Bucket,
		TTL:    c.config.BucketTTL,
	})
	if err != nil {
		conn.Close()

		return nil, nil, fmt.Errorf("opening kv bucket %q: %w", c.config.Bucket, err)
	}

	return conn, kv, nil
}

func (c *NATSKVCache) connect(ctx context.Context) (*nats.Conn, error) {
	options := append([]nats.Option{
		nats.Name(constants.LoggerName),
		nats.Timeout(c.config.ConnectTimeout),
	}, c.config.Options...)

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = constants.CacheMinRetryBackoff
	policy.MaxInterval = constants.CacheMaxRetryBackoff

	var conn *nats.Conn

	operation := func() error {
		nc, err := nats.Connect(c.config.URL, options...)
		if err != nil {
			return err
		}

		conn = nc

		return nil
	}

	retries := uint64(max(c.config.ConnectAttempts-1, 0))

	err := backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(policy, retries), ctx))
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS at %s: %w", c.config.URL, err)
	}

	return conn, nil
}

// natsKey maps an arbitrary cache key onto the KV key alphabet.
func natsKey(key string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(key))
}
