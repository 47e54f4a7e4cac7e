package constants

import "time"

// File and directory permissions.
const (
	// ConfigDirPerm is the permission for configuration directories.
	ConfigDirPerm = 0750

	// ConfigFilePerm is the permission for configuration files.
	ConfigFilePerm = 0600
)

// Upstream API defaults.
const (
	// DefaultBaseURL is the public origin used when no override is configured.
	DefaultBaseURL = "https://jsonplaceholder.typicode.com"

	// DefaultHTTPTimeout is the default per-request budget.
	DefaultHTTPTimeout = 10 * time.Second

	// DefaultContentType is merged into every request's headers.
	DefaultContentType = "application/json"

	// DefaultUserAgent is sent when no User-Agent override is configured.
	DefaultUserAgent = "jsonplaceholder-client-go"
)

// Retry limits.
const (
	// DefaultRetryMax is the number of retries after the first attempt.
	DefaultRetryMax = 3

	// DefaultRetryBaseDelay is multiplied by 2^retry to get each backoff.
	DefaultRetryBaseDelay = 100 * time.Millisecond

	// ExponentialBackoffBase is the growth factor between retries.
	ExponentialBackoffBase = 2

	// MaxBackoffShift bounds the exponent so the delay cannot overflow.
	MaxBackoffShift = 30
)

// Cache defaults.
const (
	// DefaultCacheTTL is applied when a cache write does not specify a TTL.
	DefaultCacheTTL = 300 * time.Second

	// CacheKeyPrefix prefixes every cache key derived from a request path.
	CacheKeyPrefix = "cache:"

	// CacheHeader marks responses served from the cache.
	CacheHeader = "X-Cache"

	// CacheHitValue is the CacheHeader value on cache-served responses.
	CacheHitValue = "HIT"

	// DefaultCacheSize is the entry limit for the in-memory backend.
	DefaultCacheSize = 1000

	// DefaultRedisHost is used when REDIS_HOST is not set.
	DefaultRedisHost = "localhost"

	// DefaultRedisPort is the standard Redis port.
	DefaultRedisPort = 6379

	// RedisDialTimeout keeps an unreachable cache from stalling a call.
	RedisDialTimeout = 2 * time.Second

	// RedisMaxRetries is the per-command reconnect budget.
	RedisMaxRetries = 1

	// CacheOperationTimeout bounds every cache lookup and write.
	CacheOperationTimeout = 250 * time.Millisecond

	// CacheMinRetryBackoff is the first reconnect delay for remote backends.
	CacheMinRetryBackoff = 50 * time.Millisecond

	// CacheMaxRetryBackoff caps the reconnect delay for remote backends.
	CacheMaxRetryBackoff = 2 * time.Second

	// DefaultNATSURL is used when no NATS URL is configured.
	DefaultNATSURL = "nats://127.0.0.1:4222"

	// DefaultNATSBucket is the JetStream KV bucket holding cached bodies.
	DefaultNATSBucket = "jsonph-cache"

	// NATSConnectTimeout bounds each dial attempt.
	NATSConnectTimeout = 2 * time.Second

	// NATSConnectAttempts bounds the lazy connect loop.
	NATSConnectAttempts = 3
)

// Cache circuit breaker.
const (
	// CircuitBreakerThreshold is the consecutive cache failures that open the circuit.
	CircuitBreakerThreshold = 2

	// CircuitBreakerSuccessThreshold is the trial successes that close it again.
	CircuitBreakerSuccessThreshold = 1

	// CircuitBreakerCooldown is how long an open circuit skips the backend.
	CircuitBreakerCooldown = 30 * time.Second

	// StatusClosed lets every operation through.
	StatusClosed = "closed"

	// StatusOpen skips the backend.
	StatusOpen = "open"

	// StatusHalfOpen lets trial operations through after the cooldown.
	StatusHalfOpen = "half-open"
)

// Logging defaults.
const (
	// DefaultLogLevel is the minimum severity when LOG_LEVEL is unset.
	DefaultLogLevel = "info"

	// LoggerName names the hclog sink.
	LoggerName = "jsonph"
)

// HTTP status codes commonly used.
const (
	// HTTPStatusOK represents a successful HTTP response.
	HTTPStatusOK = 200

	// HTTPStatusMultipleChoices is the first non-success status.
	HTTPStatusMultipleChoices = 300

	// HTTPStatusBadRequest represents a client error.
	HTTPStatusBadRequest = 400

	// HTTPStatusInternalServerError represents server errors.
	HTTPStatusInternalServerError = 500
)

// Posts resource.
const (
	// PostsPath is the collection path for posts.
	PostsPath = "/posts"

	// MaxTitleLength bounds post titles accepted by validation.
	MaxTitleLength = 500
)

// Format constants.
const (
	// FormatTable renders CLI output as a table.
	FormatTable = "table"

	// FormatJSON renders CLI output as JSON.
	FormatJSON = "json"

	// FormatYAML renders CLI output as YAML.
	FormatYAML = "yaml"

	// JSONIndentSize is the indent used for pretty output.
	JSONIndentSize = 2

	// StringTruncationLimit truncates long values in table output.
	StringTruncationLimit = 40
)
