// Package config loads client configuration from files, environment variables
// and flags through viper.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
	"golang.org/x/oauth2"

	"github.com/fivetwenty-io/jsonplaceholder-client/internal/constants"
	"github.com/fivetwenty-io/jsonplaceholder-client/pkg/jsonph"
)

// Configuration keys.
const (
	KeyBaseURL        = "base_url"
	KeyTimeout        = "timeout"
	KeyUserAgent      = "user_agent"
	KeyHeaders        = "headers"
	KeyRetryMax       = "retry_max"
	KeyRetryBaseDelay = "retry_base_delay"
	KeyLogLevel       = "log_level"
	KeyToken          = "token"
	KeyCacheType      = "cache.type"
	KeyCacheTTL       = "cache.ttl"
	KeyCacheOpTimeout = "cache.operation_timeout"
	KeyCacheL1Size    = "cache.l1_size"
	KeyRedisHost      = "cache.redis.host"
	KeyRedisPort      = "cache.redis.port"
	KeyRedisPassword  = "cache.redis.password"
	KeyRedisDB        = "cache.redis.db"
	KeyNATSURL        = "cache.nats.url"
	KeyNATSBucket     = "cache.nats.bucket"
	KeyMemoryMaxSize  = "cache.memory.max_size"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "JSONPH"

// Keys lists every key Settings reports, in display order. Secrets such as
// KeyToken and KeyRedisPassword are left out.
var Keys = []string{
	KeyBaseURL,
	KeyTimeout,
	KeyUserAgent,
	KeyRetryMax,
	KeyRetryBaseDelay,
	KeyLogLevel,
	KeyCacheType,
	KeyCacheTTL,
	KeyCacheOpTimeout,
	KeyCacheL1Size,
	KeyRedisHost,
	KeyRedisPort,
	KeyRedisDB,
	KeyNATSURL,
	KeyNATSBucket,
	KeyMemoryMaxSize,
}

// legacyEnv maps keys to the unprefixed variable names also honoured.
var legacyEnv = map[string]string{
	KeyRedisHost: "REDIS_HOST",
	KeyRedisPort: "REDIS_PORT",
	KeyLogLevel:  "LOG_LEVEL",
}

// SetDefaults registers defaults and environment bindings on v.
func SetDefaults(v *viper.Viper) error {
	v.SetDefault(KeyBaseURL, constants.DefaultBaseURL)
	v.SetDefault(KeyTimeout, constants.DefaultHTTPTimeout)
	v.SetDefault(KeyUserAgent, constants.DefaultUserAgent)
	v.SetDefault(KeyRetryMax, constants.DefaultRetryMax)
	v.SetDefault(KeyRetryBaseDelay, constants.DefaultRetryBaseDelay)
	v.SetDefault(KeyLogLevel, constants.DefaultLogLevel)
	v.SetDefault(KeyCacheType, string(jsonph.CacheTypeRedis))
	v.SetDefault(KeyCacheTTL, constants.DefaultCacheTTL)
	v.SetDefault(KeyCacheOpTimeout, constants.CacheOperationTimeout)
	v.SetDefault(KeyCacheL1Size, 0)
	v.SetDefault(KeyRedisHost, constants.DefaultRedisHost)
	v.SetDefault(KeyRedisPort, constants.DefaultRedisPort)
	v.SetDefault(KeyRedisDB, 0)
	v.SetDefault(KeyNATSURL, constants.DefaultNATSURL)
	v.SetDefault(KeyNATSBucket, constants.DefaultNATSBucket)
	v.SetDefault(KeyMemoryMaxSize, constants.DefaultCacheSize)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, legacy := range legacyEnv {
		prefixed := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		err := v.BindEnv(key, prefixed, legacy)
		if err != nil {
			return fmt.Errorf("binding %s to environment: %w", key, err)
		}
	}

	return nil
}

// ReadConfigFile reads path, or $HOME/.jsonph/config.yml when path is empty.
// A missing default file is not an error.
func ReadConfigFile(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil //nolint:nilerr // no home directory means no default file
		}

		v.AddConfigPath(filepath.Join(home, ".jsonph"))
		v.SetConfigType("yml")
		v.SetConfigName("config")
	}

	err := v.ReadInConfig()
	if err == nil {
		return nil
	}

	var notFound viper.ConfigFileNotFoundError
	if path == "" && errors.As(err, &notFound) {
		return nil
	}

	return fmt.Errorf("reading config file: %w", err)
}

// Load builds a client config from v. Unitless timeout and retry_base_delay
// values are milliseconds; a unitless cache.ttl is seconds.
func Load(v *viper.Viper) (*jsonph.Config, error) {
	cacheType := jsonph.CacheType(strings.ToLower(v.GetString(KeyCacheType)))
	switch cacheType {
	case jsonph.CacheTypeRedis, jsonph.CacheTypeNATS, jsonph.CacheTypeMemory, jsonph.CacheTypeNone:
	default:
		return nil, fmt.Errorf("%w: %q", constants.ErrInvalidCacheType, cacheType)
	}

	units := map[string]time.Duration{
		KeyTimeout:        time.Millisecond,
		KeyRetryBaseDelay: time.Millisecond,
		KeyCacheOpTimeout: time.Millisecond,
		KeyCacheTTL:       time.Second,
	}

	durations := make(map[string]time.Duration, len(units))

	for key, unit := range units {
		d, err := duration(v, key, unit)
		if err != nil {
			return nil, err
		}

		durations[key] = d
	}

	config := &jsonph.Config{
		BaseURL:        v.GetString(KeyBaseURL),
		Timeout:        durations[KeyTimeout],
		Headers:        v.GetStringMapString(KeyHeaders),
		UserAgent:      v.GetString(KeyUserAgent),
		RetryMax:       v.GetInt(KeyRetryMax),
		RetryBaseDelay: durations[KeyRetryBaseDelay],
		LogLevel:       v.GetString(KeyLogLevel),
		Cache: &jsonph.CacheConfig{
			Type:             cacheType,
			TTL:              durations[KeyCacheTTL],
			OperationTimeout: durations[KeyCacheOpTimeout],
			L1Size:           v.GetInt(KeyCacheL1Size),
			Redis: &jsonph.RedisConfig{
				Host:        v.GetString(KeyRedisHost),
				Port:        v.GetInt(KeyRedisPort),
				Password:    v.GetString(KeyRedisPassword),
				DB:          v.GetInt(KeyRedisDB),
				DialTimeout: constants.RedisDialTimeout,
				MaxRetries:  constants.RedisMaxRetries,
			},
			NATS: &jsonph.NATSKVConfig{
				URL:    v.GetString(KeyNATSURL),
				Bucket: v.GetString(KeyNATSBucket),
			},
			Memory: &jsonph.MemoryCacheConfig{
				MaxSize: v.GetInt(KeyMemoryMaxSize),
			},
		},
	}

	if token := v.GetString(KeyToken); token != "" {
		config.TokenSource = oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	}

	if config.Timeout < 0 {
		return nil, fmt.Errorf("%w: %s", constants.ErrInvalidTimeout, config.Timeout)
	}

	return config, nil
}

// duration reads key as a time.Duration. Bare numbers are counted in unit.
func duration(v *viper.Viper, key string, unit time.Duration) (time.Duration, error) {
	switch value := v.Get(key).(type) {
	case nil:
		return 0, nil
	case time.Duration:
		return value, nil
	case int:
		return time.Duration(value) * unit, nil
	case int64:
		return time.Duration(value) * unit, nil
	case float64:
		return time.Duration(value * float64(unit)), nil
	case string:
		trimmed := strings.TrimSpace(value)

		n, err := strconv.ParseInt(trimmed, 10, 64)
		if err == nil {
			return time.Duration(n) * unit, nil
		}

		d, err := time.ParseDuration(trimmed)
		if err != nil {
			return 0, fmt.Errorf("%w: %s=%q", constants.ErrInvalidDuration, key, value)
		}

		return d, nil
	default:
		return 0, fmt.Errorf("%w: %s=%v", constants.ErrInvalidDuration, key, value)
	}
}

// Settings returns the effective value of every key in Keys. Secrets are
// never included.
func Settings(v *viper.Viper) map[string]string {
	settings := make(map[string]string, len(Keys))
	for _, key := range Keys {
		settings[key] = v.GetString(key)
	}

	return settings
}

// IsKnownKey reports whether key is one of Keys.
func IsKnownKey(key string) bool {
	for _, known := range Keys {
		if known == key {
			return true
		}
	}

	return false
}
