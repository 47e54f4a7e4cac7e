package constants

import "errors"

// Configuration errors.
var (
	ErrInvalidCacheType = errors.New("invalid cache type")
	ErrInvalidLogLevel  = errors.New("invalid log level")
	ErrInvalidTimeout   = errors.New("timeout must not be negative")
	ErrInvalidDuration  = errors.New("invalid duration")
	ErrInvalidBaseURL   = errors.New("base URL must be an absolute http(s) URL")
)

// CLI argument errors.
var (
	ErrPostIDRequired     = errors.New("post ID argument is required")
	ErrInvalidPostID      = errors.New("post ID must be a positive integer")
	ErrInvalidOutput      = errors.New("output must be one of table, json, yaml")
	ErrNothingToUpdate    = errors.New("at least one field must be set")
	ErrUnknownConfigKey   = errors.New("unknown configuration key")
	ErrConfigFileNotFound = errors.New("no configuration file in use")
	ErrConfigFileExists   = errors.New("config file already exists (use --force to overwrite)")
)
