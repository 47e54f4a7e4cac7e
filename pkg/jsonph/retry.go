package jsonph

import (
	"time"

	"github.com/fivetwenty-io/jsonplaceholder-client/internal/constants"
)

// RetryPolicy decides whether a failed transport attempt is retried and how
// long to wait first. It is not method-aware: a POST answered with 500 is
// retried like a GET.
type RetryPolicy struct {
	// MaxRetries is the maximum number of retry attempts after the initial try.
	MaxRetries int
	// BaseDelay is multiplied by 2^retry to produce each backoff.
	BaseDelay time.Duration
}

// DefaultRetryPolicy returns 3 retries (4 attempts) starting at 100ms.
func DefaultRetryPolicy() *RetryPolicy {
	return &RetryPolicy{
		MaxRetries: constants.DefaultRetryMax,
		BaseDelay:  constants.DefaultRetryBaseDelay,
	}
}

// ShouldRetry reports whether an attempt that ended with statusCode (0 when no
// response was received) and err should be retried.
func (p *RetryPolicy) ShouldRetry(statusCode int, err error) bool {
	if err != nil {
		return true
	}

	return statusCode >= constants.HTTPStatusInternalServerError
}

// Allow reports whether retry number retry (1-based) is within budget.
func (p *RetryPolicy) Allow(retry int) bool {
	return retry >= 1 && retry <= p.MaxRetries
}

// Delay returns the backoff before retry number retry (1-based).
func (p *RetryPolicy) Delay(retry int) time.Duration {
	if retry < 0 {
		retry = 0
	}

	if retry > constants.MaxBackoffShift {
		retry = constants.MaxBackoffShift
	}

	return p.BaseDelay * time.Duration(1<<uint(retry))
}

// TotalAttempts is the first attempt plus every allowed retry.
func (p *RetryPolicy) TotalAttempts() int {
	return p.MaxRetries + 1
}
