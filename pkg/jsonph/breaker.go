package jsonph

import (
	"sync"
	"time"

	"github.com/fivetwenty-io/jsonplaceholder-client/internal/constants"
)

// CircuitBreakerConfig configures a CircuitBreaker.
type CircuitBreakerConfig struct {
	Threshold        int           // Consecutive failures before opening
	Cooldown         time.Duration // Time open before a trial operation
	SuccessThreshold int           // Trial successes needed to close
}

// DefaultCircuitBreakerConfig returns the cache breaker defaults.
func DefaultCircuitBreakerConfig() *CircuitBreakerConfig {
	return &CircuitBreakerConfig{
		Threshold:        constants.CircuitBreakerThreshold,
		Cooldown:         constants.CircuitBreakerCooldown,
		SuccessThreshold: constants.CircuitBreakerSuccessThreshold,
	}
}

// CircuitBreaker stops CacheStore from calling a backend that keeps failing.
// While open every operation is skipped; after Cooldown trial operations are
// let through and decide whether it closes again.
type CircuitBreaker struct {
	config *CircuitBreakerConfig

	mu        sync.Mutex
	failures  int
	successes int
	state     string
	openedAt  time.Time
	now       func() time.Time
}

// NewCircuitBreaker creates a closed breaker. A nil config uses the defaults.
func NewCircuitBreaker(config *CircuitBreakerConfig) *CircuitBreaker {
	resolved := *DefaultCircuitBreakerConfig()
	if config != nil {
		if config.Threshold > 0 {
			resolved.Threshold = config.Threshold
		}

		if config.Cooldown > 0 {
			resolved.Cooldown = config.Cooldown
		}

		if config.SuccessThreshold > 0 {
			resolved.SuccessThreshold = config.SuccessThreshold
		}
	}

	return &CircuitBreaker{
		config: &resolved,
		state:  constants.StatusClosed,
		now:    time.Now,
	}
}

// Allow reports whether the backend may be called.
func (b *CircuitBreaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != constants.StatusOpen {
		return true
	}

	if b.now().Sub(b.openedAt) < b.config.Cooldown {
		return false
	}

	b.state = constants.StatusHalfOpen
	b.successes = 0

	return true
}

// RecordSuccess notes a backend operation that completed, hit or miss.
func (b *CircuitBreaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case constants.StatusHalfOpen:
		b.successes++
		if b.successes >= b.config.SuccessThreshold {
			b.state = constants.StatusClosed
			b.failures = 0
		}
	case constants.StatusClosed:
		b.failures = 0
	}
}

// RecordFailure notes a failed backend operation and reports whether it
// opened the circuit.
func (b *CircuitBreaker) RecordFailure() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == constants.StatusOpen {
		return false
	}

	b.failures++

	if b.state == constants.StatusHalfOpen || b.failures >= b.config.Threshold {
		b.state = constants.StatusOpen
		b.openedAt = b.now()

		return true
	}

	return false
}

// State returns closed, open or half-open.
func (b *CircuitBreaker) State() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.state
}

// SetClock replaces the time source. Intended for tests.
func (b *CircuitBreaker) SetClock(now func() time.Time) {
	b.mu.Lock()
	b.now = now
	b.mu.Unlock()
}
