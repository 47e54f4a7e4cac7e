package jsonph_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/fivetwenty-io/jsonplaceholder-client/pkg/jsonph"
)

func TestCircuitBreaker_Defaults(t *testing.T) {
	t.Parallel()

	config := jsonph.DefaultCircuitBreakerConfig()
	assert.Equal(t, 2, config.Threshold)
	assert.Equal(t, 30*time.Second, config.Cooldown)
	assert.Equal(t, 1, config.SuccessThreshold)

	assert.Equal(t, "closed", jsonph.NewCircuitBreaker(nil).State())
}

func TestCircuitBreaker_OpensAndRecovers(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	breaker := jsonph.NewCircuitBreaker(&jsonph.CircuitBreakerConfig{
		Threshold:        3,
		Cooldown:         time.Minute,
		SuccessThreshold: 2,
	})
	breaker.SetClock(func() time.Time { return now })

	assert.False(t, breaker.RecordFailure())
	assert.False(t, breaker.RecordFailure())
	assert.True(t, breaker.Allow())
	assert.True(t, breaker.RecordFailure())
	assert.Equal(t, "open", breaker.State())
	assert.False(t, breaker.Allow())

	now = now.Add(59 * time.Second)
	assert.False(t, breaker.Allow())

	now = now.Add(2 * time.Second)
	assert.True(t, breaker.Allow())
	assert.Equal(t, "half-open", breaker.State())

	breaker.RecordSuccess()
	assert.Equal(t, "half-open", breaker.State())
	breaker.RecordSuccess()
	assert.Equal(t, "closed", breaker.State())
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	breaker := jsonph.NewCircuitBreaker(&jsonph.CircuitBreakerConfig{Threshold: 1, Cooldown: time.Second})
	breaker.SetClock(func() time.Time { return now })

	assert.True(t, breaker.RecordFailure())
	assert.False(t, breaker.RecordFailure(), "already open")

	now = now.Add(2 * time.Second)
	assert.True(t, breaker.Allow())
	assert.True(t, breaker.RecordFailure())
	assert.False(t, breaker.Allow())
}

func TestCircuitBreaker_SuccessResetsFailures(t *testing.T) {
	t.Parallel()

	breaker := jsonph.NewCircuitBreaker(nil)

	assert.False(t, breaker.RecordFailure())
	breaker.RecordSuccess()
	assert.False(t, breaker.RecordFailure())
	assert.Equal(t, "closed", breaker.State())
}
