package jsonph_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/fivetwenty-io/jsonplaceholder-client/pkg/jsonph"
)

func TestRetryPolicy_ShouldRetry(t *testing.T) {
	t.Parallel()

	policy := jsonph.DefaultRetryPolicy()

	tests := []struct {
		name   string
		status int
		err    error
		want   bool
	}{
		{name: "network failure", status: 0, err: errors.New("connection refused"), want: true},
		{name: "500", status: 500, want: true},
		{name: "503", status: 503, want: true},
		{name: "599", status: 599, want: true},
		{name: "499", status: 499, want: false},
		{name: "404", status: 404, want: false},
		{name: "429", status: 429, want: false},
		{name: "200", status: 200, want: false},
	}

	for _, testCase := range tests {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, testCase.want, policy.ShouldRetry(testCase.status, testCase.err))
		})
	}
}

func TestRetryPolicy_Delay(t *testing.T) {
	t.Parallel()

	policy := jsonph.DefaultRetryPolicy()

	assert.Equal(t, 200*time.Millisecond, policy.Delay(1))
	assert.Equal(t, 400*time.Millisecond, policy.Delay(2))
	assert.Equal(t, 800*time.Millisecond, policy.Delay(3))
	assert.Equal(t, 100*time.Millisecond, policy.Delay(0))
	assert.Equal(t, 100*time.Millisecond, policy.Delay(-1))
	assert.Equal(t, policy.Delay(30), policy.Delay(64))
}

func TestRetryPolicy_Budget(t *testing.T) {
	t.Parallel()

	policy := jsonph.DefaultRetryPolicy()

	assert.Equal(t, 3, policy.MaxRetries)
	assert.Equal(t, 4, policy.TotalAttempts())
	assert.False(t, policy.Allow(0))
	assert.True(t, policy.Allow(1))
	assert.True(t, policy.Allow(3))
	assert.False(t, policy.Allow(4))

	none := &jsonph.RetryPolicy{MaxRetries: 0, BaseDelay: time.Millisecond}
	assert.Equal(t, 1, none.TotalAttempts())
	assert.False(t, none.Allow(1))
}
