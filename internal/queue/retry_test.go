package queue_test

import (
	"errors"
	"testing"
	"time"

	"github.com/autovid/voice-generator/internal/core"
	"github.com/autovid/voice-generator/internal/queue"
	"github.com/stretchr/testify/assert"
)

var errTransient = errors.New("transient provider failure")

func TestBackoffPolicy_RetriesTransientUntilExhausted(t *testing.T) {
	t.Parallel()

	policy := queue.BackoffPolicy{MaxAttempts: 3, BaseDelay: 10 * time.Millisecond}

	assert.True(t, policy.ShouldRetry(errTransient, 1))
	assert.True(t, policy.ShouldRetry(errTransient, 2))
	assert.False(t, policy.ShouldRetry(errTransient, 3))
}

func TestBackoffPolicy_NeverRetriesPermanent(t *testing.T) {
	t.Parallel()

	policy := queue.BackoffPolicy{MaxAttempts: 5, BaseDelay: 10 * time.Millisecond}

	assert.False(t, policy.ShouldRetry(core.ErrNoSegments, 1))
	assert.False(t, policy.ShouldRetry(core.ErrMalformedJob, 1))
	assert.False(t, policy.ShouldRetry(&core.SegmentError{Index: 0, Err: core.ErrVoiceNotFound}, 1))
}

func TestBackoffPolicy_SingleAttemptMeansNoRetry(t *testing.T) {
	t.Parallel()

	policy := queue.BackoffPolicy{MaxAttempts: 1, BaseDelay: 10 * time.Millisecond}

	assert.False(t, policy.ShouldRetry(errTransient, 1))
}

func TestBackoffPolicy_BackoffDoubles(t *testing.T) {
	t.Parallel()

	policy := queue.BackoffPolicy{MaxAttempts: 4, BaseDelay: 10 * time.Millisecond}

	assert.Equal(t, 10*time.Millisecond, policy.Backoff(1))
	assert.Equal(t, 20*time.Millisecond, policy.Backoff(2))
	assert.Equal(t, 40*time.Millisecond, policy.Backoff(3))
}
