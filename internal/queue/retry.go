package queue

import (
	"time"

	"github.com/autovid/voice-generator/internal/core"
)

// BackoffPolicy retries transient processing failures with exponential
// backoff before the message is rejected. MaxAttempts counts every
// attempt, so MaxAttempts of 1 means no retry at all, which mirrors the
// original reject-on-first-failure behavior.
type BackoffPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// ShouldRetry reports whether the failed attempt should be tried again.
// Permanent errors are never retried: redelivering a malformed job or an
// unknown voice only burns provider quota.
func (p BackoffPolicy) ShouldRetry(err error, attempt int) bool {
	if core.IsPermanent(err) {
		return false
	}

	return attempt < p.MaxAttempts
}

// Backoff returns the delay before the next attempt, doubling per attempt.
func (p BackoffPolicy) Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	return p.BaseDelay << (attempt - 1)
}
