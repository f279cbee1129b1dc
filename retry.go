package vello

import (
	"time"

	"github.com/yoo94/vello/internal/backoff"
)

// Library retry defaults: no retries, one second base delay.
const (
	DefaultRetryDelay = time.Second
)

// maxRetryDelay bounds the exponential formula; shifting a large base delay
// can otherwise overflow into a negative duration.
const maxRetryDelay = 30 * time.Minute

// RetryPolicy controls the retry scheduler for a request. Zero-valued fields
// inherit from the client defaults, which in turn inherit the library
// defaults.
type RetryPolicy struct {
	// MaxRetries is the number of retries after the initial attempt. A
	// persistently failing request performs MaxRetries+1 attempts in total.
	MaxRetries int
	// Delay is the base delay; without a Backoff override the delay before
	// retry n+1 is Delay * 2^n.
	Delay time.Duration
	// Condition decides retry eligibility from the classified error.
	// Defaults to DefaultRetryCondition.
	Condition RetryCondition
	// Backoff, when set, replaces the exponential formula entirely.
	Backoff BackoffFunc
}

// DefaultRetryCondition retries network failures, timeouts, and responses
// with status >= 500. Client errors (4xx) are never retried.
func DefaultRetryCondition(err *ClientError) bool {
	if err == nil {
		return false
	}
	switch err.Code {
	case CodeNetworkError, CodeTimeout:
		return true
	}
	return err.StatusCode() >= 500
}

// delayFor computes the wait before attempt+1.
func (p RetryPolicy) delayFor(attempt int, err *ClientError) time.Duration {
	if p.Backoff != nil {
		return p.Backoff(attempt, err)
	}
	base := p.Delay
	if base <= 0 {
		base = DefaultRetryDelay
	}
	if attempt > 30 {
		attempt = 30
	}
	d := base << uint(attempt)
	if d < 0 || d > maxRetryDelay {
		d = maxRetryDelay
	}
	return d
}

// ExponentialJitterBackoff returns a BackoffFunc using exponential growth
// with uniform jitter, capped at max. jitter is a fraction in [0,1].
func ExponentialJitterBackoff(initial, max time.Duration, multiplier, jitter float64) BackoffFunc {
	s := backoff.ExponentialJitterStrategy{}
	return func(attempt int, _ *ClientError) time.Duration {
		return s.Calculate(attempt, initial, max, multiplier, jitter)
	}
}

// DecorrelatedJitterBackoff returns a BackoffFunc using AWS-style
// decorrelated jitter, capped at max.
func DecorrelatedJitterBackoff(initial, max time.Duration) BackoffFunc {
	s := backoff.DecorrelatedJitterStrategy{}
	return func(attempt int, _ *ClientError) time.Duration {
		return s.Calculate(attempt, initial, max, 0, 0)
	}
}
