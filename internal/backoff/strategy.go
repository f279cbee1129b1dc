// Package backoff holds the delay calculation strategies used by the retry
// scheduler.
package backoff

import (
	"math/rand"
	"time"
)

// Strategy computes a retry delay from the attempt number and parameters.
type Strategy interface {
	Calculate(attempt int, initial, max time.Duration, multiplier, jitter float64) time.Duration
}

// ExponentialJitterStrategy grows the delay by multiplier per attempt and
// adds uniform jitter as a fraction of the computed delay.
type ExponentialJitterStrategy struct{}

func (ExponentialJitterStrategy) Calculate(attempt int, initial, max time.Duration, multiplier, jitter float64) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	// Cap the exponent to avoid overflow.
	if attempt > 30 {
		attempt = 30
	}

	d := time.Duration(float64(initial) * Pow(multiplier, attempt))
	if d < 0 || (max > 0 && d > max) {
		d = max
	}

	jitter = clampJitter(jitter)
	if jitter > 0 {
		amount := time.Duration(float64(d) * jitter * rand.Float64())
		if max > 0 && d+amount > max {
			d = max
		} else {
			d += amount
		}
	}
	return d
}

// DecorrelatedJitterStrategy implements decorrelated jitter per the AWS
// architecture blog: each delay is drawn uniformly from
// [initial, min(max, initial*3^attempt)]. The multiplier and jitter
// parameters are ignored.
type DecorrelatedJitterStrategy struct{}

func (DecorrelatedJitterStrategy) Calculate(attempt int, initial, max time.Duration, _, _ float64) time.Duration {
	if attempt <= 0 {
		return initial
	}
	if attempt > 10 {
		attempt = 10
	}

	base := float64(initial)
	upper := base * Pow(3.0, attempt)

	maxF := float64(max)
	if max > 0 && (upper > maxF || upper < 0) {
		upper = maxF
	}
	if upper < base {
		upper = base
	}

	d := time.Duration(base + rand.Float64()*(upper-base))
	if d < 0 || (max > 0 && d > max) {
		d = max
	}
	return d
}

func clampJitter(jitter float64) float64 {
	if jitter < 0 {
		return 0
	}
	if jitter > 1 {
		return 1
	}
	return jitter
}

// Pow computes base^exponent by repeated multiplication, matching the
// integer exponents used by the strategies.
func Pow(base float64, exponent int) float64 {
	result := 1.0
	for i := 0; i < exponent; i++ {
		result *= base
	}
	return result
}
