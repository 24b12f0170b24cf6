package workflow

import (
	"math"
	"math/rand/v2"
	"time"
)

// BackoffStrategy computes the delay before a retry attempt.
// Strategies are stateless and safe for concurrent use.
type BackoffStrategy interface {
	// Delay returns how long to wait before retry attempt n (1-indexed).
	// Attempt 1 is the first retry after the initial failure.
	Delay(attempt int) time.Duration
}

// ConstantBackoff always returns the same delay regardless of attempt number.
type ConstantBackoff struct {
	Interval time.Duration
}

// Delay returns the fixed interval.
func (c *ConstantBackoff) Delay(_ int) time.Duration {
	return c.Interval
}

// ExponentialBackoff applies full jitter to an exponential base.
// Delay = random value in [0, min(Initial * 2^(attempt-1), Max)].
type ExponentialBackoff struct {
	Initial time.Duration
	Max     time.Duration
}

// Delay returns a random duration in [0, min(Initial * 2^(attempt-1), Max)].
func (e *ExponentialBackoff) Delay(attempt int) time.Duration {
	base := float64(e.Initial) * math.Pow(2, float64(attempt-1))
	if e.Max > 0 && base > float64(e.Max) {
		base = float64(e.Max)
	}
	return time.Duration(rand.Float64() * base)
}

// DefaultBackoff returns the backoff used when none is configured:
// exponential with full jitter, 1s initial and 30s max.
func DefaultBackoff() BackoffStrategy {
	return &ExponentialBackoff{Initial: 1 * time.Second, Max: 30 * time.Second}
}
