package mutation

import (
	"context"
	"math"
	"time"
)

// RetryPolicy bounds the submit attempts of a mutation. A zero policy means
// "use the engine default".
type RetryPolicy struct {
	MaxAttempts int           // total attempts including the first
	Delay       time.Duration // wait before the second attempt
	Backoff     float64       // delay multiplier per attempt, 1 = fixed delay
	MaxDelay    time.Duration // cap, 0 = uncapped
}

// DefaultRetryPolicy returns sensible defaults
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		Delay:       time.Second,
		Backoff:     2,
		MaxDelay:    30 * time.Second,
	}
}

// NoRetry submits exactly once
var NoRetry = RetryPolicy{MaxAttempts: 1}

// IsZero reports whether the policy is unset
func (p RetryPolicy) IsZero() bool {
	return p == RetryPolicy{}
}

func (p RetryPolicy) normalize() RetryPolicy {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	if p.Backoff < 1 {
		p.Backoff = 1
	}
	if p.Delay < 0 {
		p.Delay = 0
	}
	return p
}

// DelayFor returns the wait after the given failed attempt (1-based)
func (p RetryPolicy) DelayFor(attempt int) time.Duration {
	p = p.normalize()
	if attempt < 1 {
		attempt = 1
	}
	d := float64(p.Delay) * math.Pow(p.Backoff, float64(attempt-1))
	if p.MaxDelay > 0 && d > float64(p.MaxDelay) {
		return p.MaxDelay
	}
	if d > math.MaxInt64 {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(d)
}

// SleepFunc waits for d or until ctx is done
type SleepFunc func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
