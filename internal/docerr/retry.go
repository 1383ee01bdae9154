package docerr

import (
	"context"
	"math/rand"
	"time"
)

// RetryConfig implements §7's retry policy for transient Backend errors:
// a small bounded count of attempts with exponential backoff capped at a
// maximum interval.
type RetryConfig struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	Jitter       bool
}

// DefaultRetryConfig matches §7: default 3 attempts, 2s max interval.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  3,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     2 * time.Second,
		Multiplier:   2.0,
		Jitter:       true,
	}
}

func (c RetryConfig) delayFor(attempt int) time.Duration {
	d := float64(c.InitialDelay)
	for i := 0; i < attempt; i++ {
		d *= c.Multiplier
	}
	delay := time.Duration(d)
	if delay > c.MaxDelay {
		delay = c.MaxDelay
	}
	if c.Jitter {
		delay = time.Duration(float64(delay) * (0.5 + rand.Float64()*0.5))
	}
	return delay
}

// shouldRetry is called after a failed attempt; only transient Backend
// errors are retried, per §7 ("permanent errors are never retried").
func shouldRetry(err error) bool {
	return IsTransientBackend(err)
}

// Retry runs fn, retrying on transient Backend errors per cfg. It never
// retries permanent errors, and it never crosses into a different stage:
// callers should use this only at the store/provider call site.
func Retry(ctx context.Context, cfg RetryConfig, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(cfg.delayFor(attempt - 1)):
			}
		}
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !shouldRetry(lastErr) {
			return lastErr
		}
	}
	return lastErr
}

// RetryWithResult is Retry's value-returning counterpart.
func RetryWithResult[T any](ctx context.Context, cfg RetryConfig, fn func() (T, error)) (T, error) {
	var (
		lastErr error
		zero    T
		result  T
	)
	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(cfg.delayFor(attempt - 1)):
			}
		}
		result, lastErr = fn()
		if lastErr == nil {
			return result, nil
		}
		if !shouldRetry(lastErr) {
			return zero, lastErr
		}
	}
	return zero, lastErr
}
