// Package httputil provides retry helpers shared by all provider clients.
package httputil

import (
	"context"
	"errors"
	"time"
)

// Default retry policy for provider API calls. Three attempts total, waits
// start at two seconds, double after each failure, and never exceed thirty
// seconds between attempts.
const (
	DefaultAttempts = 3
	DefaultDelay    = 2 * time.Second
	MaxDelay        = 30 * time.Second
)

// RetryableError wraps an error to indicate it should trigger a retry.
// Wrap transient failures (network timeouts, connection errors, 429/5xx
// responses) with this type so that [Retry] knows to attempt the operation
// again. Any error not carrying this marker fails immediately.
type RetryableError struct{ Err error }

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// Retryable wraps an error as a RetryableError. Returns nil for nil input.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

// IsRetryable checks if an error is wrapped with RetryableError.
func IsRetryable(err error) bool {
	return errors.As(err, new(*RetryableError))
}

// Retry executes fn up to attempts times with exponential backoff.
// It only retries errors wrapped with [RetryableError]; other errors are
// returned immediately. The delay doubles after each failed attempt and is
// capped at [MaxDelay]. Retries are strictly sequential.
// Returns the last error if all attempts fail, or ctx.Err() if cancelled
// while waiting.
func Retry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	attempts = max(attempts, 1)
	var lastErr error

	for i := range attempts {
		if err := fn(); err == nil {
			return nil
		} else if lastErr = err; !IsRetryable(err) {
			return err
		}

		if i < attempts-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-sleep(delay):
			}
			delay = min(delay*2, MaxDelay)
		}
	}
	return lastErr
}

// RetryWithBackoff is a convenience wrapper around [Retry] using the default
// provider policy: 3 attempts with a 2 second initial delay.
func RetryWithBackoff(ctx context.Context, fn func() error) error {
	return Retry(ctx, DefaultAttempts, DefaultDelay, fn)
}

// sleep is swapped out in tests so retries don't actually wait.
var sleep = func(d time.Duration) <-chan time.Time { return time.After(d) }
