// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package retry runs an operation with exponential backoff between attempts.
package retry

import (
	"context"
	"fmt"
	"math"
	"time"
)

// Policy bounds the number of attempts and sets the backoff curve.
type Policy struct {
	// MaxAttempts is the total number of calls, including the first.
	MaxAttempts int

	// InitialBackoff is the wait before the first retry.
	InitialBackoff time.Duration
}

// Backoff returns the wait before retry number attempt (zero-based):
// InitialBackoff * 2^attempt. With a 5 s base the waits are 5 s, 10 s, 20 s.
func (p Policy) Backoff(attempt int) time.Duration {
	return time.Duration(math.Pow(2, float64(attempt))) * p.InitialBackoff
}

// Sleeper blocks for d or until ctx is done, returning ctx.Err() in the
// latter case.
type Sleeper func(ctx context.Context, d time.Duration) error

// ContextSleep is the default Sleeper.
func ContextSleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Retrier combines a Policy with the error classification and hooks used
// by Do.
type Retrier struct {
	Policy

	// Retryable reports whether err warrants another attempt. A nil
	// Retryable retries every error.
	Retryable func(err error) bool

	// Sleep waits between attempts. Nil means ContextSleep.
	Sleep Sleeper

	// OnRetry, when set, is called before each wait with the one-based
	// number of the failed attempt.
	OnRetry func(attempt int, wait time.Duration, err error)
}

// ExhaustedError is returned when every attempt failed with a retryable error.
type ExhaustedError struct {
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("after %d attempts: %v", e.Attempts, e.Last)
}

func (e *ExhaustedError) Unwrap() error { return e.Last }

// Do calls fn until it succeeds, returns a non-retryable error, or the
// attempt budget runs out. Non-retryable errors are returned unchanged
// without waiting. There is no wait after the final attempt. If ctx is
// cancelled during a wait Do returns ctx.Err().
func Do[T any](ctx context.Context, r Retrier, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	attempts := r.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	sleep := r.Sleep
	if sleep == nil {
		sleep = ContextSleep
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		if r.Retryable != nil && !r.Retryable(err) {
			return zero, err
		}
		lastErr = err

		if attempt == attempts-1 {
			break
		}

		wait := r.Backoff(attempt)
		if r.OnRetry != nil {
			r.OnRetry(attempt+1, wait, err)
		}
		if err := sleep(ctx, wait); err != nil {
			return zero, err
		}
	}
	return zero, &ExhaustedError{Attempts: attempts, Last: lastErr}
}
