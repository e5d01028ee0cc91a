// Package retry runs an operation with bounded, jittered exponential backoff.
package retry

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"github.com/ckwokli/pws/internal/errs"
)

// sleepFunc waits between attempts (injectable for tests)
var sleepFunc = sleepContext

// jitterFunc draws the backoff multiplier (injectable for tests)
var jitterFunc = func() float64 {
	return 0.8 + rand.Float64()*0.4
}

// Policy controls how often and how patiently an operation is retried
type Policy struct {
	MaxRetries  int
	BaseBackoff time.Duration
	// ShouldRetry decides whether a failure is transient. Nil uses DefaultShouldRetry.
	ShouldRetry func(error) bool
}

// Execute runs op up to MaxRetries+1 times. The last failure is returned
// unchanged so its kind survives.
func Execute[T any](ctx context.Context, policy Policy, op func(context.Context) (T, error)) (T, error) {
	shouldRetry := policy.ShouldRetry
	if shouldRetry == nil {
		shouldRetry = DefaultShouldRetry
	}

	var zero T
	var lastErr error
	for attempt := 0; attempt <= policy.MaxRetries; attempt++ {
		result, err := op(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if ctx.Err() != nil || !shouldRetry(err) || attempt == policy.MaxRetries {
			break
		}

		if err := sleepFunc(ctx, Backoff(policy.BaseBackoff, attempt, jitterFunc())); err != nil {
			break
		}
	}

	return zero, lastErr
}

// Backoff returns base × 2^attempt × jitter
func Backoff(base time.Duration, attempt int, jitter float64) time.Duration {
	return time.Duration(float64(base) * float64(uint64(1)<<uint(attempt)) * jitter)
}

// DefaultShouldRetry retries network failures and 5xx responses. Client
// errors, rejected input, oversized payloads and cancellations are final.
func DefaultShouldRetry(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}

	switch errs.KindOf(err) {
	case errs.KindInvalidInput, errs.KindPayloadTooLarge, errs.KindInternal:
		return false
	case errs.KindTimeout:
		return true
	}

	status := errs.StatusOf(err)
	return status == 0 || status >= 500
}

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
