package engine

import (
	"context"
	"log/slog"
	"math/rand"
	"time"
)

// RetryPlan controls one strategy's internal retry loop.
// Recreated per call, never shared between concurrent extractions.
type RetryPlan struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Jitter      time.Duration
	// AbortOn short-circuits remaining attempts for error classes where
	// retrying the same strategy cannot help (the orchestrator still falls
	// through to the next strategy).
	AbortOn map[ErrorKind]bool
}

// Backoff returns the wait before the next attempt: attempt*base plus a
// random jitter slice.
func (p RetryPlan) Backoff(attempt int) time.Duration {
	d := time.Duration(attempt) * p.BaseDelay
	if p.Jitter > 0 {
		d += time.Duration(rand.Int63n(int64(p.Jitter))) //nolint:gosec // non-cryptographic use
	}
	return d
}

func (p RetryPlan) aborts(kind ErrorKind) bool {
	if p.AbortOn != nil && p.AbortOn[kind] {
		return true
	}
	return !kind.Retryable()
}

// runAttempts drives a strategy's attempt loop:
// Attempting(n) -> {Success | Retrying -> Attempting(n+1) | Exhausted}.
// Retrying is entered only for retry-eligible error classes and only while
// attempts remain. Waits are context-aware; cancellation wins immediately.
func runAttempts[T any](ctx context.Context, plan RetryPlan, fn func(attempt int) (T, error)) (T, error) {
	var zero T
	var lastErr error

	// A misconfigured plan still gets one attempt; returning (zero, nil)
	// would hand callers a nil result with no error.
	attempts := plan.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}

		result, err := fn(attempt)
		if err == nil {
			return result, nil
		}
		lastErr = err

		kind := KindOf(err)
		if plan.aborts(kind) {
			slog.Debug("aborting retries",
				slog.String("class", kind.String()), slog.Int("attempt", attempt))
			return zero, err
		}

		if attempt < attempts {
			wait := plan.Backoff(attempt)
			slog.Debug("retrying",
				slog.Int("attempt", attempt), slog.Duration("wait", wait), slog.Any("error", err))
			if err := sleepCtx(ctx, wait); err != nil {
				return zero, err
			}
		}
	}
	return zero, lastErr
}

// sleepCtx blocks for d or until the context is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// humanDelay picks a randomized pause within [min, max], used before the
// first request of a strategy to avoid a mechanical request signature.
func humanDelay(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(rand.Int63n(int64(max-min))) //nolint:gosec // non-cryptographic use
}
