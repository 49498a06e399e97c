package services

import (
	"context"
	"errors"
	"time"

	"alfredoptarigan/profile-matcher/internal/apperrors"
)

var ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")

// RetryPolicy bounds RetryWithBackoff. The delay before attempt n+1 is
// BaseDelay * 2^(n-1), capped at MaxDelay when MaxDelay > 0.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	// ShouldRetry decides whether a failed attempt is repeated. Nil means
	// apperrors.IsRetryable.
	ShouldRetry func(err error) bool
}

// RetryAnyFailure retries every error except context cancellation.
func RetryAnyFailure(err error) bool {
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

func (p RetryPolicy) retryable(err error) bool {
	if p.ShouldRetry != nil {
		return p.ShouldRetry(err)
	}
	return apperrors.IsRetryable(err)
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, BaseDelay: time.Second, MaxDelay: 10 * time.Second}
}

// RetryWithBackoff runs operation until it succeeds, returns a non-retryable
// error, the attempts are exhausted, or ctx is done. The error of the last
// attempt is returned unchanged.
func RetryWithBackoff(ctx context.Context, policy RetryPolicy, operation func(ctx context.Context) error) error {
	if policy.MaxAttempts <= 0 {
		return ErrInvalidMaxAttempts
	}

	var lastErr error
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		lastErr = operation(ctx)
		if lastErr == nil || !policy.retryable(lastErr) {
			return lastErr
		}

		if attempt == policy.MaxAttempts {
			break
		}

		timer := time.NewTimer(policy.backoff(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return lastErr
}

func (p RetryPolicy) backoff(attempt int) time.Duration {
	delay := p.BaseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if p.MaxDelay > 0 && delay >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		return p.MaxDelay
	}
	return delay
}
