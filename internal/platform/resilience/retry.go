package resilience

import (
	"context"
	"time"
)

// RetryPolicy is the single retry/backoff rule shared by every provider
// client, so retry semantics stay consistent and testable in one place.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	// Retryable classifies an error as transient. Nil retries nothing.
	Retryable func(error) bool
}

func NormalizeRetryPolicy(policy RetryPolicy) RetryPolicy {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 3
	}
	if policy.BaseDelay <= 0 {
		policy.BaseDelay = 500 * time.Millisecond
	}
	if policy.MaxDelay <= 0 {
		policy.MaxDelay = 15 * time.Second
	}
	return policy
}

// Do runs op until it succeeds, fails terminally, or attempts are exhausted.
// Backoff doubles per attempt and honors context cancellation.
func (p RetryPolicy) Do(ctx context.Context, op func(context.Context) error) error {
	policy := NormalizeRetryPolicy(p)

	var lastErr error
	delay := policy.BaseDelay
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}
		if policy.Retryable == nil || !policy.Retryable(lastErr) {
			return lastErr
		}
		if attempt == policy.MaxAttempts {
			break
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		delay *= 2
		if delay > policy.MaxDelay {
			delay = policy.MaxDelay
		}
	}

	return lastErr
}
