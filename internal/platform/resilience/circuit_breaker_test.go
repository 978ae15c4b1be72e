package resilience

import (
	"errors"
	"testing"
	"time"
)

func newTestBreaker(cfg CircuitBreakerConfig) (*CircuitBreaker, *time.Time) {
	breaker := NewCircuitBreaker(cfg)
	current := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	breaker.now = func() time.Time { return current }
	return breaker, &current
}

func TestCircuitBreaker_OpensAfterThresholdAndRecovers(t *testing.T) {
	t.Parallel()

	breaker, clock := newTestBreaker(CircuitBreakerConfig{
		FailureThreshold: 2,
		OpenTimeout:      time.Minute,
		HalfOpenMaxReq:   2,
	})

	if err := breaker.Allow(); err != nil {
		t.Fatalf("closed breaker should allow: %v", err)
	}
	breaker.RecordFailure()
	if got := breaker.State(); got != CircuitStateClosed {
		t.Fatalf("one failure below threshold should stay closed, got %s", got)
	}
	breaker.RecordFailure()
	if got := breaker.State(); got != CircuitStateOpen {
		t.Fatalf("expected open after threshold failures, got %s", got)
	}
	if err := breaker.Allow(); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("open breaker should reject, got %v", err)
	}

	*clock = clock.Add(time.Minute + time.Second)
	if got := breaker.State(); got != CircuitStateHalfOpen {
		t.Fatalf("expected half_open after the timeout, got %s", got)
	}
	for i := 0; i < 2; i++ {
		if err := breaker.Allow(); err != nil {
			t.Fatalf("half-open probe %d should be admitted: %v", i+1, err)
		}
	}
	if err := breaker.Allow(); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("half-open breaker over probe budget should reject, got %v", err)
	}

	breaker.RecordSuccess()
	breaker.RecordSuccess()
	if got := breaker.State(); got != CircuitStateClosed {
		t.Fatalf("expected closed after successful probes, got %s", got)
	}
	if err := breaker.Allow(); err != nil {
		t.Fatalf("recovered breaker should allow: %v", err)
	}
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	t.Parallel()

	breaker, clock := newTestBreaker(CircuitBreakerConfig{
		FailureThreshold: 1,
		OpenTimeout:      time.Minute,
		HalfOpenMaxReq:   1,
	})

	breaker.RecordFailure()
	*clock = clock.Add(2 * time.Minute)
	if err := breaker.Allow(); err != nil {
		t.Fatalf("half-open probe should be admitted: %v", err)
	}

	breaker.RecordFailure()
	if got := breaker.State(); got != CircuitStateOpen {
		t.Fatalf("failed probe should reopen, got %s", got)
	}
	if err := breaker.Allow(); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("reopened breaker should reject, got %v", err)
	}
}

func TestCircuitBreaker_SuccessResetsFailureCount(t *testing.T) {
	t.Parallel()

	breaker, _ := newTestBreaker(CircuitBreakerConfig{
		FailureThreshold: 2,
		OpenTimeout:      time.Minute,
		HalfOpenMaxReq:   1,
	})

	breaker.RecordFailure()
	breaker.RecordSuccess()
	breaker.RecordFailure()
	if got := breaker.State(); got != CircuitStateClosed {
		t.Fatalf("success should reset the failure count, got %s", got)
	}
}
