package components

import (
	"errors"
	"testing"
	"time"
)

func TestWithTimeout_FastOperationCompletes(t *testing.T) {
	op := WithTimeout("fast", time.Second, func(cb func(error)) {
		time.Sleep(100 * time.Millisecond)
		cb(nil)
	})

	done := make(chan error, 1)
	start := time.Now()
	op(func(err error) { done <- err })

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("operation never completed")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("took too long: %v", elapsed)
	}
}

func TestWithTimeout_NeverCompletingOperationTimesOut(t *testing.T) {
	block := make(chan struct{})
	defer close(block)

	op := WithTimeout("slow", 200*time.Millisecond, func(cb func(error)) {
		<-block
		cb(nil)
	})

	done := make(chan error, 1)
	start := time.Now()
	op(func(err error) { done <- err })

	select {
	case err := <-done:
		if !IsKind(err, KindTimeout) {
			t.Fatalf("expected TimeoutError, got %v", err)
		}
		elapsed := time.Since(start)
		if elapsed < 200*time.Millisecond || elapsed > time.Second {
			t.Fatalf("timeout fired at unexpected time: %v", elapsed)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout wrapper never fired")
	}
}

func TestRetryWithDelay_ExhaustsAfterMaxRetries(t *testing.T) {
	attempts := 0
	wantErr := errors.New("boom")
	err := RetryWithDelay("comp", 2, time.Millisecond, func() error {
		attempts++
		return wantErr
	})
	if attempts != 3 {
		t.Fatalf("attempts = %d, want 3", attempts)
	}
	if !IsKind(err, KindRetryExhausted) {
		t.Fatalf("expected RetryExhausted, got %v", err)
	}
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected wrapped cause, got %v", err)
	}
}

func TestRetryWithDelay_SucceedsBeforeExhaustion(t *testing.T) {
	attempts := 0
	err := RetryWithDelay("comp", 5, time.Millisecond, func() error {
		attempts++
		if attempts == 2 {
			return nil
		}
		return errors.New("not yet")
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attempts != 2 {
		t.Fatalf("attempts = %d, want 2", attempts)
	}
}

func TestDoubleCallbackGuard_OnlyFirstDelivered(t *testing.T) {
	var delivered, discarded int
	guard := DoubleCallbackGuard(
		func(err error, comp Component) { discarded++ },
		func(err error, comp Component) { delivered++ },
	)

	guard(nil, nil)
	guard(nil, nil)
	guard(errors.New("late"), nil)

	if delivered != 1 {
		t.Fatalf("delivered = %d, want 1", delivered)
	}
	if discarded != 2 {
		t.Fatalf("discarded = %d, want 2", discarded)
	}
}
