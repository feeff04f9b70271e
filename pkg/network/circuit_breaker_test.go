// pkg/network/circuit_breaker_test.go
package network

import (
	"context"
	"errors"
	"testing"
)

func TestBreakerService_ExecuteSuccess(t *testing.T) {
	bs := NewBreakerService()

	calls := 0
	err := bs.Execute(context.Background(), func() error {
		calls++
		return nil
	})

	if err != nil {
		t.Errorf("Execute() failed: %v", err)
	}
	if calls != 1 {
		t.Errorf("operation ran %d times, expected 1", calls)
	}
}

func TestBreakerService_ExecutePropagatesError(t *testing.T) {
	bs := NewBreakerService()
	boom := errors.New("boom")

	err := bs.Execute(context.Background(), func() error { return boom })

	if !errors.Is(err, boom) {
		t.Errorf("Execute() error = %v, expected wrapped boom", err)
	}
}

func TestBreakerService_ExecuteWithRetry(t *testing.T) {
	bs := NewBreakerService()

	// First attempt fails, second succeeds after the backoff
	calls := 0
	err := bs.ExecuteWithRetry(context.Background(), func() error {
		calls++
		if calls < 2 {
			return errors.New("transient")
		}
		return nil
	})

	if err != nil {
		t.Errorf("ExecuteWithRetry() failed: %v", err)
	}
	if calls != 2 {
		t.Errorf("operation ran %d times, expected 2", calls)
	}
}

func TestBreakerService_ExecuteWithRetryHonorsContext(t *testing.T) {
	bs := NewBreakerService()

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	done := make(chan error, 1)
	go func() {
		done <- bs.ExecuteWithRetry(ctx, func() error {
			calls++
			if calls == 1 {
				cancel()
			}
			return errors.New("always fails")
		})
	}()

	err := <-done
	if !errors.Is(err, context.Canceled) {
		t.Errorf("ExecuteWithRetry() error = %v, expected context.Canceled", err)
	}
	if calls != 1 {
		t.Errorf("operation ran %d times after cancel, expected 1", calls)
	}
}
