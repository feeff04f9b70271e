// Package network provides the transport between the simulation server
// and external renderer/controller clients. This file wraps network
// operations in a circuit breaker so a flapping server cannot drag a
// client into a reconnect storm.
package network

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"github.com/polyball/polyball/pkg/logging"
)

// Operation represents a function that performs a network operation.
// It should return an error if the operation fails.
type Operation func() error

// BreakerService wraps network operations with circuit breaker
// functionality, retry logic, and exponential backoff.
type BreakerService struct {
	breaker *gobreaker.CircuitBreaker
	logger  *logging.Logger
}

// NewBreakerService creates a circuit breaker for client-side network
// operations. The circuit trips after a run of consecutive failures and
// probes again after the timeout.
func NewBreakerService() *BreakerService {
	logger := logging.NewLogger()

	settings := gobreaker.Settings{
		Name:        "polyball-client",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     15 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info(context.Background(), "circuit breaker state changed",
				"name", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	}

	return &BreakerService{
		breaker: gobreaker.NewCircuitBreaker(settings),
		logger:  logger,
	}
}

// Execute runs a network operation through the circuit breaker.
// If the circuit is open, it returns an error immediately.
func (bs *BreakerService) Execute(ctx context.Context, operation Operation) error {
	_, err := bs.breaker.Execute(func() (interface{}, error) {
		return nil, operation()
	})
	if err != nil {
		bs.logger.LogWithContext(ctx, slog.LevelError, "circuit breaker execution failed",
			"error", err,
			"state", bs.breaker.State().String(),
		)
		return fmt.Errorf("circuit breaker: %w", err)
	}

	return nil
}

// ExecuteWithRetry runs a network operation with retry and linear backoff.
// The circuit state is checked before each retry; an open circuit aborts
// the remaining attempts.
func (bs *BreakerService) ExecuteWithRetry(ctx context.Context, operation Operation) error {
	const maxRetries = 3
	baseDelay := 1 * time.Second

	for attempt := 0; attempt < maxRetries; attempt++ {
		err := bs.Execute(ctx, operation)
		if err == nil {
			return nil
		}

		if bs.breaker.State() == gobreaker.StateOpen {
			bs.logger.LogWithContext(ctx, slog.LevelWarn, "circuit breaker is open, skipping retries",
				"attempt", attempt+1,
				"max_retries", maxRetries,
			)
			return err
		}

		if attempt == maxRetries-1 {
			return fmt.Errorf("max retries (%d) exceeded: %w", maxRetries, err)
		}

		delay := time.Duration(attempt+1) * baseDelay
		bs.logger.LogWithContext(ctx, slog.LevelWarn, "operation failed, retrying",
			"attempt", attempt+1,
			"delay", delay.String(),
			"error", err,
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return nil
}
