package resilience

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"
)

// RetryConfig holds configuration for retry behavior
type RetryConfig struct {
	MaxAttempts     int              `json:"max_attempts"`
	InitialDelay    time.Duration    `json:"initial_delay"`
	MaxDelay        time.Duration    `json:"max_delay"`
	BackoffFactor   float64          `json:"backoff_factor"`
	JitterEnabled   bool             `json:"jitter_enabled"`
	RetryableErrors func(error) bool `json:"-"` // nil retries everything IsRetryable accepts
}

// IsRetryable rejects errors that another attempt cannot fix: an open
// circuit and a cancelled or expired context.
func IsRetryable(err error) bool {
	var cbErr *CircuitBreakerError
	switch {
	case errors.As(err, &cbErr):
		return false
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	}
	return true
}

// RetryableFunc represents a function that can be retried
type RetryableFunc func() error

// RetryWithConfig executes fn until it succeeds, returns a non-retryable
// error, or MaxAttempts is reached. Fewer than one attempt means one.
func RetryWithConfig(ctx context.Context, config RetryConfig, fn RetryableFunc) error {
	attempts := config.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	retryable := config.RetryableErrors
	if retryable == nil {
		retryable = IsRetryable
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if !retryable(err) || attempt == attempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(calculateDelay(config, attempt)):
		}
	}

	return lastErr
}

func calculateDelay(config RetryConfig, attempt int) time.Duration {
	factor := config.BackoffFactor
	if factor <= 0 {
		factor = 1
	}
	delay := time.Duration(float64(config.InitialDelay) * math.Pow(factor, float64(attempt)))

	if config.MaxDelay > 0 && delay > config.MaxDelay {
		delay = config.MaxDelay
	}

	// up to 10% jitter
	if config.JitterEnabled && delay >= 10 {
		delay += time.Duration(rand.Int63n(int64(delay / 10)))
	}

	return delay
}

// RetryPolicy is a named retry configuration
type RetryPolicy struct {
	Name   string
	Config RetryConfig
}

var (
	// FastRetryPolicy suits broker publishes made on the request path
	FastRetryPolicy = RetryPolicy{
		Name: "fast",
		Config: RetryConfig{
			MaxAttempts:   3,
			InitialDelay:  50 * time.Millisecond,
			MaxDelay:      500 * time.Millisecond,
			BackoffFactor: 2.0,
			JitterEnabled: true,
		},
	}

	// StandardRetryPolicy for background work such as retention cleanup
	StandardRetryPolicy = RetryPolicy{
		Name: "standard",
		Config: RetryConfig{
			MaxAttempts:   3,
			InitialDelay:  100 * time.Millisecond,
			MaxDelay:      10 * time.Second,
			BackoffFactor: 2.0,
			JitterEnabled: true,
		},
	}
)
