package client

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/zerolog"
)

// RetryConfig holds the configuration for retry logic.
type RetryConfig struct {
	// MaxRetries is the number of retries after the initial attempt.
	MaxRetries int

	// BaseDelay is the backoff unit: the delay before retry k is
	// BaseDelay * 2^k.
	BaseDelay time.Duration

	// Jitter randomizes each delay by ±20% to avoid synchronized retry
	// storms across concurrent jobs. Off by default: the un-jittered
	// schedule is the documented behavior.
	Jitter bool
}

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 3,
		BaseDelay:  1 * time.Second,
		Jitter:     false,
	}
}

// retryWithBackoff executes fn with exponential backoff on transient
// failures. Only errors classified retryable by shouldRetry (429 and 5xx
// responses) are retried; everything else propagates immediately. After
// MaxRetries failed retries it returns ErrRetryExhausted wrapping the
// last error.
func retryWithBackoff(ctx context.Context, cfg RetryConfig, logger zerolog.Logger, fn func() error) error {
	var lastErr error

	for attempt := 0; ; attempt++ {
		err := fn()
		if err == nil {
			if attempt > 0 {
				logger.Info().
					Int("attempt", attempt+1).
					Msg("Request succeeded after retry")
			}
			return nil
		}

		lastErr = err
		if !shouldRetry(err) {
			return lastErr
		}

		if attempt >= cfg.MaxRetries {
			break
		}

		delay := cfg.BaseDelay << uint(attempt)
		if cfg.Jitter {
			delay = time.Duration(float64(delay) * (0.8 + rand.Float64()*0.4))
		}

		vsacRetriesTotal.Inc()
		vsacRetryBackoffSeconds.Observe(delay.Seconds())

		logger.Debug().
			Err(err).
			Int("attempt", attempt+1).
			Dur("backoff", delay).
			Msg("Retrying request after backoff")

		select {
		case <-ctx.Done():
			logger.Warn().
				Int("attempt", attempt+1).
				Msg("Context cancelled during retry backoff")
			return fmt.Errorf("%w: %v", ErrContextCancelled, ctx.Err())
		case <-time.After(delay):
		}
	}

	vsacRetryExhaustedTotal.Inc()
	logger.Warn().
		Err(lastErr).
		Int("max_retries", cfg.MaxRetries).
		Msg("Retry attempts exhausted")

	return fmt.Errorf("%w after %d retries: %w", ErrRetryExhausted, cfg.MaxRetries, lastErr)
}
