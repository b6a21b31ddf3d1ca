package coach

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"time"
)

// RetryConfig holds retry configuration.
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// DefaultRetryConfig returns the retry configuration for maxRetries retries.
func DefaultRetryConfig(maxRetries int) RetryConfig {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return RetryConfig{
		MaxRetries:     maxRetries,
		InitialBackoff: 500 * time.Millisecond,
		MaxBackoff:     4 * time.Second,
	}
}

// shouldRetry determines if a status code is retryable.
func shouldRetry(statusCode int) bool {
	switch statusCode {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

// calculateBackoff returns initialBackoff * 2^attempt, capped at MaxBackoff.
func calculateBackoff(attempt int, cfg RetryConfig) time.Duration {
	backoff := float64(cfg.InitialBackoff) * math.Pow(2, float64(attempt))
	if backoff > float64(cfg.MaxBackoff) {
		backoff = float64(cfg.MaxBackoff)
	}
	return time.Duration(backoff)
}

// attemptResult is the fully read outcome of one HTTP attempt.
type attemptResult struct {
	status int
	body   []byte
}

// retryWithBackoff runs attempt until it returns 200, a non-retryable
// status, or the retries run out. Transport errors are retried.
func (c *LLMClient) retryWithBackoff(ctx context.Context, attempt func(ctx context.Context) (attemptResult, error)) (attemptResult, error) {
	var lastErr error

	for i := 0; i <= c.retry.MaxRetries; i++ {
		select {
		case <-ctx.Done():
			return attemptResult{}, ctx.Err()
		default:
		}

		res, err := attempt(ctx)
		if err == nil && res.status == http.StatusOK {
			return res, nil
		}

		if err != nil {
			lastErr = err
		} else {
			lastErr = fmt.Errorf("HTTP %d", res.status)
			if !shouldRetry(res.status) {
				return res, nil
			}
		}

		if i == c.retry.MaxRetries {
			break
		}

		backoff := calculateBackoff(i, c.retry)
		c.logger.Warn().
			Int("attempt", i+1).
			Int("max_retries", c.retry.MaxRetries).
			Dur("backoff", backoff).
			Err(lastErr).
			Msg("Chat completion failed, retrying")

		select {
		case <-ctx.Done():
			return attemptResult{}, ctx.Err()
		case <-time.After(backoff):
		}
	}

	return attemptResult{}, fmt.Errorf("request failed after %d retries: %w", c.retry.MaxRetries, lastErr)
}
