package distiller

import (
	"context"
	"errors"
	"io/fs"
	"syscall"
	"time"
)

// RetryConfig configures exponential backoff for file reads.
type RetryConfig struct {
	MaxRetries int           // Retries after the first attempt; 0 disables retrying
	BaseDelay  time.Duration // Delay before the first retry
	MaxDelay   time.Duration // Upper bound on any single delay
	Multiplier float64       // Backoff growth per retry
}

// DefaultRetryConfig returns the read retry policy used unless
// WithReadRetry says otherwise.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 2,
		BaseDelay:  10 * time.Millisecond,
		MaxDelay:   100 * time.Millisecond,
		Multiplier: 2,
	}
}

// retryWithBackoff runs fn until it succeeds, returns an error retryable
// rejects, or MaxRetries retries are used up. Waiting is abandoned when ctx
// is done.
func retryWithBackoff[T any](ctx context.Context, config RetryConfig, retryable func(error) bool, fn func() (T, error)) (T, error) {
	var zero T
	backoff := config.BaseDelay

	for attempt := 0; ; attempt++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}
		if attempt >= config.MaxRetries || !retryable(err) {
			return zero, err
		}

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(backoff):
			backoff = time.Duration(float64(backoff) * config.Multiplier)
			if backoff > config.MaxDelay {
				backoff = config.MaxDelay
			}
		}
	}
}

// isTransientReadError reports whether a read failure might succeed on a
// second attempt. Missing files, permission problems and directories never do.
func isTransientReadError(err error) bool {
	switch {
	case errors.Is(err, fs.ErrNotExist),
		errors.Is(err, fs.ErrPermission),
		errors.Is(err, syscall.EISDIR),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return false
	}
	return true
}
