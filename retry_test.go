package distiller

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fastRetry = RetryConfig{MaxRetries: 3, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond, Multiplier: 2}

func alwaysRetry(error) bool { return true }

func TestRetryWithBackoff_SucceedsAfterFailures(t *testing.T) {
	t.Parallel()
	calls := 0
	got, err := retryWithBackoff(context.Background(), fastRetry, alwaysRetry, func() (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("transient")
		}
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 3, calls)
}

func TestRetryWithBackoff_GivesUpAfterMaxRetries(t *testing.T) {
	t.Parallel()
	calls := 0
	_, err := retryWithBackoff(context.Background(), fastRetry, alwaysRetry, func() (int, error) {
		calls++
		return 0, fmt.Errorf("attempt %d", calls)
	})
	require.Error(t, err)
	assert.Equal(t, fastRetry.MaxRetries+1, calls)
	assert.EqualError(t, err, "attempt 4")
}

func TestRetryWithBackoff_ZeroRetries(t *testing.T) {
	t.Parallel()
	calls := 0
	_, err := retryWithBackoff(context.Background(), RetryConfig{}, alwaysRetry, func() (int, error) {
		calls++
		return 0, errors.New("boom")
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetryWithBackoff_NonRetryableStopsImmediately(t *testing.T) {
	t.Parallel()
	calls := 0
	_, err := retryWithBackoff(context.Background(), fastRetry, isTransientReadError, func() ([]byte, error) {
		calls++
		return nil, &fs.PathError{Op: "open", Path: "gone.c", Err: fs.ErrNotExist}
	})
	require.ErrorIs(t, err, fs.ErrNotExist)
	assert.Equal(t, 1, calls)
}

func TestRetryWithBackoff_ContextDoneDuringBackoff(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	slow := RetryConfig{MaxRetries: 5, BaseDelay: time.Hour, MaxDelay: time.Hour, Multiplier: 1}

	calls := 0
	_, err := retryWithBackoff(ctx, slow, alwaysRetry, func() (int, error) {
		calls++
		cancel()
		return 0, errors.New("transient")
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestIsTransientReadError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"not exist", &fs.PathError{Op: "open", Path: "x", Err: fs.ErrNotExist}, false},
		{"permission", &fs.PathError{Op: "open", Path: "x", Err: fs.ErrPermission}, false},
		{"is a directory", &fs.PathError{Op: "read", Path: "x", Err: syscall.EISDIR}, false},
		{"cancelled", context.Canceled, false},
		{"deadline", fmt.Errorf("read: %w", context.DeadlineExceeded), false},
		{"io error", &fs.PathError{Op: "read", Path: "x", Err: syscall.EIO}, true},
		{"plain", errors.New("flaky"), true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, isTransientReadError(tt.err), tt.name)
	}
}

func TestDefaultRetryConfig(t *testing.T) {
	t.Parallel()
	cfg := DefaultRetryConfig()
	assert.Equal(t, 2, cfg.MaxRetries)
	assert.Equal(t, 10*time.Millisecond, cfg.BaseDelay)
	assert.Equal(t, 100*time.Millisecond, cfg.MaxDelay)
	assert.Equal(t, 2.0, cfg.Multiplier)
}
