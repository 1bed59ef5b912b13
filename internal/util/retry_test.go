package util

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"
)

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "nil error",
			err:      nil,
			expected: false,
		},
		{
			name:     "EAGAIN",
			err:      syscall.EAGAIN,
			expected: true,
		},
		{
			name:     "EBUSY",
			err:      syscall.EBUSY,
			expected: true,
		},
		{
			name:     "ENOENT (not retryable)",
			err:      syscall.ENOENT,
			expected: false,
		},
		{
			name:     "sqlite busy message",
			err:      errors.New("database is locked (5) (SQLITE_BUSY)"),
			expected: true,
		},
		{
			name:     "unique constraint (not retryable)",
			err:      errors.New("constraint failed: UNIQUE constraint failed: songs.isrc (2067)"),
			expected: false,
		},
		{
			name:     "tool missing (not retryable)",
			err:      fmt.Errorf("ffmpeg: %w", ErrToolMissing),
			expected: false,
		},
		{
			name:     "tool timeout (not retryable)",
			err:      fmt.Errorf("fpcalc: %w", ErrTimeout),
			expected: false,
		},
		{
			name:     "PathError with EIO",
			err:      &os.PathError{Op: "open", Path: "/test", Err: syscall.EIO},
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryableError(tt.err); got != tt.expected {
				t.Errorf("IsRetryableError(%v) = %v, expected %v", tt.err, got, tt.expected)
			}
		})
	}
}

func TestRetryWithBackoff_SuccessAfterRetries(t *testing.T) {
	attempts := 0
	cfg := &RetryConfig{
		MaxAttempts: 3,
		InitialWait: 5 * time.Millisecond,
		MaxWait:     20 * time.Millisecond,
	}

	result, err := RetryWithBackoff(cfg, func() (int64, error) {
		attempts++
		if attempts < 3 {
			return 0, errors.New("database is locked")
		}
		return 7, nil
	}, "insert song")

	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if result != 7 {
		t.Errorf("Expected result 7, got: %d", result)
	}
	if attempts != 3 {
		t.Errorf("Expected 3 attempts, got: %d", attempts)
	}
}

func TestRetryWithBackoff_FailureAfterMaxRetries(t *testing.T) {
	attempts := 0
	cfg := &RetryConfig{
		MaxAttempts: 3,
		InitialWait: 5 * time.Millisecond,
		MaxWait:     20 * time.Millisecond,
	}

	busy := errors.New("database is locked")
	_, err := RetryWithBackoff(cfg, func() (int, error) {
		attempts++
		return 0, busy
	}, "insert song")

	if !errors.Is(err, busy) {
		t.Errorf("Expected wrapped busy error, got: %v", err)
	}
	if attempts != 3 {
		t.Errorf("Expected 3 attempts, got: %d", attempts)
	}
}

func TestRetryWithBackoff_NonRetryableError(t *testing.T) {
	attempts := 0
	_, err := RetryWithBackoff(DefaultRetryConfig(), func() (int, error) {
		attempts++
		return 0, errors.New("UNIQUE constraint failed: songs.isrc")
	}, "insert song")

	if err == nil {
		t.Error("Expected error, got nil")
	}
	if attempts != 1 {
		t.Errorf("Expected 1 attempt (no retry for non-retryable), got: %d", attempts)
	}
}

func TestRetryableMkdirAll(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "samples", "wav")

	if err := RetryableMkdirAll(dir, 0755, nil); err != nil {
		t.Fatalf("RetryableMkdirAll failed: %v", err)
	}

	info, err := os.Stat(dir)
	if err != nil {
		t.Fatalf("stat failed: %v", err)
	}
	if !info.IsDir() {
		t.Errorf("%s is not a directory", dir)
	}
}

func TestCatalogRetryConfig(t *testing.T) {
	cfg := CatalogRetryConfig()

	if cfg.MaxAttempts != 5 {
		t.Errorf("Expected MaxAttempts=5, got: %d", cfg.MaxAttempts)
	}
	if cfg.InitialWait != 50*time.Millisecond {
		t.Errorf("Expected InitialWait=50ms, got: %v", cfg.InitialWait)
	}
}
