package helpers

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"trade-streamer/src/logger"
	"trade-streamer/src/models"
)

func testLogger() *logger.Logger {
	return logger.NewLogger(&models.MConfig{LogLevel: "ERROR"}, "test")
}

func TestStreamerErrorUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewTransportError("dial failed", cause)

	if !errors.Is(err, cause) {
		t.Error("Expected errors.Is to reach the cause through Unwrap")
	}
	if got := err.Error(); got != "dial failed: connection refused" {
		t.Errorf("Expected 'dial failed: connection refused', got %q", got)
	}
}

func TestErrorWithoutCause(t *testing.T) {
	err := NewFrameError("truncated frame", nil)

	if got := err.Error(); got != "truncated frame" {
		t.Errorf("Expected 'truncated frame', got %q", got)
	}
	if errors.Unwrap(err) != nil {
		t.Error("Expected no wrapped cause")
	}
}

func TestErrorsAsFindsTypedError(t *testing.T) {
	inner := NewStorageError("put failed", errors.New("disk full"))
	wrapped := fmt.Errorf("baseline write: %w", inner)

	var storageErr *StorageError
	if !errors.As(wrapped, &storageErr) {
		t.Fatal("Expected errors.As to find the StorageError")
	}
	if storageErr.Message != "put failed" {
		t.Errorf("Expected 'put failed', got %q", storageErr.Message)
	}

	var transportErr *TransportError
	if errors.As(wrapped, &transportErr) {
		t.Error("Expected no TransportError in the chain")
	}
}

func TestHandleCountsPerScope(t *testing.T) {
	handler := NewErrorHandler(testLogger())

	handler.Handle("dial", errors.New("refused"))
	handler.Handle("dial", errors.New("timeout"))
	handler.Handle("transport", errors.New("reset"))
	handler.Handle("transport", nil) // nil errors never count

	counts := handler.Counts()
	if counts["dial"] != 2 {
		t.Errorf("Expected 2 dial errors, got %d", counts["dial"])
	}
	if counts["transport"] != 1 {
		t.Errorf("Expected 1 transport error, got %d", counts["transport"])
	}

	handler.Reset()
	if got := handler.Counts(); len(got) != 0 {
		t.Errorf("Expected no counters after reset, got %v", got)
	}
}

func TestCountsReturnsCopy(t *testing.T) {
	handler := NewErrorHandler(testLogger())
	handler.Handle("dial", errors.New("refused"))

	counts := handler.Counts()
	counts["dial"] = 99

	if got := handler.Counts()["dial"]; got != 1 {
		t.Errorf("Expected the internal counter to stay 1, got %d", got)
	}
}

func TestRetrySucceedsAfterFailures(t *testing.T) {
	attempts := 0
	err := RetryWithBackoff("test op", 5, time.Millisecond, func() error {
		attempts++
		if attempts < 3 {
			return errors.New("not yet")
		}
		return nil
	})

	if err != nil {
		t.Errorf("Expected success, got %v", err)
	}
	if attempts != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts)
	}
}

func TestRetryExhaustsAndReturnsLastError(t *testing.T) {
	attempts := 0
	lastErr := errors.New("still broken")
	err := RetryWithBackoff("test op", 3, time.Millisecond, func() error {
		attempts++
		return lastErr
	})

	if !errors.Is(err, lastErr) {
		t.Errorf("Expected the last error back, got %v", err)
	}
	if attempts != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts)
	}
}

func TestRetryStopsOnFirstSuccess(t *testing.T) {
	attempts := 0
	err := RetryWithBackoff("test op", 5, time.Millisecond, func() error {
		attempts++
		return nil
	})

	if err != nil || attempts != 1 {
		t.Errorf("Expected one attempt and no error, got %d and %v", attempts, err)
	}
}
