package helpers

import (
	"fmt"
	"sync"
	"time"

	"trade-streamer/src/logger"
)

// -----------------------------------------------------------------------------
// Custom Error Types
// -----------------------------------------------------------------------------

type StreamerError struct {
	Message string
	Cause   error
}

func (e *StreamerError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *StreamerError) Unwrap() error {
	return e.Cause
}

// Helper to define distinct error types for type assertions if needed
type ConfigurationError struct{ StreamerError }
type TransportError struct{ StreamerError }
type FrameError struct{ StreamerError }
type HandlerFaultError struct{ StreamerError }
type StorageError struct{ StreamerError }

// -----------------------------------------------------------------------------

func NewTransportError(message string, cause error) *TransportError {
	return &TransportError{StreamerError{Message: message, Cause: cause}}
}

func NewFrameError(message string, cause error) *FrameError {
	return &FrameError{StreamerError{Message: message, Cause: cause}}
}

func NewHandlerFaultError(message string, cause error) *HandlerFaultError {
	return &HandlerFaultError{StreamerError{Message: message, Cause: cause}}
}

func NewStorageError(message string, cause error) *StorageError {
	return &StorageError{StreamerError{Message: message, Cause: cause}}
}

func NewConfigurationError(message string, cause error) *ConfigurationError {
	return &ConfigurationError{StreamerError{Message: message, Cause: cause}}
}

// -----------------------------------------------------------------------------
// Retry Logic
// -----------------------------------------------------------------------------

// RetryWithBackoff attempts to execute the operation up to maxRetries times with exponential backoff.
func RetryWithBackoff(operation string, maxRetries int, baseDelay time.Duration, fn func() error) error {
	var lastErr error

	for attempt := 0; attempt < maxRetries; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}

		lastErr = err
		if attempt == maxRetries-1 {
			break
		}

		delay := baseDelay * (1 << attempt)
		fmt.Printf("Warning: Attempt %d/%d failed for %s: %v. Retrying in %v\n", attempt+1, maxRetries, operation, err, delay)
		time.Sleep(delay)
	}

	return lastErr
}

// -----------------------------------------------------------------------------
// Error Handler
// -----------------------------------------------------------------------------

// ErrorHandler counts faults per scope so the diagnostics surface can show
// where a connection is bleeding.
type ErrorHandler struct {
	Logger *logger.Logger
	mu     sync.Mutex
	counts map[string]int
}

func NewErrorHandler(log *logger.Logger) *ErrorHandler {
	if log == nil {
		log = logger.NewLogger(nil, "ErrorHandler")
	}
	return &ErrorHandler{
		Logger: log,
		counts: make(map[string]int),
	}
}

// -----------------------------------------------------------------------------

// Handle logs the error and bumps the counter for its scope.
func (e *ErrorHandler) Handle(scope string, err error) {
	if err == nil {
		return
	}
	e.mu.Lock()
	e.counts[scope]++
	e.mu.Unlock()
	e.Logger.Error("Error in %s: %v", scope, err)
}

// -----------------------------------------------------------------------------

// Counts returns a copy of the per-scope error counters.
func (e *ErrorHandler) Counts() map[string]int {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make(map[string]int, len(e.counts))
	for k, v := range e.counts {
		out[k] = v
	}
	return out
}

// -----------------------------------------------------------------------------

// Reset clears all counters.
func (e *ErrorHandler) Reset() {
	e.mu.Lock()
	e.counts = make(map[string]int)
	e.mu.Unlock()
}
