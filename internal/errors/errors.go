package apperrors

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ConfigError represents an invalid engine configuration, such as a malformed
// environment variable or an out-of-range limit.
type ConfigError struct {
	// Message explains the specific configuration error.
	Message string
}

// Error returns the error message for a ConfigError.
//
// Returns:
//   - string: The error message string.
func (e ConfigError) Error() string { return e.Message }

// NewConfigError creates a new ConfigError with a formatted message.
//
// Parameters:
//   - format: A format string (see fmt.Sprintf).
//   - a: Arguments to be formatted into the string.
//
// Returns:
//   - error: A new ConfigError instance containing the formatted message.
func NewConfigError(format string, a ...any) error {
	return ConfigError{Message: fmt.Sprintf(format, a...)}
}

// OperationError records which wide-integer operation failed while preserving
// the original cause, so that a failed resize inside a derived helper can be
// traced back to the helper that triggered it.
type OperationError struct {
	// Op is the name of the failing operation (e.g. "multiply").
	Op string
	// Cause is the underlying error that triggered this operation error.
	Cause error
}

// Error returns the operation name followed by the cause message.
//
// Returns:
//   - string: The operation name and the message of the wrapped error.
func (e OperationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Cause)
}

// Unwrap returns the original wrapped error, allowing for error chain
// inspection (e.g., using errors.Is or errors.As).
//
// Returns:
//   - error: The underlying cause of the error.
func (e OperationError) Unwrap() error { return e.Cause }

// TimeoutError represents a batch job that exceeded its time budget. It
// captures the job name and the duration limit that was exceeded.
type TimeoutError struct {
	// Operation is the name of the job that timed out.
	Operation string
	// Limit is the duration after which the job was considered timed out.
	Limit time.Duration
}

// Error returns a formatted message describing the timeout.
//
// Returns:
//   - string: The formatted error message.
func (e TimeoutError) Error() string {
	return fmt.Sprintf("operation %q timed out after %s", e.Operation, e.Limit)
}

// ValidationError represents an argument validation failure, such as a
// negative width. It identifies the offending field and explains why.
type ValidationError struct {
	// Field is the name of the argument that failed validation.
	Field string
	// Message explains the validation failure.
	Message string
}

// Error returns a formatted message describing the validation failure.
//
// Returns:
//   - string: The formatted error message.
func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error for %q: %s", e.Field, e.Message)
}

// MemoryError represents an allocation rejected by the allocator's byte
// budget. It captures the requested, available, and limit values for
// diagnostic purposes.
type MemoryError struct {
	// Requested is the number of bytes the operation needed.
	Requested uint64
	// Available is the number of bytes left in the budget.
	Available uint64
	// Limit is the configured budget in bytes.
	Limit uint64
}

// Error returns a formatted message describing the memory error.
//
// Returns:
//   - string: The formatted error message.
func (e MemoryError) Error() string {
	return fmt.Sprintf("memory error: requested %d bytes, available %d bytes (limit: %d)", e.Requested, e.Available, e.Limit)
}

// WrapError wraps an error with additional context using fmt.Errorf and %w.
// This allows the wrapped error to be unwrapped with errors.Unwrap() and
// checked with errors.Is() and errors.As().
//
// Parameters:
//   - err: The error to wrap.
//   - format: A format string for the context message.
//   - args: Arguments for the format string.
//
// Returns:
//   - error: The wrapped error, or nil if err is nil.
func WrapError(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// IsContextError checks if the error is a context cancellation or deadline exceeded error.
// It looks through wrapped errors, so a cancellation reported inside an
// OperationError or a WrapError chain is still recognized.
//
// Parameters:
//   - err: The error to check.
//
// Returns:
//   - bool: True if err is or wraps context.Canceled or context.DeadlineExceeded.
func IsContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
