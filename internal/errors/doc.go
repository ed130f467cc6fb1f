// Package apperrors defines the structured error types of the wide-integer
// engine, allowing callers to distinguish allocation failures, invalid
// arguments, configuration mistakes and failed batch operations, while
// carrying the underlying cause.
//
// Error Wrapping Guidelines:
// This package follows Go's error wrapping conventions using fmt.Errorf with %w.
// All error types that carry a cause implement Unwrap() to support errors.Is()
// and errors.As().
package apperrors
