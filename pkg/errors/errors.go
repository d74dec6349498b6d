package errors

import (
	"errors"
	"fmt"
)

// Domain error types for business logic

var (
	// ErrNotFound indicates a resource was not found
	ErrNotFound = errors.New("resource not found")

	// ErrAlreadyExists indicates a resource already exists
	ErrAlreadyExists = errors.New("resource already exists")

	// ErrInvalidInput indicates invalid input parameters
	ErrInvalidInput = errors.New("invalid input")

	// ErrInternal indicates an internal error
	ErrInternal = errors.New("internal error")

	// ErrTimeout indicates an operation timeout
	ErrTimeout = errors.New("operation timeout")

	// ErrUnavailable indicates a service is unavailable
	ErrUnavailable = errors.New("service unavailable")

	// ErrNotImplemented indicates a capability that is not implemented
	ErrNotImplemented = errors.New("not implemented")
)

// Analysis-specific errors

var (
	// ErrProvider indicates the LLM provider call itself failed
	// (network, auth, malformed request). Never retried by the loop.
	ErrProvider = errors.New("llm provider error")

	// ErrConvergence indicates the reasoning loop hit its iteration
	// ceiling without the model terminating. Logged distinctly from
	// ErrProvider: it points at a prompt or tool-definition defect.
	ErrConvergence = errors.New("max iterations reached without convergence")

	// ErrToolExecution indicates a tool adapter failed. Recovered in-loop
	// by feeding the failure back to the model as a tool result.
	ErrToolExecution = errors.New("tool execution failed")

	// ErrParse indicates the decision-line format was not found in the
	// model's final text.
	ErrParse = errors.New("decision line not parseable")

	// ErrUnknownProtocol indicates a batch protocol id that does not exist.
	// This is a programmer error and propagates to the caller.
	ErrUnknownProtocol = errors.New("unknown protocol")

	// ErrInvalidTransition indicates a batch state transition that is not
	// allowed (e.g. resume when not paused).
	ErrInvalidTransition = errors.New("invalid batch state transition")

	// ErrRateLimitExceeded indicates an external API rate limit was hit
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
)

// ValidationError represents a validation error with field-specific details
type ValidationError struct {
	Field   string
	Message string
	Value   interface{}
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: field '%s': %s (value: %v)", e.Field, e.Message, e.Value)
}

// Unwrap lets errors.Is match ErrInvalidInput
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Value:   value,
	}
}

// Helper functions

// Is checks if err is or wraps target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target type
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap wraps an error with context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Mark associates err with a sentinel so errors.Is matches both.
func Mark(sentinel, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", sentinel, err)
}

func New(message string) error {
	return errors.New(message)
}

func Newf(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}
