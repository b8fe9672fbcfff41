package errors

import (
	"errors"
	"fmt"
	"time"
)

// Error types for the analysis pipeline
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeDispatch   ErrorType = "dispatch"
	ErrorTypeTimeout    ErrorType = "timeout"
	ErrorTypeCapacity   ErrorType = "capacity"
	ErrorTypeUpstream   ErrorType = "upstream"
	ErrorTypeNotFound   ErrorType = "not_found"
	ErrorTypeConflict   ErrorType = "conflict"
	ErrorTypeInternal   ErrorType = "internal"
)

// AppError represents a structured application error
type AppError struct {
	Type      ErrorType              `json:"type"`
	Code      string                 `json:"code"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Cause     error                  `json:"-"`
	Retryable bool                   `json:"retryable"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func (e *AppError) WithDetails(details map[string]interface{}) *AppError {
	e.Details = details
	return e
}

func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// Error constructors
func NewValidationError(code, message string) *AppError {
	return &AppError{
		Type:      ErrorTypeValidation,
		Code:      code,
		Message:   message,
		Retryable: false,
	}
}

// NewDispatchError reports an analysis type with no registered strategy.
func NewDispatchError(analysisType string) *AppError {
	return &AppError{
		Type:      ErrorTypeDispatch,
		Code:      "UNSUPPORTED_ANALYSIS_TYPE",
		Message:   fmt.Sprintf("no strategy registered for analysis type %q", analysisType),
		Retryable: false,
		Details:   map[string]interface{}{"analysis_type": analysisType},
	}
}

func NewTimeoutError(timeout time.Duration) *AppError {
	return &AppError{
		Type:      ErrorTypeTimeout,
		Code:      "ANALYSIS_TIMEOUT",
		Message:   fmt.Sprintf("analysis timed out after %s", timeout),
		Retryable: true,
		Details:   map[string]interface{}{"timeout_ms": timeout.Milliseconds()},
	}
}

func NewCapacityError(limit, queued int) *AppError {
	return &AppError{
		Type:      ErrorTypeCapacity,
		Code:      "CAPACITY_EXCEEDED",
		Message:   fmt.Sprintf("analysis capacity exhausted: %d running, %d waiting", limit, queued),
		Retryable: true,
		Details:   map[string]interface{}{"max_concurrent": limit, "queued": queued},
	}
}

// NewUpstreamError wraps a failure from a generator or the inference boundary.
func NewUpstreamError(component, message string) *AppError {
	return &AppError{
		Type:      ErrorTypeUpstream,
		Code:      "UPSTREAM_GENERATOR_ERROR",
		Message:   fmt.Sprintf("%s: %s", component, message),
		Retryable: true,
		Details:   map[string]interface{}{"component": component},
	}
}

func NewNotFoundError(resource string) *AppError {
	return &AppError{
		Type:      ErrorTypeNotFound,
		Code:      "RESOURCE_NOT_FOUND",
		Message:   fmt.Sprintf("%s not found", resource),
		Retryable: false,
	}
}

func NewConflictError(message string) *AppError {
	return &AppError{
		Type:      ErrorTypeConflict,
		Code:      "CONFLICT",
		Message:   message,
		Retryable: false,
	}
}

func NewInternalError(message string) *AppError {
	return &AppError{
		Type:      ErrorTypeInternal,
		Code:      "INTERNAL_ERROR",
		Message:   message,
		Retryable: false,
	}
}

// Predefined common errors
var (
	ErrMissingType  = NewValidationError("MISSING_TYPE", "analysis type is required")
	ErrMissingScope = NewValidationError("MISSING_SCOPE", "analysis scope is required")
	ErrNilRequest   = NewValidationError("NIL_REQUEST", "analysis request is required")
)

// Wrap wraps an error with a message using fmt.Errorf with %w
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// IsType checks if an error is of a specific type
func IsType(err error, errorType ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == errorType
	}
	return false
}

// IsRetryable checks if an error is retryable
func IsRetryable(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Retryable
	}
	return false
}

// TypeOf returns the error type of err, or internal when err is not an AppError.
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ErrorTypeInternal
}
