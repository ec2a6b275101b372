// Package errors provides the structured error system used across syncstore,
// with error codes, categories, and builder-style context.
package errors

import (
	"fmt"
	"strings"
	"time"
)

// ErrorCode represents a structured error code for syncstore operations.
type ErrorCode string

// Error code constants organized by category.
const (
	// Remote data source errors
	ErrCodeRemoteUnreachable ErrorCode = "REMOTE_UNREACHABLE"
	ErrCodeRemoteFailed      ErrorCode = "REMOTE_FAILED"
	ErrCodeRemoteTimeout     ErrorCode = "REMOTE_TIMEOUT"
	ErrCodeNotFound          ErrorCode = "NOT_FOUND"

	// Local data source errors
	ErrCodeLocalRead  ErrorCode = "LOCAL_READ"
	ErrCodeLocalWrite ErrorCode = "LOCAL_WRITE"

	// Validation errors
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeMissingID        ErrorCode = "MISSING_ID"

	// Capacity errors
	ErrCodeCacheFull ErrorCode = "CACHE_FULL"
	ErrCodeQueueFull ErrorCode = "QUEUE_FULL"

	// State errors
	ErrCodeAlreadyStarted ErrorCode = "ALREADY_STARTED"
	ErrCodeInvalidState   ErrorCode = "INVALID_STATE"

	// Operation errors
	ErrCodeOperationCanceled ErrorCode = "OPERATION_CANCELED"
	ErrCodeOperationFailed   ErrorCode = "OPERATION_FAILED"
	ErrCodeInvalidConfig     ErrorCode = "INVALID_CONFIG"
)

// ErrorCategory represents the general category of an error.
type ErrorCategory string

const (
	CategoryRemote     ErrorCategory = "remote"
	CategoryLocal      ErrorCategory = "local"
	CategoryValidation ErrorCategory = "validation"
	CategoryCapacity   ErrorCategory = "capacity"
	CategoryState      ErrorCategory = "state"
	CategoryOperation  ErrorCategory = "operation"
)

// SyncError represents a structured error with context and metadata.
type SyncError struct {
	Code      ErrorCode     `json:"code"`
	Category  ErrorCategory `json:"category"`
	Message   string        `json:"message"`
	Cause     error         `json:"-"` // Not serialized to avoid circular refs
	Timestamp time.Time     `json:"timestamp"`

	// Operational metadata
	Component string `json:"component,omitempty"`
	Operation string `json:"operation,omitempty"`
	EntityID  string `json:"entity_id,omitempty"`

	// Error handling hints
	Retryable bool `json:"retryable"`
}

// Error implements the error interface.
func (e *SyncError) Error() string {
	if e.Component != "" {
		if e.Operation != "" {
			return fmt.Sprintf("[%s:%s] %s: %s", e.Component, e.Operation, e.Code, e.Message)
		}
		return fmt.Sprintf("[%s] %s: %s", e.Component, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error for error wrapping compatibility.
func (e *SyncError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target error (for errors.Is compatibility).
func (e *SyncError) Is(target error) bool {
	if syncErr, ok := target.(*SyncError); ok {
		return e.Code == syncErr.Code
	}
	return false
}

// New creates a new syncstore error with default values.
func New(code ErrorCode, message string) *SyncError {
	return &SyncError{
		Code:      code,
		Category:  GetCategory(code),
		Message:   message,
		Timestamp: time.Now(),
		Retryable: IsRetryableByDefault(code),
	}
}

// Newf creates a new syncstore error with a formatted message.
func Newf(code ErrorCode, format string, args ...interface{}) *SyncError {
	return New(code, fmt.Sprintf(format, args...))
}

// GetCategory determines the category based on the error code.
func GetCategory(code ErrorCode) ErrorCategory {
	codeStr := string(code)
	switch {
	case strings.HasPrefix(codeStr, "REMOTE_") || codeStr == "NOT_FOUND":
		return CategoryRemote
	case strings.HasPrefix(codeStr, "LOCAL_"):
		return CategoryLocal
	case strings.HasPrefix(codeStr, "VALIDATION_") || codeStr == "MISSING_ID":
		return CategoryValidation
	case strings.HasSuffix(codeStr, "_FULL"):
		return CategoryCapacity
	case codeStr == "ALREADY_STARTED" || codeStr == "INVALID_STATE":
		return CategoryState
	default:
		return CategoryOperation
	}
}

// IsRetryableByDefault determines if an error is retryable by default.
func IsRetryableByDefault(code ErrorCode) bool {
	retryableCodes := map[ErrorCode]bool{
		ErrCodeRemoteUnreachable: true,
		ErrCodeRemoteTimeout:     true,
		ErrCodeRemoteFailed:      true,
	}
	return retryableCodes[code]
}

// WithComponent sets the component for an error.
func (e *SyncError) WithComponent(component string) *SyncError {
	e.Component = component
	return e
}

// WithOperation sets the operation for an error.
func (e *SyncError) WithOperation(operation string) *SyncError {
	e.Operation = operation
	return e
}

// WithEntityID records the entity the failed operation was acting on, so a
// caller deciding between retry and surfacing a message knows what was hit.
func (e *SyncError) WithEntityID(id string) *SyncError {
	e.EntityID = id
	return e
}

// WithCause sets the underlying cause.
func (e *SyncError) WithCause(cause error) *SyncError {
	e.Cause = cause
	return e
}

// WithRetryable overrides the default retryable hint.
func (e *SyncError) WithRetryable(retryable bool) *SyncError {
	e.Retryable = retryable
	return e
}

// HasCode reports whether err is a SyncError carrying the given code.
func HasCode(err error, code ErrorCode) bool {
	if syncErr, ok := err.(*SyncError); ok {
		return syncErr.Code == code
	}
	return false
}

// IsUnreachable reports whether err indicates the remote source could not be
// reached at all, as opposed to reaching it and being rejected. The offline
// queue only buffers mutations for unreachable remotes.
func IsUnreachable(err error) bool {
	if syncErr, ok := err.(*SyncError); ok {
		return syncErr.Code == ErrCodeRemoteUnreachable || syncErr.Code == ErrCodeRemoteTimeout
	}
	return false
}

// Wrap converts an arbitrary error into a SyncError, preserving an existing
// SyncError unchanged.
func Wrap(err error, code ErrorCode) *SyncError {
	if err == nil {
		return nil
	}
	if syncErr, ok := err.(*SyncError); ok {
		return syncErr
	}
	return New(code, err.Error()).WithCause(err)
}
