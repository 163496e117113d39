package types

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unified error code across the bot.
type ErrorCode string

// Configuration and startup error codes
const (
	ErrConfigInvalid      ErrorCode = "CONFIG_INVALID"
	ErrCredentialsMissing ErrorCode = "CREDENTIALS_MISSING"
)

// Store error codes
const (
	ErrStoreCorrupt ErrorCode = "STORE_CORRUPT"
	ErrStoreIO      ErrorCode = "STORE_IO"
)

// Scheduling and execution error codes
const (
	ErrQuotaExhausted ErrorCode = "QUOTA_EXHAUSTED"
	ErrTargetRejected ErrorCode = "TARGET_REJECTED"
	ErrSessionExpired ErrorCode = "SESSION_EXPIRED"
	ErrPlatformDenied ErrorCode = "PLATFORM_DENIED"
	ErrRunAborted     ErrorCode = "RUN_ABORTED"
)

// Error represents a structured error with code, message, and metadata.
type Error struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Retryable bool      `json:"retryable"`
	TargetID  string    `json:"target_id,omitempty"`
	Cause     error     `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new Error with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithCause adds a cause to the error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithTarget attaches the target the error relates to.
func (e *Error) WithTarget(targetID string) *Error {
	e.TargetID = targetID
	return e
}

// WithRetryable marks the error as retryable on a future run.
func (e *Error) WithRetryable(retryable bool) *Error {
	e.Retryable = retryable
	return e
}

// IsFatal reports whether the error must abort the run rather than skip the
// current target. Store corruption and I/O failures are always fatal: acting
// on an incomplete history could blow through a real-world limit.
func IsFatal(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	switch e.Code {
	case ErrStoreCorrupt, ErrStoreIO, ErrRunAborted:
		return true
	}
	return false
}
