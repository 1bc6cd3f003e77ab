// internal/engine/errors.go
package engine

import (
	"errors"
	"fmt"
)

// Common engine errors
var (
	ErrBrowserNotFound = errors.New("chrome browser not found")
	ErrTimeout         = errors.New("request timeout")
	ErrInvalidURL      = errors.New("invalid URL")
	ErrAborted         = errors.New("scan aborted")
	ErrBusy            = errors.New("a scan is already in progress")
)

// ErrorCode represents a specific error condition
type ErrorCode string

const (
	ErrCodeTimeout       ErrorCode = "TIMEOUT"
	ErrCodeValidation    ErrorCode = "VALIDATION"
	ErrCodeBrowserCrash  ErrorCode = "BROWSER_CRASH"
	ErrCodeNetworkError  ErrorCode = "NETWORK_ERROR"
	ErrCodeSessionError  ErrorCode = "SESSION_ERROR"
	ErrCodeInvalidPage   ErrorCode = "INVALID_PAGE"
	ErrCodeNoName        ErrorCode = "NO_NAME"
	ErrCodeNoScreens     ErrorCode = "NO_SCREENS"
	ErrCodeHarvest       ErrorCode = "HARVEST"
	ErrCodeAborted       ErrorCode = "ABORTED"
	ErrCodeBusy          ErrorCode = "BUSY"
	ErrCodeQuota         ErrorCode = "QUOTA"
	ErrCodeStorage       ErrorCode = "STORAGE"
	ErrCodeCommunication ErrorCode = "COMMUNICATION"
	ErrCodeInternal      ErrorCode = "INTERNAL"
)

// User-facing messages for the terminal outcomes
const (
	MsgNoName        = "could not detect app name"
	MsgNoScreens     = "no screens found: not a valid target page"
	MsgQuota         = "storage quota exceeded: clear some collections first"
	MsgCommunication = "agent not reachable: reload the page or restart the agent and retry"
)

// EngineError wraps errors with additional context
type EngineError struct {
	Code       ErrorCode
	Message    string
	Underlying error
	Retry      bool
	Details    map[string]interface{}
}

// Error implements the error interface
func (e *EngineError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Underlying)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *EngineError) Unwrap() error {
	return e.Underlying
}

// Is checks if the error matches the target
func (e *EngineError) Is(target error) bool {
	if t, ok := target.(*EngineError); ok {
		return e.Code == t.Code
	}
	return errors.Is(e.Underlying, target)
}

// NewEngineError creates a new EngineError
func NewEngineError(code ErrorCode, message string, err error) *EngineError {
	return &EngineError{
		Code:       code,
		Message:    message,
		Underlying: err,
		Retry:      false,
		Details:    make(map[string]interface{}),
	}
}

// WithRetry marks the error as retryable
func (e *EngineError) WithRetry() *EngineError {
	e.Retry = true
	return e
}

// WithDetail adds a detail to the error
func (e *EngineError) WithDetail(key string, value interface{}) *EngineError {
	e.Details[key] = value
	return e
}

// CodeOf returns the code of the first EngineError in err's chain, or "" if none
func CodeOf(err error) ErrorCode {
	var ee *EngineError
	if errors.As(err, &ee) {
		return ee.Code
	}
	return ""
}

// HasCode reports whether err carries the given code
func HasCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}

// MessageOf returns the user-facing message of err
func MessageOf(err error) string {
	var ee *EngineError
	if errors.As(err, &ee) {
		return ee.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
