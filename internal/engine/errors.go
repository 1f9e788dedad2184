// internal/engine/errors.go
package engine

import (
	"errors"
	"fmt"
)

// Common capture errors
var (
	ErrBrowserNotFound  = errors.New("chrome browser not found")
	ErrBrowserCrash     = errors.New("browser crashed")
	ErrTimeout          = errors.New("request timeout")
	ErrInvalidURL       = errors.New("invalid URL")
	ErrNetworkError     = errors.New("network error")
	ErrParseError       = errors.New("failed to parse response")
	ErrRobotsDisallowed = errors.New("disallowed by robots.txt")
)

// ErrorCode represents a specific error condition
type ErrorCode string

const (
	// Pipeline errors, surfaced verbatim to the requester.
	ErrCodeContextMismatch ErrorCode = "CONTEXT_MISMATCH"
	ErrCodeExhausted       ErrorCode = "EXTRACTION_EXHAUSTED"
	ErrCodeFieldMissing    ErrorCode = "FIELD_MISSING"
	ErrCodeSchemaViolation ErrorCode = "SCHEMA_VIOLATION"

	// Capture errors.
	ErrCodeNotFound         ErrorCode = "NOT_FOUND"
	ErrCodeTimeout          ErrorCode = "TIMEOUT"
	ErrCodeBrowserCrash     ErrorCode = "BROWSER_CRASH"
	ErrCodeNetworkError     ErrorCode = "NETWORK_ERROR"
	ErrCodeParseError       ErrorCode = "PARSE_ERROR"
	ErrCodeRobotsDisallowed ErrorCode = "ROBOTS_DISALLOWED"
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

// Is matches another EngineError by code, otherwise defers to the underlying error
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

// CodeOf returns the code of the first EngineError in err's chain, or "".
func CodeOf(err error) ErrorCode {
	var ee *EngineError
	if errors.As(err, &ee) {
		return ee.Code
	}
	return ""
}

// UserMessage returns the text shown to the person who asked for the extraction.
// Pipeline errors carry their message verbatim; everything else uses Error().
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var ee *EngineError
	if errors.As(err, &ee) {
		switch ee.Code {
		case ErrCodeContextMismatch, ErrCodeExhausted, ErrCodeFieldMissing, ErrCodeSchemaViolation:
			return ee.Message
		}
	}
	return err.Error()
}
