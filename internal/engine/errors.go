// internal/engine/errors.go
package engine

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinels joined into EngineError so callers can test with errors.Is
var (
	ErrInvalidRequest  = errors.New("invalid job request")
	ErrInvalidURL      = errors.New("invalid URL")
	ErrInvalidSelector = errors.New("invalid CSS selector")
	ErrUpstream        = errors.New("target page could not be fetched")
	ErrParseError      = errors.New("failed to parse page")
)

// ErrorCode represents a specific error condition
type ErrorCode string

const (
	ErrCodeValidation   ErrorCode = "VALIDATION"
	ErrCodeTimeout      ErrorCode = "TIMEOUT"
	ErrCodeNetworkError ErrorCode = "NETWORK_ERROR"
	ErrCodeUpstream     ErrorCode = "UPSTREAM_STATUS"
	ErrCodeParseError   ErrorCode = "PARSE_ERROR"
)

// EngineError is an extraction failure. Retry marks failures of the target site that may
// succeed later; Details is reported to the client alongside the code.
type EngineError struct {
	Code       ErrorCode
	Message    string
	Underlying error
	Retry      bool
	Details    map[string]any
}

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

// Is matches another EngineError by code, or any error in the underlying chain
func (e *EngineError) Is(target error) bool {
	if t, ok := target.(*EngineError); ok {
		return e.Code == t.Code
	}
	return errors.Is(e.Underlying, target)
}

// HTTPStatus maps the error code to the status the development backend answers with
func (e *EngineError) HTTPStatus() int {
	switch e.Code {
	case ErrCodeValidation:
		return http.StatusBadRequest
	case ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case ErrCodeNetworkError, ErrCodeUpstream:
		return http.StatusBadGateway
	case ErrCodeParseError:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// NewEngineError creates a new EngineError
func NewEngineError(code ErrorCode, message string, err error) *EngineError {
	return &EngineError{
		Code:       code,
		Message:    message,
		Underlying: err,
		Details:    make(map[string]any),
	}
}

// WithRetry marks the error as retryable
func (e *EngineError) WithRetry() *EngineError {
	e.Retry = true
	return e
}

// WithDetail records a value the client can use to diagnose the failure
func (e *EngineError) WithDetail(key string, value any) *EngineError {
	e.Details[key] = value
	return e
}

// StatusOf returns the HTTP status for err, treating unknown errors as internal failures
func StatusOf(err error) int {
	var ee *EngineError
	if errors.As(err, &ee) {
		return ee.HTTPStatus()
	}
	return http.StatusInternalServerError
}
