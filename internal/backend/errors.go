// internal/backend/errors.go
package backend

import (
	"errors"
	"fmt"
)

// Sentinels for errors.Is checks against a submission failure
var (
	ErrNetwork           = errors.New("could not reach the scraping server")
	ErrServer            = errors.New("the scraping server rejected the job")
	ErrMalformedResponse = errors.New("the scraping server returned an unreadable response")
)

// ErrorKind classifies why a submission failed
type ErrorKind string

const (
	KindNetwork   ErrorKind = "NETWORK_ERROR"
	KindServer    ErrorKind = "SERVER_ERROR"
	KindMalformed ErrorKind = "MALFORMED_RESPONSE"
)

// Error is a classified backend failure.
// StatusCode and Body are set for server and malformed-response errors.
type Error struct {
	Kind       ErrorKind
	Message    string
	StatusCode int
	Body       string
	Underlying error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Underlying)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Underlying
}

// Is matches other *Error values by kind and the package sentinels by kind
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Kind == t.Kind
	}
	switch target {
	case ErrNetwork:
		return e.Kind == KindNetwork
	case ErrServer:
		return e.Kind == KindServer
	case ErrMalformedResponse:
		return e.Kind == KindMalformed
	}
	return false
}

// GetStatusCode returns the HTTP status the backend answered with, or 0
func (e *Error) GetStatusCode() int {
	return e.StatusCode
}

// UserMessage returns the operator-facing description of the failure
func (e *Error) UserMessage() string {
	switch e.Kind {
	case KindServer:
		if e.StatusCode > 0 {
			return fmt.Sprintf("%s (HTTP %d)", ErrServer.Error(), e.StatusCode)
		}
		return ErrServer.Error()
	case KindMalformed:
		return ErrMalformedResponse.Error()
	default:
		return ErrNetwork.Error()
	}
}

// NewNetworkError wraps a transport failure
func NewNetworkError(message string, err error) *Error {
	return &Error{Kind: KindNetwork, Message: message, Underlying: err}
}

// NewServerError records a non-success response
func NewServerError(statusCode int, status, body string) *Error {
	return &Error{
		Kind:       KindServer,
		Message:    fmt.Sprintf("HTTP %s", status),
		StatusCode: statusCode,
		Body:       body,
	}
}

// NewMalformedError records a success response whose body is not JSON
func NewMalformedError(statusCode int, body string, err error) *Error {
	return &Error{
		Kind:       KindMalformed,
		Message:    "response body is not valid JSON",
		StatusCode: statusCode,
		Body:       body,
		Underlying: err,
	}
}

// Classify returns err as an *Error, treating anything unclassified as a network failure
func Classify(err error) *Error {
	if err == nil {
		return nil
	}
	var be *Error
	if errors.As(err, &be) {
		return be
	}
	return NewNetworkError("request failed", err)
}
