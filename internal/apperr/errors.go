package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrInvalidResponse is wrapped when a 2xx body does not match the expected shape.
	ErrInvalidResponse = errors.New("invalid response from server")
)

// NetworkError means the request did not complete.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network error: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// APIError is a non-2xx answer from the backend.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return http.StatusText(e.Status)
	}
	return e.Message
}

// ValidationError reports missing or malformed local input, checked before any remote call.
type ValidationError struct {
	Fields  []string
	Message string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s (%s)", e.Message, strings.Join(e.Fields, ", "))
}

// PreconditionError means the operation was attempted in an invalid state.
type PreconditionError struct {
	Condition string
}

func (e *PreconditionError) Error() string {
	return e.Condition
}

func NewValidation(message string, fields ...string) *ValidationError {
	return &ValidationError{Fields: fields, Message: message}
}

func NewPrecondition(condition string) *PreconditionError {
	return &PreconditionError{Condition: condition}
}

// IsUnauthorized reports whether err carries a 401 from the backend.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

func IsNetwork(err error) bool {
	var netErr *NetworkError
	return errors.As(err, &netErr)
}

func IsValidation(err error) bool {
	var vErr *ValidationError
	return errors.As(err, &vErr)
}

func IsPrecondition(err error) bool {
	var pErr *PreconditionError
	return errors.As(err, &pErr)
}
