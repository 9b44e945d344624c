package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors covering the enrollment pipeline failure taxonomy.
var (
	// ErrAuthUnavailable means the directory unit token could not be
	// obtained. Treated as misconfiguration, never retried.
	ErrAuthUnavailable = New("AUTH_UNAVAILABLE", http.StatusBadGateway, "directory auth token unavailable")

	// ErrAllocationUnavailable means both student-count queries failed and
	// no candidate code can be derived.
	ErrAllocationUnavailable = New("ALLOCATION_UNAVAILABLE", http.StatusBadGateway, "student code allocation unavailable")

	// ErrDuplicateCode means the directory reported the candidate code as
	// already in use. Recoverable: drives the resampling retry loop.
	ErrDuplicateCode = New("DUPLICATE_CODE", http.StatusConflict, "student code already in use")

	// ErrRegistrationRejected covers any non-duplicate student creation
	// failure.
	ErrRegistrationRejected = New("REGISTRATION_REJECTED", http.StatusBadGateway, "student registration rejected")

	// ErrBindingRejected means course binding failed after a successful
	// registration.
	ErrBindingRejected = New("BINDING_REJECTED", http.StatusBadGateway, "course binding rejected")

	// ErrUpstreamUnavailable covers network or timeout failures against the
	// payment provider or messaging gateway.
	ErrUpstreamUnavailable = New("UPSTREAM_UNAVAILABLE", http.StatusBadGateway, "upstream service unavailable")

	ErrValidation = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrNotFound   = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrConflict   = New("CONFLICT", http.StatusConflict, "conflict")
	ErrInternal   = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Is reports whether err carries the given predefined code.
func Is(err error, target *Error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return target != nil && e.Code == target.Code
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}
