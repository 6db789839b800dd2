package helpers

import (
	"errors"
	"net/http"

	"catalog-api/validation"
)

// Kind classifies every failure a handler can report.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindBadIdentifier
	KindUnauthorized
	KindForbidden
	KindRateLimited
)

func (k Kind) Status() int {
	switch k {
	case KindValidation, KindConflict, KindBadIdentifier:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindBadIdentifier:
		return "bad_identifier"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindRateLimited:
		return "rate_limited"
	default:
		return "internal"
	}
}

// APIError is a failure that aborts a request with a single message.
type APIError struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *APIError) Unwrap() error { return e.Err }

func NewError(kind Kind, message string) *APIError {
	return &APIError{Kind: kind, Message: message}
}

func BadRequest(message string) *APIError    { return NewError(KindValidation, message) }
func NotFound(message string) *APIError      { return NewError(KindNotFound, message) }
func Conflict(message string) *APIError      { return NewError(KindConflict, message) }
func BadIdentifier(message string) *APIError { return NewError(KindBadIdentifier, message) }
func Unauthorized(message string) *APIError  { return NewError(KindUnauthorized, message) }
func Forbidden(message string) *APIError     { return NewError(KindForbidden, message) }

// Internal wraps an unexpected fault; err is only shown outside release mode.
func Internal(message string, err error) *APIError {
	return &APIError{Kind: KindInternal, Message: message, Err: err}
}

// KindOf classifies err. Validation failures are KindValidation, unknown
// errors are KindInternal.
func KindOf(err error) Kind {
	var fs validation.Failures
	if errors.As(err, &fs) {
		return KindValidation
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindInternal
}
