// internal/app/system/apperr/apperr.go
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for mapping to an HTTP status.
type Kind int

const (
	// KindInternal is anything unanticipated. It is never shown to callers.
	KindInternal Kind = iota
	KindValidation
	KindBadRequest
	KindUnauthenticated
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
	KindConflictRequiresSupport
	KindTooManyRequests
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindBadRequest:
		return "bad_request"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindConflictRequiresSupport:
		return "conflict_requires_support"
	case KindTooManyRequests:
		return "too_many_requests"
	default:
		return "internal"
	}
}

// Error is a classified application error. Msg is safe to return to the caller.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// New returns an Error of the given kind.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Wrap returns an Error of the given kind carrying cause.
func Wrap(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: cause}
}

func Validation(msg string) *Error      { return New(KindValidation, msg) }
func BadRequest(msg string) *Error      { return New(KindBadRequest, msg) }
func Unauthenticated(msg string) *Error { return New(KindUnauthenticated, msg) }
func Unauthorized(msg string) *Error    { return New(KindUnauthorized, msg) }
func Forbidden(msg string) *Error       { return New(KindForbidden, msg) }
func NotFound(msg string) *Error        { return New(KindNotFound, msg) }
func Conflict(msg string) *Error        { return New(KindConflict, msg) }
func TooManyRequests(msg string) *Error { return New(KindTooManyRequests, msg) }

// ConflictRequiresSupport signals an identity that exists with a different password.
func ConflictRequiresSupport(msg string) *Error {
	return New(KindConflictRequiresSupport, msg)
}

// KindOf returns the Kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Message returns the caller-safe message for err. Internal errors get a
// generic message.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != KindInternal {
		return e.Msg
	}
	return "Internal server error"
}

// Status maps a Kind to an HTTP status code.
func Status(kind Kind) int {
	switch kind {
	case KindValidation:
		return http.StatusUnprocessableEntity
	case KindBadRequest, KindConflictRequiresSupport:
		return http.StatusBadRequest
	case KindUnauthenticated, KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindTooManyRequests:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
