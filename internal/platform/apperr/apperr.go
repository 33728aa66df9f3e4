package apperr

import (
	"errors"
	"fmt"
)

// Kind is the machine-readable error category the boundary layer maps to a
// status code. Services return these instead of formatting user-facing text.
type Kind string

const (
	KindNotFound          Kind = "not_found"
	KindNotAuthorized     Kind = "not_authorized"
	KindNotEnrolled       Kind = "not_enrolled"
	KindAlreadyEnrolled   Kind = "already_enrolled"
	KindNotPublished      Kind = "not_published"
	KindQuizInactive      Kind = "quiz_inactive"
	KindNotStarted        Kind = "not_started"
	KindEnded             Kind = "ended"
	KindAttemptsExceeded  Kind = "attempts_exceeded"
	KindInvalidTransition Kind = "invalid_transition"
	KindValidation        Kind = "validation_error"
	KindConflict          Kind = "conflict"
	KindUnavailable       Kind = "unavailable"
)

type Error struct {
	Kind   Kind
	Detail string
	cause  error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Detail, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func (e *Error) Unwrap() error { return e.cause }

func E(kind Kind, detail string) *Error {
	return &Error{Kind: kind, Detail: detail}
}

// Wrap tags an upstream failure (persistence, transport) with a kind while
// preserving the cause for logs.
func Wrap(kind Kind, detail string, cause error) *Error {
	return &Error{Kind: kind, Detail: detail, cause: cause}
}

// KindOf extracts the kind from err, or "" when err carries none.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return ""
}

func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
