// Package apperr carries the error taxonomy of the API. Handlers map kinds
// to HTTP statuses; internal detail stays in the wrapped cause and is only
// logged, never serialized.
package apperr

import (
	"errors"
	"net/http"
)

// Kind is a machine-readable error category.
type Kind string

const (
	KindUnauthenticated    Kind = "unauthenticated"
	KindTokenExpired       Kind = "token_expired"
	KindInvalidCredentials Kind = "invalid_credentials"
	KindSetupIncomplete    Kind = "setup_incomplete"
	KindOrgContextRequired Kind = "org_context_required"
	KindInsufficientRole   Kind = "insufficient_role"
	KindDuplicateEmail     Kind = "duplicate_email"
	KindInvalidSetupToken  Kind = "invalid_setup_token"
	KindSoleOwnerViolation Kind = "sole_owner_violation"
	KindNotFound           Kind = "not_found"
	KindValidation         Kind = "validation"
	KindTxnAborted         Kind = "transaction_aborted"
	KindInternal           Kind = "internal"
)

// Error is the domain error type.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	return e.Message
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error by kind.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Kind == t.Kind
	}
	return false
}

// New creates a domain error with a kind and a caller-safe message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates a domain error that wraps an underlying cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// KindOf extracts the kind of err, or KindInternal when err carries none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// HTTPStatus maps a kind to its response status.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindUnauthenticated, KindTokenExpired, KindInvalidCredentials:
		return http.StatusUnauthorized
	case KindSetupIncomplete, KindOrgContextRequired, KindInsufficientRole:
		return http.StatusForbidden
	case KindDuplicateEmail, KindInvalidSetupToken, KindSoleOwnerViolation, KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// HTTPStatus maps err to its response status.
func HTTPStatus(err error) int {
	return KindOf(err).HTTPStatus()
}
