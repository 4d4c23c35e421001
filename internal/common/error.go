// Package common defines sentinel errors and the error type shared by the
// account service layers. Callers should use errors.Is to match these values.
package common

import (
	"errors"
	"strings"
)

// Error kinds. Each one maps to a single externally visible failure class.
var (
	ErrorValidation   = errors.New("validation error")
	ErrorConflict     = errors.New("conflict")
	ErrorNotFound     = errors.New("not found")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorForbidden    = errors.New("forbidden")
	ErrorInternal     = errors.New("internal error")
)

// Token errors. All of them surface as ErrorUnauthorized.
var (
	ErrTokenMissing = errors.New("token missing")
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// Forbidden reasons returned by login.
var (
	ErrEmailNotVerified    = errors.New("email not verified")
	ErrAccountNotActivated = errors.New("account not activated")
)

// Error carries a user-facing message next to its kind and cause.
// Both Kind and Err are reachable through errors.Is.
type Error struct {
	Kind    error
	Message string
	Details []string
	Err     error
}

// NewError builds an Error of the given kind. err may be nil.
func NewError(kind error, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Validation builds an ErrorValidation with optional per-field details.
func Validation(message string, details ...string) *Error {
	return &Error{Kind: ErrorValidation, Message: message, Details: details}
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// AsError returns the first *Error in err's chain.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// Conflict builds an ErrorConflict for a uniqueness violation on field.
func Conflict(field string, err error) *Error {
	return &Error{Kind: ErrorConflict, Message: field + " already exists", Details: []string{field}, Err: err}
}

// ConflictField returns the field named by a Conflict error in err's chain.
func ConflictField(err error) (string, bool) {
	e, ok := AsError(err)
	if !ok || !errors.Is(e.Kind, ErrorConflict) || len(e.Details) == 0 {
		return "", false
	}
	return e.Details[0], true
}
