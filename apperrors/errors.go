package apperrors

import (
	"errors"
	"fmt"
)

// Kind classifies failures so that every component boundary hands the caller a typed result
// instead of a raw transport error.
type Kind string

const (
	KindValidation             Kind = "validation"
	KindPersistence            Kind = "persistence"
	KindRecommendation         Kind = "recommendation"
	KindAuthenticationRequired Kind = "authentication_required"
	KindForbidden              Kind = "forbidden"
	KindNotFound               Kind = "not_found"
	KindStale                  Kind = "stale"
	KindInternal               Kind = "internal"
)

// FieldErrors maps a field name to its ordered list of human readable violations.
type FieldErrors map[string][]string

// Add appends a message for field.
func (f FieldErrors) Add(field, message string) {
	f[field] = append(f[field], message)
}

// Error is the typed failure returned across component boundaries.
type Error struct {
	Kind    Kind
	Message string
	Fields  FieldErrors
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func Validation(message string, fields FieldErrors) *Error {
	return &Error{Kind: KindValidation, Message: message, Fields: fields}
}

func Persistence(message string, err error) *Error {
	return New(KindPersistence, message, err)
}

func Recommendation(message string, err error) *Error {
	return New(KindRecommendation, message, err)
}

func NotFound(message string) *Error {
	return New(KindNotFound, message, nil)
}

func Forbidden(message string) *Error {
	return New(KindForbidden, message, nil)
}

func Stale(message string) *Error {
	return New(KindStale, message, nil)
}

// ErrAuthenticationRequired is returned by any mutating operation invoked without an identity.
var ErrAuthenticationRequired = &Error{
	Kind:    KindAuthenticationRequired,
	Message: "You must be logged in to perform this action.",
}

// KindOf reports the Kind of err, or KindInternal when err is not an *Error.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
