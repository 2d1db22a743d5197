package domain

import (
	"errors"
	"fmt"
)

// ErrorKind discriminates the single error taxonomy used across services.
type ErrorKind string

const (
	KindNotFound        ErrorKind = "not_found"
	KindValidation      ErrorKind = "validation"
	KindUnauthenticated ErrorKind = "unauthenticated"
	KindForbidden       ErrorKind = "forbidden"
	KindExternal        ErrorKind = "external"
)

// Error is the tagged error returned by service operations. Field is set for
// validation failures that concern a single input field.
type Error struct {
	Kind    ErrorKind
	Message string
	Field   string
}

func (e *Error) Error() string { return e.Message }

// NotFoundf builds a not_found error. Unowned records report not_found rather
// than forbidden so callers cannot probe for other users' ids.
func NotFoundf(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// Validationf builds a validation error.
func Validationf(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// FieldError builds a validation error attached to a named field.
func FieldError(field, format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Field: field, Message: fmt.Sprintf(format, args...)}
}

// Externalf builds an external-service error with a caller-safe message.
func Externalf(format string, args ...any) *Error {
	return &Error{Kind: KindExternal, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of err if it is (or wraps) a tagged Error.
func KindOf(err error) (ErrorKind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}
