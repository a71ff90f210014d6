// Package errors defines the error kinds surfaced by rulebook operations.
// Every failure that reaches the CLI boundary carries one of these kinds so
// callers can branch on the category without parsing messages.
package errors

import (
	"errors"
	"fmt"
)

// Kind categorizes an error.
type Kind string

const (
	KindUnknown  Kind = "UNKNOWN"
	KindNotFound Kind = "NOT_FOUND"
	KindConflict Kind = "CONFLICT"
	KindInvalid  Kind = "INVALID"
	KindIO       Kind = "IO_FAILURE"
)

// Sentinels for use with errors.Is. Matching compares kinds only.
var (
	ErrNotFound = &Error{Kind: KindNotFound}
	ErrConflict = &Error{Kind: KindConflict}
	ErrInvalid  = &Error{Kind: KindInvalid}
	ErrIO       = &Error{Kind: KindIO}
)

// Error is a categorized error with an optional wrapped cause.
type Error struct {
	Kind    Kind
	Message string
	Wrapped error
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.Message == "" && e.Wrapped != nil:
		return e.Wrapped.Error()
	case e.Message == "":
		return string(e.Kind)
	case e.Wrapped != nil:
		return fmt.Sprintf("%s: %v", e.Message, e.Wrapped)
	default:
		return e.Message
	}
}

// Unwrap implements the errors.Unwrap interface.
func (e *Error) Unwrap() error {
	return e.Wrapped
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Kind == t.Kind
	}
	return false
}

// New creates an error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf creates an error of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps err with a kind and message. Returns nil if err is nil.
func Wrap(err error, kind Kind, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Message: message, Wrapped: err}
}

// Wrapf wraps err with a kind and formatted message. Returns nil if err is nil.
func Wrapf(err error, kind Kind, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Wrapped: err}
}

// KindOf returns the kind of the first *Error in err's chain, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsKind reports whether err's chain contains an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	return errors.Is(err, &Error{Kind: kind})
}
