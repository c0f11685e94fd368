// Package serrors defines semantic error kinds shared by the fetcher, the
// dashboard and the CLI so callers can branch on what went wrong with
// errors.Is instead of matching strings.
package serrors

import (
	"errors"
	"fmt"
)

// Kind is a sentinel category created with NewKind.
type Kind interface {
	error
	isKind()
}

type kind struct{ s string }

func (k kind) Error() string { return k.s }
func (k kind) isKind()       {}

// NewKind creates a new semantic error kind.
func NewKind(name string) Kind { return kind{s: name} }

var (
	// ErrNotFound means the portal answered but returned nothing usable.
	ErrNotFound = NewKind("NOT_FOUND")
	// ErrBadRequest means the portal rejected the query (4xx other than 429).
	ErrBadRequest = NewKind("BAD_REQUEST")
	// ErrUnavailable means the portal could not be reached or answered 5xx.
	ErrUnavailable = NewKind("UNAVAILABLE")
	// ErrRateLimited means the portal answered 429.
	ErrRateLimited = NewKind("RATE_LIMITED")
	// ErrInvalidConfig means configuration failed validation.
	ErrInvalidConfig = NewKind("INVALID_CONFIG")
)

// Error carries a kind, an optional cause and an optional message.
// errors.Is matches both the kind and anything in the cause chain.
type Error struct {
	kind Kind
	err  error
	msg  string
}

// With builds an error of kind k with a formatted message.
func With(k Kind, msgFmt string, args ...any) *Error {
	return &Error{kind: k, msg: fmt.Sprintf(msgFmt, args...)}
}

// Wrap builds an error of kind k wrapping err.
func Wrap(k Kind, err error, msgFmt string, args ...any) *Error {
	return &Error{kind: k, err: err, msg: fmt.Sprintf(msgFmt, args...)}
}

func (e *Error) Error() string {
	switch {
	case e == nil:
		return "<nil>"
	case e.msg != "" && e.err != nil:
		return e.msg + ": " + e.err.Error()
	case e.msg != "":
		return e.msg
	case e.err != nil:
		return e.err.Error()
	case e.kind != nil:
		return e.kind.Error()
	default:
		return "unknown error"
	}
}

func (e *Error) Unwrap() error { return e.err }

// Is matches either the kind sentinel or the wrapped cause.
func (e *Error) Is(target error) bool {
	if e == nil || target == nil {
		return e == nil && target == nil
	}
	if e.kind != nil && errors.Is(e.kind, target) {
		return true
	}

	return e.err != nil && errors.Is(e.err, target)
}

// Kind returns the kind attached to e.
func (e *Error) Kind() Kind { return e.kind }

// KindOf returns the kind of the first *Error in err's chain, or nil.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind()
	}

	return nil
}
