// Package fault defines the closed error taxonomy shared by ledgerkit packages.
//
// Every public operation either succeeds or returns an error that carries one
// of the Kind values below. Callers should branch on Kind (IsKind, KindOf)
// rather than matching error strings; Error() text is for humans and may
// evolve.
package fault

import (
	"errors"
	"fmt"
)

// Kind is a stable category for programmatic error handling.
type Kind string

const (
	InvalidHashString        Kind = "InvalidHashString"
	AmbiguousHash            Kind = "AmbiguousHash"
	HashKindMismatch         Kind = "HashKindMismatch"
	ActionTypeMismatch       Kind = "ActionTypeMismatch"
	NotACreationAction       Kind = "NotACreationAction"
	ResolutionUnsupported    Kind = "ResolutionUnsupported"
	DeserializationMismatch  Kind = "DeserializationMismatch"
	NotAppEntry              Kind = "NotAppEntry"
	NoMatchingRegisteredType Kind = "NoMatchingRegisteredType"
	WrongActionKindInChain   Kind = "WrongActionKindInChain"
	RecordNotFound           Kind = "RecordNotFound"
	ChainTooLong             Kind = "ChainTooLong"
	CycleDetected            Kind = "CycleDetected"
)

// Error is the structured error type returned across the library.
//
// Expected and Actual are set for the mismatch kinds (HashKindMismatch,
// ActionTypeMismatch, WrongActionKindInChain, NoMatchingRegisteredType).
type Error struct {
	Kind     Kind
	Expected string
	Actual   string
	Message  string
	Cause    error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := string(e.Kind)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// New returns an error of the given kind with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap returns an error of the given kind that wraps cause.
func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Mismatch returns an error of the given kind recording what was expected
// and what was observed.
func Mismatch(kind Kind, expected, actual fmt.Stringer, format string, args ...any) *Error {
	e := New(kind, format, args...)
	if expected != nil {
		e.Expected = expected.String()
	}
	if actual != nil {
		e.Actual = actual.String()
	}
	return e
}

// IsKind reports whether err is (or wraps) an *Error with the given Kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// KindOf returns the Kind of the outermost *Error in err's chain, or "" if
// err carries none.
func KindOf(err error) Kind {
	var e *Error
	if !errors.As(err, &e) {
		return ""
	}
	return e.Kind
}
