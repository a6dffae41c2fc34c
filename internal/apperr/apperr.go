// Package apperr defines the error kinds shared by the model client, the task
// adapters and the board.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure so callers can map it to a user-visible message.
type Kind string

const (
	KindRequestFailed     Kind = "request_failed"
	KindMalformedResponse Kind = "malformed_response"
	KindEmptyInput        Kind = "empty_input"
	KindUnknownUnit       Kind = "unknown_unit"
)

// Sentinels for errors.Is.
var (
	ErrRequestFailed     = &Error{Kind: KindRequestFailed}
	ErrMalformedResponse = &Error{Kind: KindMalformedResponse}
	ErrEmptyInput        = &Error{Kind: KindEmptyInput}
	ErrUnknownUnit       = &Error{Kind: KindUnknownUnit}
)

// Error carries the failing operation and its cause.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := string(e.Kind)
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches any *Error of the same kind, so errors.Is(err, ErrRequestFailed)
// works for wrapped values.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return t.Kind == e.Kind
}

func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func RequestFailed(op string, err error) *Error {
	return New(KindRequestFailed, op, err)
}

func Malformed(op string, format string, args ...any) *Error {
	return New(KindMalformedResponse, op, fmt.Errorf(format, args...))
}

func EmptyInput(op string) *Error {
	return New(KindEmptyInput, op, nil)
}

func UnknownUnit(id string) *Error {
	return New(KindUnknownUnit, "board", fmt.Errorf("unit %q not found", id))
}

// KindOf returns the kind of the first *Error in err's chain. Errors that did
// not originate here are reported as request failures.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindRequestFailed
}
