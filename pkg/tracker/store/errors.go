package store

import (
	"errors"
	"fmt"
)

// Failure classes. Every error returned by this package matches exactly one
// of them with errors.Is.
var (
	ErrQuery  = errors.New("database error")
	ErrCursor = errors.New("cursor error")
	ErrStep   = errors.New("transaction step error")
	ErrCommit = errors.New("transaction commit error")
)

// ErrUnitClosed is the cause recorded when a unit of work is used after it
// was committed or rolled back.
var ErrUnitClosed = errors.New("unit of work already closed")

// Error is a classified store failure. Op names the accessor or step that
// failed.
type Error struct {
	Class error
	Op    string
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Class, e.Op, e.Err)
}

// Unwrap exposes both the class and the underlying cause.
func (e *Error) Unwrap() []error {
	return []error{e.Class, e.Err}
}

func newError(class error, op string, err error) *Error {
	return &Error{Class: class, Op: op, Err: err}
}

// Class returns the failure class of err, or nil when err did not come from
// this package.
func Class(err error) error {
	var se *Error
	if errors.As(err, &se) {
		return se.Class
	}
	return nil
}

// Message builds the log message for a failure that happened during
// activity, e.g. "database error while checking tier".
func Message(err error, activity string) string {
	class := Class(err)
	if class == nil {
		return "unexpected error while " + activity
	}
	return class.Error() + " while " + activity
}
