// Package apperr is the error taxonomy shared by every service. Transport code
// maps a Kind to a status code; callers branch on Kind, never on message text.
package apperr

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindValidation Kind = "VALIDATION"
	KindConflict   Kind = "CONFLICT"
	KindNotFound   Kind = "NOT_FOUND"
	KindState      Kind = "STATE"
	KindCapacity   Kind = "CAPACITY"
	KindRetryable  Kind = "RETRYABLE"
)

// Error is a typed application error. Conflicts carries the colliding
// entities for conflict errors when there are any.
type Error struct {
	Kind      Kind
	Message   string
	Conflicts any
	Err       error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newf(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: cause}
}

func Validation(format string, args ...any) *Error {
	return newf(KindValidation, nil, format, args...)
}

func NotFound(cause error, format string, args ...any) *Error {
	return newf(KindNotFound, cause, format, args...)
}

func State(cause error, format string, args ...any) *Error {
	return newf(KindState, cause, format, args...)
}

func Capacity(cause error, format string, args ...any) *Error {
	return newf(KindCapacity, cause, format, args...)
}

func Retryable(cause error, format string, args ...any) *Error {
	return newf(KindRetryable, cause, format, args...)
}

func Conflict(cause error, format string, args ...any) *Error {
	return newf(KindConflict, cause, format, args...)
}

// ConflictWith builds a conflict error listing the colliding entities.
func ConflictWith(cause error, conflicts any, format string, args ...any) *Error {
	e := newf(KindConflict, cause, format, args...)
	e.Conflicts = conflicts
	return e
}

// KindOf returns the kind of the first *Error in err's chain, or "" when err
// carries none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// ConflictsOf returns the conflict list attached to err, if any.
func ConflictsOf(err error) any {
	var e *Error
	if errors.As(err, &e) {
		return e.Conflicts
	}
	return nil
}
