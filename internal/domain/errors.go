package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Every failure surfaced by the lifecycle operations matches
// exactly one of these via errors.Is.
var (
	ErrNotFound    = errors.New("not found")
	ErrInvariant   = errors.New("invariant violation")
	ErrPersistence = errors.New("persistence failure")
)

type Error struct {
	kind  error
	msg   string
	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.msg + ": " + e.cause.Error()
	}
	return e.msg
}

func (e *Error) Is(target error) bool { return target == e.kind }

func (e *Error) Unwrap() error { return e.cause }

func NotFoundf(format string, args ...any) error {
	return &Error{kind: ErrNotFound, msg: fmt.Sprintf(format, args...)}
}

func Invariantf(format string, args ...any) error {
	return &Error{kind: ErrInvariant, msg: fmt.Sprintf(format, args...)}
}

// PersistFailed wraps a storage error after the in-memory rollback has run,
// so callers can tell the user their change was not saved.
func PersistFailed(cause error) error {
	return &Error{kind: ErrPersistence, msg: "changes were not saved and have been rolled back", cause: cause}
}
