package docstore

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies store errors so callers can decide how to react:
// corruption is never worth a retry, validation and not-found map to
// caller faults, I/O and lock timeouts to environment faults.
type Kind string

const (
	// KindIO is a directory or file access failure.
	KindIO Kind = "IO"
	// KindCorruption means the store file content is not well-formed.
	KindCorruption Kind = "CORRUPTION"
	// KindValidation means one or more entity rules were violated.
	KindValidation Kind = "VALIDATION"
	// KindNotFound means the operation targeted a missing id.
	KindNotFound Kind = "NOT_FOUND"
	// KindDuplicate is a unique-constraint violation (user email).
	KindDuplicate Kind = "DUPLICATE"
	// KindLockTimeout means the store lock could not be acquired in time.
	KindLockTimeout Kind = "LOCK_TIMEOUT"
)

// Error is the structured error type returned by the store.
type Error struct {
	kind       Kind
	message    string
	violations []string
	wrapped    error
}

// NewError creates an Error with the given kind and message.
func NewError(kind Kind, message string) *Error {
	return &Error{kind: kind, message: message}
}

// Wrap attaches an underlying error.
func (e *Error) Wrap(err error) *Error {
	e.wrapped = err
	return e
}

// Error implements the error interface.
func (e *Error) Error() string {
	if len(e.violations) > 0 {
		return fmt.Sprintf("%s: %s", e.message, strings.Join(e.violations, "; "))
	}
	if e.wrapped != nil {
		return fmt.Sprintf("%s: %v", e.message, e.wrapped)
	}
	return e.message
}

// Kind returns the error classification.
func (e *Error) Kind() Kind {
	return e.kind
}

// Violations returns the full list of violated validation rules, not
// just the first one.
func (e *Error) Violations() []string {
	return e.violations
}

// Unwrap returns the wrapped error if any.
func (e *Error) Unwrap() error {
	return e.wrapped
}

// Constructors for each kind.

// IOError creates an I/O failure error wrapping err.
func IOError(message string, err error) *Error {
	return NewError(KindIO, message).Wrap(err)
}

// CorruptionError reports an unparseable store file.
func CorruptionError(path string, err error) *Error {
	return NewError(KindCorruption, "store file "+path+" is corrupted").Wrap(err)
}

// ValidationFailed reports every violated rule.
func ValidationFailed(violations []string) *Error {
	e := NewError(KindValidation, "validation failed")
	e.violations = violations
	return e
}

// NotFound reports a missing entity.
func NotFound(entity, id string) *Error {
	return NewError(KindNotFound, entity+" "+id+" not found")
}

// Duplicate reports a unique-constraint violation.
func Duplicate(message string) *Error {
	return NewError(KindDuplicate, message)
}

// LockTimeout reports that the store lock was not acquired within the
// configured wait bound.
func LockTimeout(err error) *Error {
	return NewError(KindLockTimeout, "timed out waiting for store lock").Wrap(err)
}

// KindOf returns the Kind of err, or "" when err is not a store error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.kind
	}
	return ""
}
