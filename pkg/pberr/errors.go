/*
Package pberr defines ProtoBase's error taxonomy.

ProtoBase distinguishes a handful of error kinds so that callers can decide
whether to retry, abort, or surface a bug report: validation failures,
on-disk corruption, commit-time locking conflicts, user types that don't
support a required hook, and everything else. Each kind is a sentinel error;
call sites wrap it with fmt.Errorf("...: %w", ErrX) and callers recover the
kind with errors.Is.
*/
package pberr

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation covers invalid arguments, out-of-range indices, unknown
	// class names, and oversize blobs.
	ErrValidation = errors.New("protobase: validation error")

	// ErrCorruption covers torn records, unknown classes at load time, and
	// atom/class mismatches in the registry.
	ErrCorruption = errors.New("protobase: corruption error")

	// ErrLocking covers optimistic commit validation failures and root lock
	// acquisition timeouts.
	ErrLocking = errors.New("protobase: locking error")

	// ErrNotSupported covers a ConcurrentOptimized rebase that a user type
	// does not implement.
	ErrNotSupported = errors.New("protobase: not supported")

	// ErrUnexpected covers lower-level IO failures and programmer errors.
	ErrUnexpected = errors.New("protobase: unexpected error")
)

// Validationf wraps a formatted message with ErrValidation.
func Validationf(format string, args ...any) error {
	return wrapf(ErrValidation, format, args...)
}

// Corruptionf wraps a formatted message with ErrCorruption.
func Corruptionf(format string, args ...any) error {
	return wrapf(ErrCorruption, format, args...)
}

// Lockingf wraps a formatted message with ErrLocking.
func Lockingf(format string, args ...any) error {
	return wrapf(ErrLocking, format, args...)
}

// NotSupportedf wraps a formatted message with ErrNotSupported.
func NotSupportedf(format string, args ...any) error {
	return wrapf(ErrNotSupported, format, args...)
}

// Unexpectedf wraps a formatted message with ErrUnexpected.
func Unexpectedf(format string, args ...any) error {
	return wrapf(ErrUnexpected, format, args...)
}

func wrapf(kind error, format string, args ...any) error {
	return &kindError{kind: kind, msg: fmt.Sprintf(format, args...)}
}

type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }
func (e *kindError) Unwrap() error { return e.kind }
