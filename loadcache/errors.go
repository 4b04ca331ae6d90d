package loadcache

import (
	"errors"
	"fmt"
)

// ErrCancelled is returned when the caller's ctx fires before a value was
// produced. The deferred cell is left untouched — a later caller with a
// fresh ctx may still observe the loader's eventual result.
var ErrCancelled = errors.New("loadcache: operation cancelled")

// ErrInvalidArgument is returned when key is a nil pointer, interface, map,
// slice, channel, or function value.
var ErrInvalidArgument = errors.New("loadcache: key must not be nil")

// KeyNotFoundError wraps a loader fault. Cause is the loader's error, or —
// if that error is an errors.Join of exactly one inner error — the inner
// error itself, unwrapped for clarity.
type KeyNotFoundError struct {
	Key   any
	Cause error
}

func (e *KeyNotFoundError) Error() string {
	return fmt.Sprintf("loadcache: key %v not found: %v", e.Key, e.Cause)
}

func (e *KeyNotFoundError) Unwrap() error { return e.Cause }

// unwrapSingleCause implements the "aggregate containing a single inner"
// unwrapping rule: if err groups exactly one error (the errors.Join shape),
// that inner error becomes the reported cause.
func unwrapSingleCause(err error) error {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		if inner := joined.Unwrap(); len(inner) == 1 {
			return inner[0]
		}
	}
	return err
}
