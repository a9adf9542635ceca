// Package fault separates failures that must abort a whole export from
// the per-element failures the exporter records and moves past.
package fault

import (
	"context"
	"errors"
	"fmt"
)

type fatalError struct {
	err error
}

func (e *fatalError) Error() string { return "fatal: " + e.err.Error() }
func (e *fatalError) Unwrap() error { return e.err }

// Fatal marks err as export-aborting. Fatal(nil) is nil.
func Fatal(err error) error {
	if err == nil {
		return nil
	}
	return &fatalError{err: err}
}

// IsFatal reports whether err, or anything it wraps, was marked with Fatal
// or is a context cancellation.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	var f *fatalError
	return errors.As(err, &f) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

// FromPanic turns a recovered panic value into an error. A panic carrying
// a fatal error stays fatal; anything else becomes an ordinary error.
func FromPanic(v any) error {
	if err, ok := v.(error); ok {
		if IsFatal(err) {
			return err
		}
		return fmt.Errorf("panic: %w", err)
	}
	return fmt.Errorf("panic: %v", v)
}
