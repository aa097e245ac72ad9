// Package signals reads raw identifiers and descriptors from the platform
// capabilities. Every accessor yields a Signal and never panics: expected
// conditions (missing grant, missing service) are absent signals, anything
// else is a failed signal the caller may log and discard.
package signals

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/deviceid/internal/logging"
	"github.com/dmitrijs2005/deviceid/internal/platform"
)

var ErrProvider = errors.New("signal provider failed")

// Signal is an optional string that may instead carry a provider failure.
type Signal struct {
	value string
	err   error
}

// Present returns a present signal, or an absent one for "".
func Present(v string) Signal { return Signal{value: v} }

func Absent() Signal { return Signal{} }

func Failed(err error) Signal {
	return Signal{err: fmt.Errorf("%w: %w", ErrProvider, err)}
}

func (s Signal) Value() (string, bool) { return s.value, s.err == nil && s.value != "" }
func (s Signal) Err() error            { return s.err }
func (s Signal) IsPresent() bool {
	_, ok := s.Value()
	return ok
}

// OrAbsent discards a failure and returns the value or "".
func (s Signal) OrAbsent() string {
	if s.err != nil {
		return ""
	}
	return s.value
}

// guard runs fn and converts a panic into an error.
func guard[T any](fn func() (T, error)) (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero T
			v, err = zero, fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}

func expected(err error) bool {
	return errors.Is(err, platform.ErrPermissionDenied) || errors.Is(err, platform.ErrServiceUnavailable)
}

// capture turns a raw capability call into a Signal and logs failures.
func capture(ctx context.Context, log logging.Logger, name string, fn func() (string, error)) Signal {
	v, err := guard(fn)
	switch {
	case err == nil:
		return Present(v)
	case expected(err):
		log.Debug(ctx, "signal unavailable", "signal", name, "reason", err)
		return Absent()
	default:
		log.Warn(ctx, "signal provider failed", "signal", name, "error", err)
		return Failed(err)
	}
}
