// Package apperr holds the error taxonomy shared by the auth core.
//
// Every error that crosses a component boundary is an *Error carrying the
// operation name, one of the Err* kinds below and the underlying cause.
// errors.Is matches both the kind and the cause.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrConflict           = errors.New("conflict")
	ErrNotFound           = errors.New("not found")
	ErrConfiguration      = errors.New("configuration error")
	ErrStorageUnavailable = errors.New("storage unavailable")
)

var kinds = []error{
	ErrInvalidArgument,
	ErrUnauthorized,
	ErrForbidden,
	ErrConflict,
	ErrNotFound,
	ErrConfiguration,
	ErrStorageUnavailable,
}

type Error struct {
	Op   string
	Kind error
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// New wraps cause (which may be nil) with op and kind.
func New(op string, kind error, cause error) error {
	return &Error{Op: op, Kind: kind, Err: cause}
}

// KindOf returns the taxonomy kind of err, or nil when err carries none.
func KindOf(err error) error {
	if err == nil {
		return nil
	}
	for _, k := range kinds {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}

// IsFault reports whether err is a system fault rather than an expected,
// caller-facing condition. Errors without a kind count as faults.
func IsFault(err error) bool {
	if err == nil {
		return false
	}
	switch KindOf(err) {
	case ErrStorageUnavailable, ErrConfiguration, nil:
		return true
	default:
		return false
	}
}

// KindName is the short label used in logs and metrics.
func KindName(err error) string {
	switch KindOf(err) {
	case ErrInvalidArgument:
		return "invalid_argument"
	case ErrUnauthorized:
		return "unauthorized"
	case ErrForbidden:
		return "forbidden"
	case ErrConflict:
		return "conflict"
	case ErrNotFound:
		return "not_found"
	case ErrConfiguration:
		return "configuration"
	case ErrStorageUnavailable:
		return "storage_unavailable"
	default:
		return "internal"
	}
}
