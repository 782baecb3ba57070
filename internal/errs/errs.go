// Package errs defines the error taxonomy shared by services and adapters.
// Callers wrap one of the sentinel kinds with fmt.Errorf("...: %w", ...) and
// classify with KindOf or errors.Is.
package errs

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidState = errors.New("invalid state")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("conflict")
	ErrValidation   = errors.New("validation failed")
	// ErrTransient marks a failure of the backing store or a remote service.
	// The operation may be retried.
	ErrTransient = errors.New("temporarily unavailable")
)

// Kind is a coarse classification of an error.
type Kind string

const (
	KindNone         Kind = ""
	KindNotFound     Kind = "not_found"
	KindInvalidState Kind = "invalid_state"
	KindForbidden    Kind = "forbidden"
	KindConflict     Kind = "conflict"
	KindValidation   Kind = "validation"
	KindTransient    Kind = "transient"
	KindInternal     Kind = "internal"
)

var kinds = []struct {
	sentinel error
	kind     Kind
}{
	{ErrNotFound, KindNotFound},
	{ErrInvalidState, KindInvalidState},
	{ErrForbidden, KindForbidden},
	{ErrConflict, KindConflict},
	{ErrValidation, KindValidation},
	{ErrTransient, KindTransient},
}

// KindOf classifies err. Unclassified errors are KindInternal.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}
	for _, k := range kinds {
		if errors.Is(err, k.sentinel) {
			return k.kind
		}
	}
	return KindInternal
}

// Sentinel returns the sentinel error for a kind, or nil.
func Sentinel(kind Kind) error {
	for _, k := range kinds {
		if k.kind == kind {
			return k.sentinel
		}
	}
	return nil
}

// New builds an error of the given kind with a human readable message.
// The message is what users see; the kind is what callers branch on.
func New(kind Kind, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	sentinel := Sentinel(kind)
	if sentinel == nil {
		return errors.New(msg)
	}
	return &kindError{msg: msg, kind: sentinel}
}

// Transient wraps a store or network failure.
func Transient(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, errors.Join(ErrTransient, err))
}

type kindError struct {
	msg  string
	kind error
}

func (e *kindError) Error() string { return e.msg }

func (e *kindError) Unwrap() error { return e.kind }
