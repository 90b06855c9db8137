// Package apperr defines the failure taxonomy shared by every workflow.
// A failure carries a Kind (which drives the status class reported to callers),
// a stable machine-readable Code and a safe human-readable Message.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindAuthentication
	KindAuthorization
	KindConflict
	KindNotFound
	KindUnsupportedFormat
	KindStorage
	KindPersistence
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuthentication:
		return "authentication"
	case KindAuthorization:
		return "authorization"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	case KindUnsupportedFormat:
		return "unsupported_format"
	case KindStorage:
		return "storage"
	case KindPersistence:
		return "persistence"
	default:
		return "internal"
	}
}

// Class is the suggested status class for a failure.
type Class string

const (
	ClassBadInput     Class = "bad-input"
	ClassUnauthorized Class = "unauthorized"
	ClassNotFound     Class = "not-found"
	ClassConflict     Class = "conflict"
	ClassInternal     Class = "internal"
)

// Class maps a kind to its status class. Authorization failures are reported
// as not-found so callers cannot probe for documents they have no access to.
func (k Kind) Class() Class {
	switch k {
	case KindValidation, KindUnsupportedFormat:
		return ClassBadInput
	case KindAuthentication:
		return ClassUnauthorized
	case KindAuthorization, KindNotFound:
		return ClassNotFound
	case KindConflict:
		return ClassConflict
	default:
		return ClassInternal
	}
}

// Error is a typed failure. Two errors match with errors.Is when their codes match.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

// New returns a failure without a cause.
func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// Wrap returns a copy of e carrying err as its cause.
func (e *Error) Wrap(err error) *Error {
	c := *e
	c.Err = err
	return &c
}

// WithMessage returns a copy of e with a more specific message.
func (e *Error) WithMessage(format string, args ...any) *Error {
	c := *e
	c.Message = fmt.Sprintf(format, args...)
	return &c
}

// Storage wraps an underlying file storage error.
func Storage(err error) *Error {
	return &Error{Kind: KindStorage, Code: "STORAGE_FAILURE", Message: "file storage failure", Err: err}
}

// Persistence wraps an underlying repository error.
func Persistence(err error) *Error {
	return &Error{Kind: KindPersistence, Code: "PERSISTENCE_FAILURE", Message: "persistence failure", Err: err}
}

// KindOf reports the kind of err. Untyped errors are internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// As returns the typed failure inside err, if any.
func As(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}
