// Package service holds the domain operations of the marketplace. Services
// talk to storage through the small interfaces in deps.go and report
// failures as *Error values whose Kind is one of the sentinels below.
package service

import (
	"errors"
	"fmt"
)

// Failure kinds. Handlers map each of them to one HTTP status.
var (
	ErrValidation     = errors.New("validation failed")
	ErrAuthentication = errors.New("authentication failed")
	ErrAuthorization  = errors.New("not allowed")
	ErrNotFound       = errors.New("not found")
	ErrConflict       = errors.New("conflict")
	ErrDependency     = errors.New("dependency failed")
)

// Error is a classified failure with a client-facing message.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func (e *Error) Unwrap() error { return e.Kind }

func newError(kind error, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func validationf(format string, args ...any) error { return newError(ErrValidation, format, args...) }

func notFoundf(format string, args ...any) error { return newError(ErrNotFound, format, args...) }

func conflictf(format string, args ...any) error { return newError(ErrConflict, format, args...) }

func forbiddenf(format string, args ...any) error { return newError(ErrAuthorization, format, args...) }

// errInvalidCredentials is deliberately the same for unknown emails and
// wrong passwords.
var errInvalidCredentials = &Error{Kind: ErrAuthentication, Msg: "invalid credentials"}
