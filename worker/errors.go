package worker

import (
	"errors"
	"fmt"
)

var (
	// ErrExecutableNotFound means the resolved interpreter does not exist.
	ErrExecutableNotFound = errors.New("worker executable not found")

	// ErrInvalidResponse means the last stdout line was missing or not a
	// structured response object.
	ErrInvalidResponse = errors.New("invalid worker response")

	// ErrCommandFailed covers a reported status:error as well as an
	// unexplained non-zero exit.
	ErrCommandFailed = errors.New("worker command failed")
)

// Error is returned by every Client call that fails. Kind is one of the
// sentinel errors above and can be matched with errors.Is.
type Error struct {
	Kind    error
	Message string
	// Diagnostics holds the raw stdout and stderr for InvalidResponse.
	Diagnostics string
	Cause       error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	switch e.Kind {
	case ErrExecutableNotFound:
		return fmt.Sprintf("Python executable not found: %s", e.Message)
	case ErrInvalidResponse:
		return fmt.Sprintf("Invalid backend response: %s", e.Diagnostics)
	default:
		return e.Message
	}
}

func (e *Error) Unwrap() []error {
	if e == nil {
		return nil
	}
	if e.Cause != nil {
		return []error{e.Kind, e.Cause}
	}
	return []error{e.Kind}
}

func commandFailed(msg string) *Error {
	return &Error{Kind: ErrCommandFailed, Message: msg}
}
