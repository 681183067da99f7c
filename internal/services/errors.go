package services

import (
	"errors"
	"fmt"
)

// Error kinds. Handlers switch on these with errors.Is.
var (
	ErrValidation            = errors.New("validation error")
	ErrConflict              = errors.New("user already exists")
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrInvalidOrExpiredToken = errors.New("invalid or expired token")
	ErrNotFound              = errors.New("not found")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrEmailNotVerified      = errors.New("email not verified")
	ErrNotifier              = errors.New("notifier failure")
	ErrStore                 = errors.New("store failure")
	ErrInternal              = errors.New("internal error")
)

// Error is what every AuthService operation returns on failure.
// Msg is safe to show to the client; Err keeps the underlying cause for logs.
type Error struct {
	Op   string
	Kind error
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Msg, e.Err)
	case e.Msg != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Msg)
	default:
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func newError(op string, kind error, msg string, cause error) *Error {
	return &Error{Op: op, Kind: kind, Msg: msg, Err: cause}
}

// Message returns the client-facing message carried by err.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Msg != "" {
		return e.Msg
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
