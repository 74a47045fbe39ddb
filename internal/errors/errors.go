package errors

import (
	"errors"
	"fmt"
)

// Kind classifies every failure the gateway can produce. Callers switch on
// the kind rather than on error strings.
type Kind string

const (
	// Local validation failures - these never reach the network
	KindInvalidLocator     Kind = "invalid_locator"
	KindInvalidTokenFormat Kind = "invalid_token_format"

	// Session resolution failure. Unknown, expired and deleted sessions are
	// deliberately indistinguishable.
	KindSessionNotFound Kind = "session_not_found"

	// Remote API failures
	KindAuthFailed     Kind = "auth_failed"
	KindNotFound       Kind = "not_found"
	KindRemoteAPIError Kind = "remote_api_error"

	// Soft failure - file content could not be decoded as text
	KindBinaryUnsupported Kind = "binary_unsupported"

	// Clone process failures
	KindCloneFailed  Kind = "clone_failed"
	KindCloneTimeout Kind = "clone_timeout"
)

// Error is the structured error value returned across the gateway boundary.
// Message must never contain an access token.
type Error struct {
	Kind    Kind
	Message string
	Status  int // remote HTTP status, when one was received
	Err     error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("[%s] %s (status %d)", e.Kind, e.Message, e.Status)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an Error with the given kind and formatted message.
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an Error with the given kind that wraps an underlying cause.
func Wrap(err error, kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// Remote creates a RemoteAPIError carrying the HTTP status and response body.
func Remote(status int, body string) *Error {
	return &Error{
		Kind:    KindRemoteAPIError,
		Message: fmt.Sprintf("remote API error: %s", body),
		Status:  status,
	}
}

// KindOf returns the Kind of err, or the empty Kind if err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
