// internal/app/system/apperr/apperr.go
//
// Package apperr is the error taxonomy shared by the workflow services and
// the HTTP layer. Every classified error carries one of the exported markers,
// so callers branch with errors.Is and handlers map markers to status codes.
package apperr

import (
	"errors"
	"strings"
)

var (
	ErrValidation     = errors.New("validation error")
	ErrAuthorization  = errors.New("authorization error")
	ErrNotFound       = errors.New("not found")
	ErrConflict       = errors.New("conflict")
	ErrCredential     = errors.New("credential error")
	ErrAuthentication = errors.New("authentication error")
	ErrExternal       = errors.New("external service error")
)

// Error is a classified failure. Kind is one of the markers above, Op names
// the operation that failed and Message is safe to show to the caller.
type Error struct {
	Kind    error
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	parts := make([]string, 0, 4)
	if e.Op != "" {
		parts = append(parts, e.Op)
	}
	if e.Kind != nil {
		parts = append(parts, e.Kind.Error())
	}
	if e.Message != "" {
		parts = append(parts, e.Message)
	}
	if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}
	return strings.Join(parts, ": ")
}

// Unwrap exposes both the marker and the cause to errors.Is / errors.As.
func (e *Error) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// Wrap tags err with marker. A nil marker is treated as an external failure.
func Wrap(marker error, op, message string, err error) error {
	if marker == nil {
		marker = ErrExternal
	}
	return &Error{Kind: marker, Op: op, Message: message, Err: err}
}

func Validation(op, message string) error { return Wrap(ErrValidation, op, message, nil) }
func Authorization(op, message string) error { return Wrap(ErrAuthorization, op, message, nil) }
func NotFound(op, message string) error { return Wrap(ErrNotFound, op, message, nil) }
func Conflict(op, message string) error { return Wrap(ErrConflict, op, message, nil) }
func Credential(op, message string) error { return Wrap(ErrCredential, op, message, nil) }
func Authentication(op, message string, err error) error {
	return Wrap(ErrAuthentication, op, message, err)
}
func External(op, message string, err error) error {
	return Wrap(ErrExternal, op, message, err)
}

// Kind names the class of err ("validation", "authorization", ...), or
// "internal" for unclassified errors.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrAuthorization):
		return "authorization"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrCredential):
		return "credential"
	case errors.Is(err, ErrAuthentication):
		return "authentication"
	case errors.Is(err, ErrExternal):
		return "external"
	}
	return "internal"
}

// Retry classes tell the caller what to do next.
const (
	RetryFixInput = "input"  // change the request; retrying as-is fails again
	RetryLater    = "later"  // transient provider failure
	RetryReauth   = "reauth" // the creator must reconnect their channel
)

// Retry returns the retry class for err. Unclassified errors retry later.
func Retry(err error) string {
	switch {
	case errors.Is(err, ErrValidation), errors.Is(err, ErrAuthorization),
		errors.Is(err, ErrNotFound), errors.Is(err, ErrConflict):
		return RetryFixInput
	case errors.Is(err, ErrCredential), errors.Is(err, ErrAuthentication):
		return RetryReauth
	}
	return RetryLater
}

// Message returns the caller-safe message for err, or "" when err is not classified.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Message != "" {
			return e.Message
		}
		if e.Kind != nil {
			return e.Kind.Error()
		}
	}
	return ""
}
