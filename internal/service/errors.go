package service

import (
	"errors"
	"strings"
)

// Kind classifies service failures so transports can map them to status codes.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindConflict
	KindAuthentication
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindAuthentication:
		return "authentication"
	default:
		return "internal"
	}
}

// Error is the failure type returned by every service operation.
// Message is safe to show to clients; Err is the underlying cause, if any.
type Error struct {
	Kind       Kind
	Message    string
	Violations []string
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Err.Error() != e.Message {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Sentinel causes. Operations return them wrapped in a fresh *Error, so match
// with errors.Is and classify with KindOf.
var (
	// ErrInvalidCredentials is returned for an unknown username and for a wrong
	// password alike.
	ErrInvalidCredentials = errors.New("username or password wrong")
	// ErrUsernameTaken is returned when registering an existing username.
	ErrUsernameTaken = errors.New("username already registered")
	// ErrMissingToken is returned when a protected operation has no token.
	ErrMissingToken = errors.New("unauthorized: token missing")
	// ErrInvalidToken is returned when the token does not belong to any user.
	ErrInvalidToken = errors.New("unauthorized: invalid token")
	// ErrTokenExpired is returned when the token's deadline has passed.
	ErrTokenExpired = errors.New("unauthorized: token expired")
)

func unauthorized(cause error) *Error {
	return &Error{Kind: KindAuthentication, Message: cause.Error(), Err: cause}
}

func conflict(cause error) *Error {
	return &Error{Kind: KindConflict, Message: cause.Error(), Err: cause}
}

func validationError(violations []string) *Error {
	return &Error{
		Kind:       KindValidation,
		Message:    strings.Join(violations, "; "),
		Violations: violations,
	}
}

func internalError(err error) *Error {
	return &Error{Kind: KindInternal, Message: "internal server error", Err: err}
}

// KindOf returns the Kind of err, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindInternal
}

// PublicMessage returns the client-facing message for err.
func PublicMessage(err error) string {
	var se *Error
	if errors.As(err, &se) {
		return se.Message
	}
	return "internal server error"
}
