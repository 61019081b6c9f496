// Package common defines shared constants and sentinel errors used across
// client and server layers of ChitChat. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors.
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorForbidden    = errors.New("forbidden")
	ErrorValidation   = errors.New("validation error")
	ErrorRateLimited  = errors.New("rate limited")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired = errors.New("token expired")
)

// Error carries a message that is safe to show to the client together with
// the sentinel kind it belongs to.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func (e *Error) Unwrap() error { return e.Kind }

// NewError returns an *Error of the given kind.
func NewError(kind error, msg string) error {
	return &Error{Kind: kind, Msg: msg}
}

// PublicMessage extracts the client-facing text of err. The second result is
// false when err is not a user-facing error and must be reported generically.
func PublicMessage(err error) (string, bool) {
	var e *Error
	if errors.As(err, &e) && !errors.Is(e.Kind, ErrorInternal) {
		return e.Msg, true
	}
	return "", false
}
