package client

import "errors"

var (
	ErrUnavailable  = errors.New("server unavailable")
	ErrUnauthorized = errors.New("unauthorized")
	ErrClosed       = errors.New("connection closed")
)

// ServerError is an error acknowledgement returned by the server. Its text
// is meant for the user.
type ServerError struct {
	Message string
}

func (e *ServerError) Error() string {
	return e.Message
}
