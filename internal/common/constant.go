// Package common contains shared constants and sentinel errors used across
// ChitChat components.
package common

const (
	// AccessTokenQueryName is the handshake query parameter carrying the
	// access token of a connection.
	AccessTokenQueryName = "token"

	// HandshakeEventQueryName names the bootstrap event a connection is
	// opened for (login, register, ...).
	HandshakeEventQueryName = "event"

	// AuthorizationHeaderName is accepted as an alternative token carrier
	// in the form "Bearer <token>".
	AuthorizationHeaderName = "Authorization"
)
