// Package client contains the client side of the ChitChat event protocol.
//
// # Overview
//
// Client is the transport contract the CLI depends on; WSClient implements
// it over a gorilla websocket. Dial opens either an authenticated
// connection (with a token) or an anonymous one that only serves the
// bootstrap events (register, login, password reset).
//
// Requests carry an increasing id and are matched to their acknowledgement,
// so several may be in flight at once. Server pushes (newMessage,
// getOnlineUsers, forceLogout...) are delivered on Pushes.
//
// # Error Handling
//
// Dial reports ErrUnauthorized when the server refuses the credential and
// ErrUnavailable when it cannot be reached. Error acknowledgements come back
// as *ServerError whose text is safe to show to the user.
package client
