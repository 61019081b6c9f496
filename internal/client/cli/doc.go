// Package cli provides the interactive ChitChat command-line client.
//
// It wires configuration, the websocket client and an interactive REPL.
// Account commands (register, login, reset) run on short-lived anonymous
// connections; a successful login opens the authenticated connection that
// serves every other command and streams server pushes (new messages,
// friend requests, forced logout) to the terminal. The session is saved in
// the data directory so the next run reconnects without a password.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
