// Package config loads runtime configuration for the ChitChat CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string   websocket URL of the chat server
//	-t int      request timeout (seconds)
//	-d string   directory for the saved session database
//
// # JSON schema
//
// The JSON loader uses timex.Duration for timeouts, so values can be either
// strings like "10s" or integer nanoseconds:
//
//	{
//	  "server_url": "ws://127.0.0.1:8080/ws",
//	  "request_timeout": "10s",
//	  "data_dir": ".chitchat"
//	}
package config
