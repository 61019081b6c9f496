package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/chitchat/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   websocket URL of the server (default from Config)
//	-t int      request timeout in seconds (default from Config)
//	-d string   directory for the saved session (default from Config)
//
// Only the flags handled here are parsed; see flagx.FilterArgs.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-t", "-d"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerURL, "a", cfg.ServerURL, "websocket URL of the chat server")
	fs.StringVar(&cfg.DataDir, "d", cfg.DataDir, "directory for the saved session")
	timeout := fs.Int("t", int(cfg.RequestTimeout.Seconds()), "request timeout (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.RequestTimeout = time.Duration(*timeout) * time.Second
}
