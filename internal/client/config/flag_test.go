package config

import (
	"flag"
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	tests := []struct {
		expected    *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{name: "url and timeout", args: []string{"cmd", "-a", "ws://chat.example:9090/ws", "-t", "3"},
			expected: &Config{ServerURL: "ws://chat.example:9090/ws", RequestTimeout: 3 * time.Second}},
		{name: "data dir", args: []string{"cmd", "-d", "/tmp/chat", "-t", "1"},
			expected: &Config{DataDir: "/tmp/chat", RequestTimeout: time.Second}},
		{name: "foreign flags ignored", args: []string{"cmd", "-x", "1", "-t", "5"},
			expected: &Config{RequestTimeout: 5 * time.Second}},
		{name: "incorrect timeout", args: []string{"cmd", "-t", "abc"}, expectPanic: true, expected: &Config{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.PanicOnError)

			os.Args = tt.args

			config := &Config{}

			if !tt.expectPanic {
				require.NotPanics(t, func() { parseFlags(config) })
				assert.Empty(t, cmp.Diff(config, tt.expected))
			} else {
				require.Panics(t, func() { parseFlags(config) })
			}
		})
	}
}
