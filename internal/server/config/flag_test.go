package config

import (
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
		{
			name: "all flags",
			args: []string{"cmd",
				"-a", "127.0.0.1:9090", "-g", ":6000", "-d", "db", "-r", "redis:6379", "-s", "secret",
				"-t", "60", "-e", "http://minio:9000", "-b", "media", "-q", "5", "-l", "debug",
			},
			expected: &Config{
				EndpointAddrHTTP:            "127.0.0.1:9090",
				EndpointAddrGRPC:            ":6000",
				DatabaseDSN:                 "db",
				RedisAddr:                   "redis:6379",
				SecretKey:                   "secret",
				AccessTokenValidityDuration: time.Hour,
				S3BaseEndpoint:              "http://minio:9000",
				S3Bucket:                    "media",
				EventsPerSecond:             5,
				LogLevel:                    "debug",
			},
		},
		{
			name:     "foreign flags ignored",
			args:     []string{"cmd", "-c", "conf.json", "-x", "1", "-s", "k"},
			expected: &Config{SecretKey: "k"},
		},
		{
			name:        "bad int panics",
			args:        []string{"cmd", "-t", "soon"},
			expectPanic: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Args = tt.args
			config := &Config{}

			if tt.expectPanic {
				require.Panics(t, func() { parseFlags(config) })
				return
			}
			require.NotPanics(t, func() { parseFlags(config) })
			assert.Empty(t, cmp.Diff(tt.expected, config))
		})
	}
}
