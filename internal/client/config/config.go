package config

import "time"

// Config holds runtime settings for the ChitChat CLI.
//
// Fields:
//   - ServerURL: websocket endpoint of the chat server.
//   - RequestTimeout: how long the client waits for an acknowledgement.
//   - DataDir: directory holding the saved session database.
type Config struct {
	ServerURL      string
	RequestTimeout time.Duration
	DataDir        string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "ws://127.0.0.1:8080/ws"
	c.RequestTimeout = 10 * time.Second
	c.DataDir = ".chitchat"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
