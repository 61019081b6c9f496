// Package config handles configuration for the chat server: defaults,
// JSON overlay, environment (.env + CHITCHAT_* variables) and command-line
// flags, applied in that order.
package config

import "time"

// Config holds runtime settings for the ChitChat server.
//
// An empty DatabaseDSN selects the in-memory store, an empty RedisAddr
// disables the profile cache, an empty S3BaseEndpoint keeps uploaded media
// references as given and an empty SMTPHost logs outgoing mail instead of
// sending it.
type Config struct {
	EndpointAddrHTTP string
	EndpointAddrGRPC string
	DatabaseDSN      string
	RedisAddr        string
	LogLevel         string

	SecretKey                   string
	AccessTokenValidityDuration time.Duration

	OTPValidityDuration  time.Duration
	OTPResendLimit       int
	OTPResendWindow      time.Duration
	MinPasswordLength    int
	RestrictionThreshold int

	S3RootUser     string
	S3RootPassword string
	S3Bucket       string
	S3Region       string
	S3BaseEndpoint string
	S3PublicURL    string

	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	SMTPFrom     string

	EventsPerSecond int
	MaxFrameBytes   int
}

// LoadDefaults populates Config with development defaults.
// NOTE: the secret key is insecure and must be overridden in production.
func (c *Config) LoadDefaults() {
	c.EndpointAddrHTTP = ":8080"
	c.EndpointAddrGRPC = ":50051"
	c.DatabaseDSN = ""
	c.RedisAddr = ""
	c.LogLevel = "info"

	c.SecretKey = "secretKey"
	c.AccessTokenValidityDuration = 7 * 24 * time.Hour

	c.OTPValidityDuration = 10 * time.Minute
	c.OTPResendLimit = 3
	c.OTPResendWindow = 15 * time.Minute
	c.MinPasswordLength = 8
	c.RestrictionThreshold = 5

	c.S3RootUser = "admin"
	c.S3RootPassword = "secretpassword"
	c.S3Bucket = "chitchat"
	c.S3Region = "us-east-1"
	c.S3BaseEndpoint = ""
	c.S3PublicURL = ""

	c.SMTPHost = ""
	c.SMTPPort = 587
	c.SMTPFrom = "ChitChat <no-reply@chitchat.local>"

	c.EventsPerSecond = 20
	c.MaxFrameBytes = 8 << 20
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file, the environment and finally command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}
