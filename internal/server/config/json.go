package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/chitchat/internal/flagx"
	"github.com/dmitrijs2005/chitchat/internal/timex"
)

// JsonConfig is the on-disk shape of the server config file. Durations are
// timex.Duration so both "15m" and integer nanoseconds are accepted.
// Absent or zero-valued fields leave the current value untouched.
type JsonConfig struct {
	EndpointAddrHTTP string `json:"endpoint_addr_http"`
	EndpointAddrGRPC string `json:"endpoint_addr_grpc"`
	DatabaseDSN      string `json:"database_dsn"`
	RedisAddr        string `json:"redis_addr"`
	LogLevel         string `json:"log_level"`

	SecretKey                   string         `json:"secret_key"`
	AccessTokenValidityDuration timex.Duration `json:"access_token_validity_duration"`

	OTPValidityDuration  timex.Duration `json:"otp_validity_duration"`
	OTPResendLimit       int            `json:"otp_resend_limit"`
	OTPResendWindow      timex.Duration `json:"otp_resend_window"`
	MinPasswordLength    int            `json:"min_password_length"`
	RestrictionThreshold int            `json:"restriction_threshold"`

	S3RootUser     string `json:"s3_root_user"`
	S3RootPassword string `json:"s3_root_password"`
	S3Bucket       string `json:"s3_bucket"`
	S3Region       string `json:"s3_region"`
	S3BaseEndpoint string `json:"s3_base_endpoint"`
	S3PublicURL    string `json:"s3_public_url"`

	SMTPHost     string `json:"smtp_host"`
	SMTPPort     int    `json:"smtp_port"`
	SMTPUser     string `json:"smtp_user"`
	SMTPPassword string `json:"smtp_password"`
	SMTPFrom     string `json:"smtp_from"`

	EventsPerSecond int `json:"events_per_second"`
	MaxFrameBytes   int `json:"max_frame_bytes"`
}

// parseJson loads the file named by -c/-config, if any, and overlays it
// onto config. It panics when the file cannot be read or parsed.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	c.apply(config)
}

func (c *JsonConfig) apply(config *Config) {
	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.RedisAddr, c.RedisAddr)
	setString(&config.LogLevel, c.LogLevel)

	setString(&config.SecretKey, c.SecretKey)
	if c.AccessTokenValidityDuration.Duration > 0 {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}

	if c.OTPValidityDuration.Duration > 0 {
		config.OTPValidityDuration = c.OTPValidityDuration.Duration
	}
	setInt(&config.OTPResendLimit, c.OTPResendLimit)
	if c.OTPResendWindow.Duration > 0 {
		config.OTPResendWindow = c.OTPResendWindow.Duration
	}
	setInt(&config.MinPasswordLength, c.MinPasswordLength)
	setInt(&config.RestrictionThreshold, c.RestrictionThreshold)

	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.S3PublicURL, c.S3PublicURL)

	setString(&config.SMTPHost, c.SMTPHost)
	setInt(&config.SMTPPort, c.SMTPPort)
	setString(&config.SMTPUser, c.SMTPUser)
	setString(&config.SMTPPassword, c.SMTPPassword)
	setString(&config.SMTPFrom, c.SMTPFrom)

	setInt(&config.EventsPerSecond, c.EventsPerSecond)
	setInt(&config.MaxFrameBytes, c.MaxFrameBytes)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}
