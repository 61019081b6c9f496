package config

import (
	"errors"
	"io/fs"

	"github.com/dmitrijs2005/chitchat/internal/flagx"
	"github.com/joho/godotenv"
)

// envFile is loaded (when present) before CHITCHAT_* variables are read.
// Variables already set in the process environment win over the file.
var envFile = ".env"

// parseEnv overlays CHITCHAT_* environment variables. It panics on a
// malformed .env file or an unparsable numeric/duration value.
func parseEnv(config *Config) {
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		panic(err)
	}

	flagx.EnvString("CHITCHAT_HTTP_ADDR", &config.EndpointAddrHTTP)
	flagx.EnvString("CHITCHAT_GRPC_ADDR", &config.EndpointAddrGRPC)
	flagx.EnvString("CHITCHAT_DATABASE_DSN", &config.DatabaseDSN)
	flagx.EnvString("CHITCHAT_REDIS_ADDR", &config.RedisAddr)
	flagx.EnvString("CHITCHAT_LOG_LEVEL", &config.LogLevel)
	flagx.EnvString("CHITCHAT_SECRET_KEY", &config.SecretKey)

	flagx.EnvString("CHITCHAT_S3_ROOT_USER", &config.S3RootUser)
	flagx.EnvString("CHITCHAT_S3_ROOT_PASSWORD", &config.S3RootPassword)
	flagx.EnvString("CHITCHAT_S3_BUCKET", &config.S3Bucket)
	flagx.EnvString("CHITCHAT_S3_REGION", &config.S3Region)
	flagx.EnvString("CHITCHAT_S3_BASE_ENDPOINT", &config.S3BaseEndpoint)
	flagx.EnvString("CHITCHAT_S3_PUBLIC_URL", &config.S3PublicURL)

	flagx.EnvString("CHITCHAT_SMTP_HOST", &config.SMTPHost)
	flagx.EnvString("CHITCHAT_SMTP_USER", &config.SMTPUser)
	flagx.EnvString("CHITCHAT_SMTP_PASSWORD", &config.SMTPPassword)
	flagx.EnvString("CHITCHAT_SMTP_FROM", &config.SMTPFrom)

	must(flagx.EnvDuration("CHITCHAT_ACCESS_TOKEN_VALIDITY", &config.AccessTokenValidityDuration))
	must(flagx.EnvDuration("CHITCHAT_OTP_VALIDITY", &config.OTPValidityDuration))
	must(flagx.EnvDuration("CHITCHAT_OTP_RESEND_WINDOW", &config.OTPResendWindow))
	must(flagx.EnvInt("CHITCHAT_OTP_RESEND_LIMIT", &config.OTPResendLimit))
	must(flagx.EnvInt("CHITCHAT_MIN_PASSWORD_LENGTH", &config.MinPasswordLength))
	must(flagx.EnvInt("CHITCHAT_RESTRICTION_THRESHOLD", &config.RestrictionThreshold))
	must(flagx.EnvInt("CHITCHAT_SMTP_PORT", &config.SMTPPort))
	must(flagx.EnvInt("CHITCHAT_EVENTS_PER_SECOND", &config.EventsPerSecond))
	must(flagx.EnvInt("CHITCHAT_MAX_FRAME_BYTES", &config.MaxFrameBytes))
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}
