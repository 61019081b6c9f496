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
//	-a string   HTTP/WebSocket bind address (e.g. ":8080")
//	-g string   gRPC health bind address (e.g. ":50051")
//	-d string   PostgreSQL DSN (empty selects the in-memory store)
//	-r string   Redis address for the profile cache
//	-s string   JWT HMAC secret key
//	-t int      access token validity, minutes
//	-e string   S3 base endpoint
//	-b string   S3 bucket
//	-q int      inbound events per second per connection
//	-l string   log level
//
// os.Args is filtered with flagx.FilterArgs first so -c/-config and other
// foreign flags do not break parsing.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-g", "-d", "-r", "-s", "-t", "-e", "-b", "-q", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "HTTP address and port")
	fs.StringVar(&config.EndpointAddrGRPC, "g", config.EndpointAddrGRPC, "gRPC health address and port")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.RedisAddr, "r", config.RedisAddr, "redis address")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	accessTokenValidity := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access_token_validity_duration (in minutes)")

	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.IntVar(&config.EventsPerSecond, "q", config.EventsPerSecond, "inbound events per second per connection")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.AccessTokenValidityDuration = time.Duration(*accessTokenValidity) * time.Minute
}
