package config

import (
	"flag"
	"time"

	"github.com/dmitrijs2005/todos/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-r string   gRPC health bind address (e.g., ":50051")
//	-d string   PostgreSQL DSN or memory://
//	-j string   JWKS URL
//	-i string   expected token issuer
//	-w string   expected token audience
//	-k string   cursor HMAC secret
//	-m int      maximum page size
//	-u string   S3 root user
//	-p string   S3 root password
//	-b string   S3 bucket name
//	-g string   S3 region
//	-e string   S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//	-x int      signed URL expiration, seconds
//	-f string   log format: json or console
//
// Arguments not listed above are dropped with flagx.FilterArgs first, so
// flags owned by other components do not collide.
func parseFlags(config *Config, args []string) {
	args = flagx.FilterArgs(args, []string{
		"-a", "-r", "-d", "-j", "-i", "-w", "-k", "-m", "-u", "-p", "-b", "-g", "-e", "-x", "-f",
	})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "HTTP address and port")
	fs.StringVar(&config.EndpointAddrGRPC, "r", config.EndpointAddrGRPC, "gRPC health address and port")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.JWKSURL, "j", config.JWKSURL, "JWKS URL")
	fs.StringVar(&config.JWTIssuer, "i", config.JWTIssuer, "expected token issuer")
	fs.StringVar(&config.JWTAudience, "w", config.JWTAudience, "expected token audience")
	fs.StringVar(&config.CursorSecret, "k", config.CursorSecret, "cursor secret")
	fs.IntVar(&config.MaxPageSize, "m", config.MaxPageSize, "maximum page size")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	signedURLExpiration := fs.Int("x", int(config.SignedURLExpiration.Seconds()), "signed URL expiration (in seconds)")

	fs.StringVar(&config.LogFormat, "f", config.LogFormat, "log format: json or console")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.SignedURLExpiration = time.Duration(*signedURLExpiration) * time.Second
}
