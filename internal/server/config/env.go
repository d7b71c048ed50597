package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// EnvPrefix prefixes every environment variable read by the server.
const EnvPrefix = "TODOS_"

var lookupEnv = os.LookupEnv

// parseEnv overlays TODOS_* variables. Durations use time.ParseDuration
// syntax, except TODOS_SIGNED_URL_EXPIRATION which also accepts plain
// seconds. A malformed value panics.
func parseEnv(config *Config, lookup func(string) (string, bool)) {
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok {
			*dst = v
		}
	}
	dur := func(name string, dst *time.Duration, seconds bool) {
		v, ok := lookup(EnvPrefix + name)
		if !ok || v == "" {
			return
		}
		if seconds {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = time.Duration(n) * time.Second
				return
			}
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			panic(fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
		}
		*dst = d
	}

	str("HTTP_ADDR", &config.EndpointAddrHTTP)
	str("GRPC_ADDR", &config.EndpointAddrGRPC)
	str("DATABASE_DSN", &config.DatabaseDSN)
	str("JWKS_URL", &config.JWKSURL)
	str("JWT_ALGORITHM", &config.JWTAlgorithm)
	str("JWT_ISSUER", &config.JWTIssuer)
	str("JWT_AUDIENCE", &config.JWTAudience)
	dur("JWT_LEEWAY", &config.JWTLeeway, false)
	dur("JWKS_REFRESH_INTERVAL", &config.JWKSRefreshInterval, false)
	dur("JWKS_FETCH_TIMEOUT", &config.JWKSFetchTimeout, false)
	str("CURSOR_SECRET", &config.CursorSecret)
	if v, ok := lookup(EnvPrefix + "MAX_PAGE_SIZE"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			panic(fmt.Errorf("%sMAX_PAGE_SIZE: %w", EnvPrefix, err))
		}
		config.MaxPageSize = n
	}
	str("S3_ROOT_USER", &config.S3RootUser)
	str("S3_ROOT_PASSWORD", &config.S3RootPassword)
	str("S3_BUCKET", &config.S3Bucket)
	str("S3_REGION", &config.S3Region)
	str("S3_BASE_ENDPOINT", &config.S3BaseEndpoint)
	str("S3_PUBLIC_URL", &config.S3PublicURL)
	dur("SIGNED_URL_EXPIRATION", &config.SignedURLExpiration, true)
	str("LOG_FORMAT", &config.LogFormat)
	dur("SHUTDOWN_TIMEOUT", &config.ShutdownTimeout, false)
}
