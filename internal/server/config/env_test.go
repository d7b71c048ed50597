package config

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mapLookup(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestParseEnv(t *testing.T) {
	cfg := &Config{}
	parseEnv(cfg, mapLookup(map[string]string{
		"TODOS_HTTP_ADDR":             ":7000",
		"TODOS_GRPC_ADDR":             ":7001",
		"TODOS_DATABASE_DSN":          "memory://",
		"TODOS_JWKS_URL":              "https://idp/jwks",
		"TODOS_JWT_ALGORITHM":         "RS384",
		"TODOS_JWT_ISSUER":            "iss",
		"TODOS_JWT_AUDIENCE":          "aud",
		"TODOS_JWT_LEEWAY":            "5s",
		"TODOS_JWKS_REFRESH_INTERVAL": "1h",
		"TODOS_JWKS_FETCH_TIMEOUT":    "3s",
		"TODOS_CURSOR_SECRET":         "s",
		"TODOS_MAX_PAGE_SIZE":         "10",
		"TODOS_S3_ROOT_USER":          "u",
		"TODOS_S3_ROOT_PASSWORD":      "p",
		"TODOS_S3_BUCKET":             "b",
		"TODOS_S3_REGION":             "r",
		"TODOS_S3_BASE_ENDPOINT":      "e",
		"TODOS_S3_PUBLIC_URL":         "https://cdn",
		"TODOS_SIGNED_URL_EXPIRATION": "300",
		"TODOS_LOG_FORMAT":            "console",
		"TODOS_SHUTDOWN_TIMEOUT":      "1m",
		"UNRELATED":                   "x",
	}))

	want := &Config{
		EndpointAddrHTTP:    ":7000",
		EndpointAddrGRPC:    ":7001",
		DatabaseDSN:         "memory://",
		JWKSURL:             "https://idp/jwks",
		JWTAlgorithm:        "RS384",
		JWTIssuer:           "iss",
		JWTAudience:         "aud",
		JWTLeeway:           5 * time.Second,
		JWKSRefreshInterval: time.Hour,
		JWKSFetchTimeout:    3 * time.Second,
		CursorSecret:        "s",
		MaxPageSize:         10,
		S3RootUser:          "u",
		S3RootPassword:      "p",
		S3Bucket:            "b",
		S3Region:            "r",
		S3BaseEndpoint:      "e",
		S3PublicURL:         "https://cdn",
		SignedURLExpiration: 5 * time.Minute,
		LogFormat:           "console",
		ShutdownTimeout:     time.Minute,
	}
	assert.Empty(t, cmp.Diff(want, cfg))
}

func TestParseEnv_SignedURLExpirationAcceptsDuration(t *testing.T) {
	cfg := &Config{}
	parseEnv(cfg, mapLookup(map[string]string{"TODOS_SIGNED_URL_EXPIRATION": "90s"}))
	assert.Equal(t, 90*time.Second, cfg.SignedURLExpiration)
}

func TestParseEnv_EmptyEnvKeepsValues(t *testing.T) {
	cfg := &Config{MaxPageSize: 20, ShutdownTimeout: time.Second}
	parseEnv(cfg, mapLookup(nil))
	assert.Equal(t, 20, cfg.MaxPageSize)
	assert.Equal(t, time.Second, cfg.ShutdownTimeout)
}

func TestParseEnv_Malformed(t *testing.T) {
	require.Panics(t, func() {
		parseEnv(&Config{}, mapLookup(map[string]string{"TODOS_JWKS_FETCH_TIMEOUT": "soon"}))
	})
	require.Panics(t, func() {
		parseEnv(&Config{}, mapLookup(map[string]string{"TODOS_MAX_PAGE_SIZE": "lots"}))
	})
}
