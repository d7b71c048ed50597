package config

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		expected    *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{name: "Test1 OK", args: []string{
			"-a", ":8081", "-r", "127.0.0.1:9090", "-d", "db", "-j", "https://idp/jwks", "-i", "iss", "-w", "aud",
			"-k", "secret", "-m", "30", "-u", "user", "-p", "password", "-b", "bucket", "-g", "us-west-1",
			"-e", "http://endpoint", "-x", "60", "-f", "console",
		}, expectPanic: false,
			expected: &Config{
				EndpointAddrHTTP:    ":8081",
				EndpointAddrGRPC:    "127.0.0.1:9090",
				DatabaseDSN:         "db",
				JWKSURL:             "https://idp/jwks",
				JWTIssuer:           "iss",
				JWTAudience:         "aud",
				CursorSecret:        "secret",
				MaxPageSize:         30,
				S3RootUser:          "user",
				S3RootPassword:      "password",
				S3Bucket:            "bucket",
				S3Region:            "us-west-1",
				S3BaseEndpoint:      "http://endpoint",
				SignedURLExpiration: time.Minute,
				LogFormat:           "console",
			}},
		{name: "unknown flags are ignored", args: []string{"serve", "--verbose", "-z", "1", "-d", "db"},
			expected: &Config{DatabaseDSN: "db"}},
		{name: "bad int panics", args: []string{"-m", "many"}, expectPanic: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := &Config{}

			if !tt.expectPanic {
				require.NotPanics(t, func() { parseFlags(config, tt.args) })
				assert.Empty(t, cmp.Diff(config, tt.expected))
			} else {
				require.Panics(t, func() { parseFlags(config, tt.args) })
			}
		})
	}
}
