package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/todos/internal/flagx"
	"github.com/dmitrijs2005/todos/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Interval fields
// use timex.Duration, which accepts both "1s" style strings and integer
// nanoseconds. Absent fields keep the value already in Config.
type JsonConfig struct {
	EndpointAddrHTTP    string         `json:"endpoint_addr_http"`
	EndpointAddrGRPC    string         `json:"endpoint_addr_grpc"`
	DatabaseDSN         string         `json:"database_dsn"`
	JWKSURL             string         `json:"jwks_url"`
	JWTAlgorithm        string         `json:"jwt_algorithm"`
	JWTIssuer           string         `json:"jwt_issuer"`
	JWTAudience         string         `json:"jwt_audience"`
	JWTLeeway           timex.Duration `json:"jwt_leeway"`
	JWKSRefreshInterval timex.Duration `json:"jwks_refresh_interval"`
	JWKSFetchTimeout    timex.Duration `json:"jwks_fetch_timeout"`
	CursorSecret        string         `json:"cursor_secret"`
	MaxPageSize         int            `json:"max_page_size"`
	S3RootUser          string         `json:"s3_root_user"`
	S3RootPassword      string         `json:"s3_root_password"`
	S3Bucket            string         `json:"s3_bucket"`
	S3Region            string         `json:"s3_region"`
	S3BaseEndpoint      string         `json:"s3_base_endpoint"`
	S3PublicURL         string         `json:"s3_public_url"`
	SignedURLExpiration timex.Duration `json:"signed_url_expiration"`
	LogFormat           string         `json:"log_format"`
	ShutdownTimeout     timex.Duration `json:"shutdown_timeout"`
}

// parseJson loads values from the file named by the -c or -config flag.
// Without the flag nothing is loaded. An unreadable file or invalid JSON panics.
func parseJson(config *Config, args []string) {
	jsonConfigFile := flagx.JsonConfigFlags(args)
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

	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.JWKSURL, c.JWKSURL)
	setString(&config.JWTAlgorithm, c.JWTAlgorithm)
	setString(&config.JWTIssuer, c.JWTIssuer)
	setString(&config.JWTAudience, c.JWTAudience)
	setDuration(&config.JWTLeeway, c.JWTLeeway)
	setDuration(&config.JWKSRefreshInterval, c.JWKSRefreshInterval)
	setDuration(&config.JWKSFetchTimeout, c.JWKSFetchTimeout)
	setString(&config.CursorSecret, c.CursorSecret)
	if c.MaxPageSize != 0 {
		config.MaxPageSize = c.MaxPageSize
	}
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.S3PublicURL, c.S3PublicURL)
	setDuration(&config.SignedURLExpiration, c.SignedURLExpiration)
	setString(&config.LogFormat, c.LogFormat)
	setDuration(&config.ShutdownTimeout, c.ShutdownTimeout)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v timex.Duration) {
	if v.Duration != 0 {
		*dst = v.Duration
	}
}
