package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/wardenlabs/warden/internal/flagx"
	"github.com/wardenlabs/warden/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON unmarshalling.
// It uses timex.Duration for interval fields, which allows parsing both
// string values such as "15m" and integer nanoseconds.
//
// This struct is an intermediate DTO used only for reading JSON configuration
// files. After unmarshalling, its fields are copied into the runtime Config
// struct which uses time.Duration.
type JsonConfig struct {
	EndpointAddrHTTP             string         `json:"endpoint_addr_http"`
	DatabaseDSN                  string         `json:"database_dsn"`
	JWTSecretKey                 string         `json:"jwt_secret_key"`
	CSRFSecretKey                string         `json:"csrf_secret_key"`
	AccessTokenValidityDuration  timex.Duration `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration timex.Duration `json:"refresh_token_validity_duration"`
	BcryptCost                   int            `json:"bcrypt_cost"`
	LockoutThreshold             int            `json:"lockout_threshold"`
	LockoutDuration              timex.Duration `json:"lockout_duration"`
	RateLimitMaxAttempts         int            `json:"rate_limit_max_attempts"`
	RateLimitWindow              timex.Duration `json:"rate_limit_window"`
	FrontendOrigin               string         `json:"frontend_origin"`
	Production                   bool           `json:"production"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance.
//
// The file path comes from the -c or -config command-line flags; when neither
// is set, no JSON file is loaded and the Config is left untouched. If the
// file cannot be read or contains invalid JSON, the function panics.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	config.EndpointAddrHTTP = c.EndpointAddrHTTP
	config.DatabaseDSN = c.DatabaseDSN
	config.JWTSecretKey = c.JWTSecretKey
	config.CSRFSecretKey = c.CSRFSecretKey
	config.AccessTokenValidityDuration = time.Duration(c.AccessTokenValidityDuration.Duration)
	config.RefreshTokenValidityDuration = time.Duration(c.RefreshTokenValidityDuration.Duration)
	config.BcryptCost = c.BcryptCost
	config.LockoutThreshold = c.LockoutThreshold
	config.LockoutDuration = time.Duration(c.LockoutDuration.Duration)
	config.RateLimitMaxAttempts = c.RateLimitMaxAttempts
	config.RateLimitWindow = time.Duration(c.RateLimitWindow.Duration)
	config.FrontendOrigin = c.FrontendOrigin
	config.Production = c.Production
}
