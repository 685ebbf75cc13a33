package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/quizdeck/internal/flagx"
	"github.com/dmitrijs2005/quizdeck/internal/timex"
)

// JsonConfig is the on-disk shape of the optional configuration file.
// Durations accept "30m" style strings or integer nanoseconds.
type JsonConfig struct {
	EndpointAddrHTTP            string         `json:"endpoint_addr_http"`
	DatabaseDSN                 string         `json:"database_dsn"`
	SecretKey                   string         `json:"secret_key"`
	SigningAlgorithm            string         `json:"signing_algorithm"`
	AccessTokenValidityDuration timex.Duration `json:"access_token_validity_duration"`
	LogLevel                    string         `json:"log_level"`
	LogFormat                   string         `json:"log_format"`
	RevocationCleanupInterval   timex.Duration `json:"revocation_cleanup_interval"`
	AllowedOrigins              []string       `json:"allowed_origins"`
	MetricsAddr                 string         `json:"metrics_addr"`
}

// parseJson overlays values from the file named by -c/-config. Keys missing
// from the file keep their current value. No flag means nothing to load.
func parseJson(config *Config, args []string) error {
	path := flagx.ConfigFile(args)
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.SigningAlgorithm, c.SigningAlgorithm)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.LogFormat, c.LogFormat)
	setString(&config.MetricsAddr, c.MetricsAddr)
	if c.AccessTokenValidityDuration.Duration != 0 {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.RevocationCleanupInterval.Duration != 0 {
		config.RevocationCleanupInterval = c.RevocationCleanupInterval.Duration
	}
	if len(c.AllowedOrigins) > 0 {
		config.AllowedOrigins = c.AllowedOrigins
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
