package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// envConfig mirrors the variable names of the original deployment (.env
// file). It is prefilled from the current Config so unset variables change
// nothing.
type envConfig struct {
	EndpointAddrHTTP          string        `env:"HTTP_ADDR"`
	DatabaseDSN               string        `env:"DATABASE_DSN"`
	SecretKey                 string        `env:"SECRET_KEY"`
	SigningAlgorithm          string        `env:"ALGORITHM"`
	AccessTokenExpireMinutes  *int          `env:"ACCESS_TOKEN_EXPIRE_MINUTES"`
	LogLevel                  string        `env:"LOG_LEVEL"`
	LogFormat                 string        `env:"LOG_FORMAT"`
	RevocationCleanupInterval time.Duration `env:"REVOCATION_CLEANUP_INTERVAL"`
	AllowedOrigins            []string      `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`
	MetricsAddr               string        `env:"METRICS_ADDR"`
}

func parseEnv(config *Config) error {
	raw := envConfig{
		EndpointAddrHTTP:          config.EndpointAddrHTTP,
		DatabaseDSN:               config.DatabaseDSN,
		SecretKey:                 config.SecretKey,
		SigningAlgorithm:          config.SigningAlgorithm,
		LogLevel:                  config.LogLevel,
		LogFormat:                 config.LogFormat,
		RevocationCleanupInterval: config.RevocationCleanupInterval,
		AllowedOrigins:            config.AllowedOrigins,
		MetricsAddr:               config.MetricsAddr,
	}

	if err := env.Parse(&raw); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}

	config.EndpointAddrHTTP = raw.EndpointAddrHTTP
	config.DatabaseDSN = raw.DatabaseDSN
	config.SecretKey = raw.SecretKey
	config.SigningAlgorithm = raw.SigningAlgorithm
	config.LogLevel = raw.LogLevel
	config.LogFormat = raw.LogFormat
	config.RevocationCleanupInterval = raw.RevocationCleanupInterval
	config.AllowedOrigins = raw.AllowedOrigins
	config.MetricsAddr = raw.MetricsAddr
	if raw.AccessTokenExpireMinutes != nil {
		config.AccessTokenValidityDuration = time.Duration(*raw.AccessTokenExpireMinutes) * time.Minute
	}
	return nil
}
