// Package config handles application configuration.
// Configuration is loaded from environment variables with sensible defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	// Server settings
	HTTPPort int
	GRPCPort int

	// Database. Empty selects in-memory storage.
	DatabaseURL string

	// JWT settings
	JWTSecretKey   string
	AccessTokenTTL time.Duration
	JWTIssuer      string

	// Cross-instance change notifications. Empty disables them.
	RedisURL string

	// Domain events. No brokers means events are only logged.
	KafkaBrokers []string
	KafkaTopic   string

	// Validation rules
	DOBMinAge          int
	DOBMaxAge          int
	LegalNameMaxLength int
	LegalNamePattern   string

	// Logging
	LogLevel  string
	LogFormat string // "json" or "text"

	// Environment
	Environment string // "sandbox" "dev", "staging", "prod"
}

// Load reads configuration from environment variables.
func Load() *Config {
	return &Config{
		HTTPPort: getEnvInt("HTTP_PORT", 8080),
		GRPCPort: getEnvInt("GRPC_PORT", 9090),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		JWTSecretKey:   getEnv("JWT_SECRET_KEY", "change-me-in-production-this-is-not-secure"),
		AccessTokenTTL: getEnvDuration("ACCESS_TOKEN_TTL", 15*time.Minute),
		JWTIssuer:      getEnv("JWT_ISSUER", "privatedetails"),

		RedisURL: getEnv("REDIS_URL", ""),

		KafkaBrokers: getEnvList("KAFKA_BROKERS"),
		KafkaTopic:   getEnv("KAFKA_TOPIC", "personal-details-events"),

		DOBMinAge:          getEnvInt("DOB_MIN_AGE", 5),
		DOBMaxAge:          getEnvInt("DOB_MAX_AGE", 150),
		LegalNameMaxLength: getEnvInt("LEGAL_NAME_MAX_LENGTH", 50),
		LegalNamePattern:   getEnv("LEGAL_NAME_PATTERN", ""),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		Environment: getEnv("ENVIRONMENT", "dev"),
	}
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if c.DOBMinAge < 0 {
		errs = append(errs, fmt.Errorf("DOB_MIN_AGE must not be negative, got %d", c.DOBMinAge))
	}
	if c.DOBMaxAge < c.DOBMinAge {
		errs = append(errs, fmt.Errorf("DOB_MAX_AGE (%d) must not be below DOB_MIN_AGE (%d)", c.DOBMaxAge, c.DOBMinAge))
	}
	if c.LegalNameMaxLength <= 0 {
		errs = append(errs, fmt.Errorf("LEGAL_NAME_MAX_LENGTH must be positive, got %d", c.LegalNameMaxLength))
	}
	return errors.Join(errs...)
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "dev" || c.Environment == "sandbox"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "prod"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvList splits a comma separated value, dropping empty entries.
func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
