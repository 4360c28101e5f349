// Package config loads and validates the process configuration. The four
// Nango settings are required and their absence fails startup; everything
// else falls back to a documented default. A .env file in the working
// directory is honored when present.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/calbridge/calbridge/internal/result"
)

// Environment variable names for the required auth proxy settings.
const (
	EnvNangoBaseURL       = "NANGO_BASE_URL"
	EnvNangoSecretKey     = "NANGO_SECRET_KEY"
	EnvNangoConnectionID  = "NANGO_CONNECTION_ID"
	EnvNangoIntegrationID = "NANGO_INTEGRATION_ID"
)

// Environment variable names for optional settings.
const (
	EnvPrimaryTimezone = "PRIMARY_TIMEZONE"
	EnvRequestTimeout  = "REQUEST_TIMEOUT"
	EnvLogLevel        = "LOG_LEVEL"
)

// Defaults for optional settings.
const (
	DefaultTimezone       = "UTC"
	DefaultRequestTimeout = 30 * time.Second
)

// Config carries every externally supplied setting. It is constructed once
// by Load and passed into constructors; nothing else reads the environment.
type Config struct {
	// NangoBaseURL is the base URL of the auth proxy, without a trailing
	// slash.
	NangoBaseURL string
	// NangoSecretKey authenticates this process against the proxy.
	NangoSecretKey string
	// NangoConnectionID names the proxy connection holding the Google
	// Calendar grant.
	NangoConnectionID string
	// NangoIntegrationID is the proxy's provider config key for that
	// connection.
	NangoIntegrationID string

	// TimezoneName is the IANA name used for day-window computation.
	TimezoneName string
	// Timezone is the loaded location for TimezoneName.
	Timezone *time.Location

	// RequestTimeout bounds one tool invocation end to end: the credential
	// fetch plus every provider request it issues.
	RequestTimeout time.Duration

	// LogLevel is the minimum slog level (debug, info, warn, error).
	LogLevel string
}

// Load reads the configuration from the environment, loading a .env file
// first when one exists. Missing required settings and unparseable optional
// settings return a ConfigError; the caller is expected to treat that as
// fatal.
func Load() (*Config, error) {
	// Missing .env is the common case in production; ignore it.
	_ = godotenv.Load()

	cfg := &Config{
		NangoBaseURL:       strings.TrimRight(os.Getenv(EnvNangoBaseURL), "/"),
		NangoSecretKey:     os.Getenv(EnvNangoSecretKey),
		NangoConnectionID:  os.Getenv(EnvNangoConnectionID),
		NangoIntegrationID: os.Getenv(EnvNangoIntegrationID),
		TimezoneName:       getEnvOrDefault(EnvPrimaryTimezone, DefaultTimezone),
		RequestTimeout:     DefaultRequestTimeout,
		LogLevel:           getEnvOrDefault(EnvLogLevel, "info"),
	}

	for _, required := range []struct {
		env   string
		value string
	}{
		{EnvNangoBaseURL, cfg.NangoBaseURL},
		{EnvNangoSecretKey, cfg.NangoSecretKey},
		{EnvNangoConnectionID, cfg.NangoConnectionID},
		{EnvNangoIntegrationID, cfg.NangoIntegrationID},
	} {
		if required.value == "" {
			return nil, result.Errorf(result.KindConfig, "%s environment variable is required", required.env)
		}
	}

	loc, err := time.LoadLocation(cfg.TimezoneName)
	if err != nil {
		return nil, result.Errorf(result.KindConfig, "%s: unknown timezone %q", EnvPrimaryTimezone, cfg.TimezoneName)
	}
	cfg.Timezone = loc

	if raw := os.Getenv(EnvRequestTimeout); raw != "" {
		timeout, err := time.ParseDuration(raw)
		if err != nil || timeout <= 0 {
			return nil, result.Errorf(result.KindConfig, "%s: invalid duration %q", EnvRequestTimeout, raw)
		}
		cfg.RequestTimeout = timeout
	}

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
