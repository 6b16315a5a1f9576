// Package config loads server settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds every setting of the server, sourced from environment
// variables (loaded from .env for local runs).
type Config struct {
	Port int `envconfig:"PORT" default:"8080"`
	// CORSOrigins lists browser origins allowed to call the API; "*" allows any.
	CORSOrigins []string `envconfig:"CORS_ORIGINS" default:"*"`

	// Gemini collaborators. Without an API key the server falls back to the
	// pattern interpreter and cannot parse receipts.
	GeminiAPIKey string `envconfig:"GEMINI_API_KEY"`
	GeminiModel  string `envconfig:"GEMINI_MODEL" default:"gemini-2.5-flash"`

	// Exchange rates.
	RatesURL     string        `envconfig:"RATES_URL" default:"https://api.frankfurter.app"`
	RatesTimeout time.Duration `envconfig:"RATES_TIMEOUT" default:"5s"`
	RedisURL     string        `envconfig:"REDIS_URL"`
	RateCacheTTL time.Duration `envconfig:"RATE_CACHE_TTL" default:"1h"`

	// Sessions.
	SessionTTL     time.Duration `envconfig:"SESSION_TTL" default:"2h"`
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"2m"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"text"`
}

// Load reads envFile if it exists and then processes the environment.
// Variables already set take precedence over the file.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges envconfig cannot express.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("PORT out of range: %d", c.Port)
	}
	if c.RatesTimeout <= 0 {
		return fmt.Errorf("RATES_TIMEOUT must be positive")
	}
	if len(c.CORSOrigins) == 0 {
		return fmt.Errorf("CORS_ORIGINS must name at least one origin")
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("LOG_FORMAT must be text or json, got %q", c.LogFormat)
	}
	return nil
}
