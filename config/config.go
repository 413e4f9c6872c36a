// Package config loads the service configuration from the environment.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// AppConfig is the full configuration surface. The signing key is the only
// required option.
type AppConfig struct {
	ServerAddress  string     `env:"SERVER_ADDRESS" envDefault:":8080"`
	DatabaseDSN    string     `env:"DATABASE_DSN" envDefault:"file:changelog.db?cache=shared&mode=rwc"`
	AllowedOrigins string     `env:"ALLOWED_ORIGINS" envDefault:"http://localhost:3000"`
	LogLevel       string     `env:"LOG_LEVEL" envDefault:"info"`
	Auth           AuthConfig `envPrefix:"AUTH_"`
}

// AuthConfig holds the token options
type AuthConfig struct {
	SigningKey  string `env:"SIGNING_KEY,required"`
	Issuer      string `env:"ISSUER" envDefault:"changelog-api"`
	TokenTTLMin int    `env:"TOKEN_TTL_MINUTES" envDefault:"60"`
}

// Load parses the environment into an AppConfig.
func Load() (*AppConfig, error) {
	cfg := &AppConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate enforces constraints env tags cannot express.
func (c *AppConfig) Validate() error {
	if len(c.Auth.SigningKey) < 32 {
		// HS256 wants at least 256 bits of key material
		return fmt.Errorf("AUTH_SIGNING_KEY must be at least 32 bytes, got %d", len(c.Auth.SigningKey))
	}
	if c.Auth.TokenTTLMin <= 0 {
		return fmt.Errorf("AUTH_TOKEN_TTL_MINUTES must be positive, got %d", c.Auth.TokenTTLMin)
	}
	return nil
}

// GetSigningKey implements auth.Config
func (c *AppConfig) GetSigningKey() string { return c.Auth.SigningKey }

// GetIssuer implements auth.Config
func (c *AppConfig) GetIssuer() string { return c.Auth.Issuer }

// GetTokenTTLMinutes implements auth.Config
func (c *AppConfig) GetTokenTTLMinutes() int { return c.Auth.TokenTTLMin }
