// Package config provides configuration management for the Hypixel gateway
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the gateway
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Hypixel   HypixelConfig   `yaml:"hypixel"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Feed      FeedConfig      `yaml:"feed"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Log       LogConfig       `yaml:"log"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         string        `yaml:"port" env:"HYPIXEL_PORT"`
	ReadTimeout  time.Duration `yaml:"read_timeout" env:"HYPIXEL_READ_TIMEOUT"`
	WriteTimeout time.Duration `yaml:"write_timeout" env:"HYPIXEL_WRITE_TIMEOUT"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" env:"HYPIXEL_IDLE_TIMEOUT"`
}

// HypixelConfig holds upstream API configuration
type HypixelConfig struct {
	BaseURL string        `yaml:"base_url" env:"HYPIXEL_BASE_URL"`
	APIKey  string        `yaml:"api_key" env:"HYPIXEL_API_KEY"`
	Timeout time.Duration `yaml:"timeout" env:"HYPIXEL_TIMEOUT"`
}

// DatabaseConfig holds database configuration. An empty DSN disables the audit store.
type DatabaseConfig struct {
	Driver string `yaml:"driver" env:"HYPIXEL_DB_DRIVER"`
	DSN    string `yaml:"dsn" env:"HYPIXEL_DB_DSN"`
}

// AuthConfig holds gateway authentication configuration
type AuthConfig struct {
	JWTSecret   string        `yaml:"jwt_secret" env:"HYPIXEL_JWT_SECRET"`
	TokenExpiry time.Duration `yaml:"token_expiry" env:"HYPIXEL_TOKEN_EXPIRY"`
	// Clients maps client IDs to bcrypt hashes of their secrets.
	// From the environment: HYPIXEL_CLIENTS=id1:hash1,id2:hash2
	Clients map[string]string `yaml:"clients" env:"HYPIXEL_CLIENTS"`
	// Admins lists the client IDs allowed to use the control routes
	Admins []string `yaml:"admins" env:"HYPIXEL_ADMIN_CLIENTS"`
}

// IsAdmin reports whether clientID may use the control routes
func (c *AuthConfig) IsAdmin(clientID string) bool {
	for _, id := range c.Admins {
		if id == clientID {
			return true
		}
	}
	return false
}

// FeedConfig holds bazaar feed configuration
type FeedConfig struct {
	Interval time.Duration `yaml:"interval" env:"HYPIXEL_FEED_INTERVAL"`
}

// TelemetryConfig holds tracing configuration. Tracing is off when Endpoint is empty.
type TelemetryConfig struct {
	Endpoint    string `yaml:"endpoint" env:"HYPIXEL_OTEL_ENDPOINT"`
	ServiceName string `yaml:"service_name" env:"HYPIXEL_OTEL_SERVICE_NAME"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `yaml:"level" env:"HYPIXEL_LOG_LEVEL"`
}

// SlogLevel returns the configured level, defaulting to info
func (c LogConfig) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// Load reads configuration from an optional YAML file, then applies
// HYPIXEL_* environment overrides and defaults. An empty path skips the file.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}

		if err := yaml.Unmarshal([]byte(expandEnv(string(data))), &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// expandEnv substitutes environment variables that are set and leaves every
// other $ sequence alone, so bcrypt hashes in the file survive.
func expandEnv(s string) string {
	return os.Expand(s, func(key string) string {
		if value, ok := os.LookupEnv(key); ok {
			return value
		}
		return "$" + key
	})
}

// applyDefaults sets default values for missing configuration
func (c *Config) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 30 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 30 * time.Second
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = 120 * time.Second
	}

	if c.Hypixel.BaseURL == "" {
		c.Hypixel.BaseURL = "https://api.hypixel.net"
	}
	if c.Hypixel.Timeout == 0 {
		c.Hypixel.Timeout = 30 * time.Second
	}

	if c.Database.Driver == "" {
		c.Database.Driver = "postgres"
	}

	if c.Auth.JWTSecret == "" {
		c.Auth.JWTSecret = "hypixel-dev-secret-change-in-production"
	}
	if c.Auth.TokenExpiry == 0 {
		c.Auth.TokenExpiry = 24 * time.Hour
	}

	if c.Feed.Interval == 0 {
		c.Feed.Interval = 20 * time.Second
	}

	if c.Telemetry.ServiceName == "" {
		c.Telemetry.ServiceName = "hypixel-gateway"
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Validate rejects configuration the gateway cannot run with
func (c *Config) Validate() error {
	if c.Hypixel.Timeout < 0 {
		return fmt.Errorf("hypixel timeout must not be negative, got %s", c.Hypixel.Timeout)
	}
	if c.Feed.Interval < time.Second {
		return fmt.Errorf("feed interval must be at least 1s, got %s", c.Feed.Interval)
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return fmt.Errorf("invalid log level %q", c.Log.Level)
	}
	for id, hash := range c.Auth.Clients {
		if !strings.HasPrefix(hash, "$2") {
			return fmt.Errorf("client %q: secret must be a bcrypt hash", id)
		}
	}
	for _, id := range c.Auth.Admins {
		if _, ok := c.Auth.Clients[id]; !ok {
			return fmt.Errorf("admin %q is not a configured client", id)
		}
	}
	return nil
}

// DefaultConfig returns a configuration with all defaults
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}
