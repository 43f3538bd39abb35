// Package config provides configuration loading for the todo API server.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variables that override file values.
const (
	EnvDBDriver   = "TODO_DB_DRIVER"
	EnvDBDSN      = "TODO_DB_DSN"
	EnvJWTKey     = "TODO_JWT_KEY"
	EnvListenAddr = "TODO_LISTEN_ADDR"
)

// minKeyLength is the shortest HMAC secret accepted for HS256 signing.
const minKeyLength = 16

// Config represents the complete server configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	JWT      JWTConfig      `yaml:"jwt"`
	Auth     AuthConfig     `yaml:"auth"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig configures the HTTP listener
type ServerConfig struct {
	// Addr is the listen address (default: :8080)
	Addr string `yaml:"addr"`
	// AllowedOrigins lists the origins permitted by the CORS policy
	AllowedOrigins []string `yaml:"allowed_origins"`
	// ShutdownTimeout bounds graceful shutdown
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// DatabaseConfig selects the SQL driver and connection string
type DatabaseConfig struct {
	// Driver is one of sqlite3, mysql, postgres
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// JWTConfig configures session token issuance and validation
type JWTConfig struct {
	Key      string        `yaml:"key"`
	Issuer   string        `yaml:"issuer"`
	Audience string        `yaml:"audience"`
	Expire   time.Duration `yaml:"expire"`
}

// AuthConfig configures password hashing
type AuthConfig struct {
	BcryptCost int `yaml:"bcrypt_cost"`
}

// LogConfig configures logging
type LogConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns a Config with sensible defaults. The JWT key has no
// default and must come from the file or TODO_JWT_KEY.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			AllowedOrigins:  []string{"http://localhost:3000"},
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			Driver: "sqlite3",
			DSN:    "todo.db",
		},
		JWT: JWTConfig{
			Issuer:   "todo-api",
			Audience: "todo-client",
			Expire:   60 * time.Minute,
		},
		Auth: AuthConfig{
			BcryptCost: 10,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite3", "mysql", "postgres":
	default:
		return fmt.Errorf("database.driver must be one of sqlite3, mysql, postgres (got %q)", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required")
	}
	if len(c.JWT.Key) < minKeyLength {
		return fmt.Errorf("jwt.key must be at least %d bytes", minKeyLength)
	}
	if c.JWT.Issuer == "" {
		return fmt.Errorf("jwt.issuer is required")
	}
	if c.JWT.Audience == "" {
		return fmt.Errorf("jwt.audience is required")
	}
	if c.JWT.Expire <= 0 {
		return fmt.Errorf("jwt.expire must be positive")
	}
	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31 {
		return fmt.Errorf("auth.bcrypt_cost must be between 4 and 31")
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file on top of the defaults
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// ApplyEnv overrides values with any TODO_* environment variables that are set.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvDBDriver); ok && v != "" {
		c.Database.Driver = strings.ToLower(v)
	}
	if v, ok := lookup(EnvDBDSN); ok && v != "" {
		c.Database.DSN = v
	}
	if v, ok := lookup(EnvJWTKey); ok && v != "" {
		c.JWT.Key = v
	}
	if v, ok := lookup(EnvListenAddr); ok && v != "" {
		c.Server.Addr = v
	}
}

// Load builds the effective configuration: defaults, then the optional file,
// then the environment. The result is validated.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		loaded, err := LoadFromFile(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	cfg.ApplyEnv(os.LookupEnv)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
