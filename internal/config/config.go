// Package config loads the store configuration from the environment.
//
// Variables use the FOODPIX_ prefix. The first underscore after the prefix
// separates the section from the key, so FOODPIX_DATABASE_MAX_OPEN_CONNS
// maps to database.max_open_conns. A .env file in the working directory is
// loaded automatically.
package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
	"golang.org/x/crypto/bcrypt"
)

const envPrefix = "FOODPIX_"

const (
	DriverSQLite = "sqlite3"
	DriverMySQL  = "mysql"
)

type Config struct {
	Database DatabaseConfig `koanf:"database" validate:"required"`
	Auth     AuthConfig     `koanf:"auth" validate:"required"`
	Logging  LoggingConfig  `koanf:"logging" validate:"required"`
}

// DatabaseConfig selects the SQL engine.
//
// For sqlite3 the DSN is a file path or a "file:" URI; for mysql it is a
// go-sql-driver DSN without query parameters (they are added when opening).
type DatabaseConfig struct {
	Driver       string `koanf:"driver" validate:"required,oneof=sqlite3 mysql"`
	DSN          string `koanf:"dsn" validate:"required"`
	MaxOpenConns int    `koanf:"max_open_conns" validate:"min=0"`
	TxIsolation  string `koanf:"tx_isolation"`
}

type AuthConfig struct {
	BcryptCost int `koanf:"bcrypt_cost" validate:"min=4,max=31"`
}

type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=debug info warn error"`
	Format string `koanf:"format" validate:"oneof=console json"`
}

// Default returns the configuration used when nothing is set: an in-memory
// sqlite database and console logging at info level.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver:       DriverSQLite,
			DSN:          "file:foodpix?mode=memory&cache=shared",
			MaxOpenConns: 1,
			TxIsolation:  "READ-COMMITTED",
		},
		Auth: AuthConfig{
			BcryptCost: bcrypt.DefaultCost,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads FOODPIX_* variables over the defaults and validates the result.
func Load() (*Config, error) {
	k := koanf.New(".")

	err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "_", ".", 1)
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load env variables: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the struct tags.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}
