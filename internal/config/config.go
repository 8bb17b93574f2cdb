// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Latchkey Contributors

// Package config loads server configuration from defaults, an optional YAML
// file, environment variables and command-line flags, in that order of
// increasing precedence.
package config

import (
	"log/slog"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/samber/oops"

	"github.com/latchkey/latchkey/internal/auth"
	"github.com/latchkey/latchkey/internal/logging"
)

// Environment selects the deployment profile.
type Environment string

// Supported environments.
const (
	Development Environment = "development"
	Production  Environment = "production"
)

// ParseEnvironment accepts development, dev, production and prod in any case.
func ParseEnvironment(s string) (Environment, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "development", "dev":
		return Development, nil
	case "production", "prod":
		return Production, nil
	default:
		return "", oops.Code("INVALID_ENVIRONMENT").
			Errorf("%q is not a supported environment, use either `development` or `production`", s)
	}
}

// UnmarshalText implements encoding.TextUnmarshaler so YAML, env and flag
// values are normalized the same way.
func (e *Environment) UnmarshalText(text []byte) error {
	parsed, err := ParseEnvironment(string(text))
	if err != nil {
		return err
	}
	*e = parsed
	return nil
}

// Default listen settings.
const (
	DevelopmentHost = "127.0.0.1"
	DevelopmentPort = 3000
	ProductionHost  = "0.0.0.0"
)

// Argon2Config holds the password hashing cost.
type Argon2Config struct {
	MemoryKiB   uint32 `koanf:"memory_kib" env:"MEMORY_KIB"`
	Iterations  uint32 `koanf:"iterations" env:"ITERATIONS"`
	Parallelism uint8  `koanf:"parallelism" env:"PARALLELISM"`
}

// Params converts the config to hasher parameters.
func (a Argon2Config) Params() auth.Argon2Params {
	p := auth.DefaultArgon2Params
	p.MemoryKiB = a.MemoryKiB
	p.Iterations = a.Iterations
	p.Parallelism = a.Parallelism
	return p
}

// Config is the complete server configuration.
type Config struct {
	Environment       Environment   `koanf:"environment" env:"APP_ENVIRONMENT"`
	Host              string        `koanf:"host" env:"HOST"`
	Port              int           `koanf:"port" env:"PORT"`
	DatabaseURL       string        `koanf:"database_url" env:"DATABASE_URL"`
	MetricsAddr       string        `koanf:"metrics_addr" env:"METRICS_ADDR"`
	LogFormat         string        `koanf:"log_format" env:"LOG_FORMAT"`
	LogLevel          string        `koanf:"log_level" env:"LOG_LEVEL"`
	CookieSecure      bool          `koanf:"cookie_secure" env:"COOKIE_SECURE"`
	ShutdownTimeout   time.Duration `koanf:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
	DBConnectAttempts uint64        `koanf:"db_connect_attempts" env:"DB_CONNECT_ATTEMPTS"`
	Argon2            Argon2Config  `koanf:"argon2" envPrefix:"ARGON2_"`
}

// Default returns the built-in configuration. Host and Port are left empty
// so ListenAddr can pick the environment's defaults.
func Default() Config {
	return Config{
		Environment:       Development,
		MetricsAddr:       "127.0.0.1:9100",
		LogFormat:         "json",
		ShutdownTimeout:   10 * time.Second,
		DBConnectAttempts: 10,
		Argon2: Argon2Config{
			MemoryKiB:   auth.DefaultArgon2Params.MemoryKiB,
			Iterations:  auth.DefaultArgon2Params.Iterations,
			Parallelism: auth.DefaultArgon2Params.Parallelism,
		},
	}
}

// IsProduction reports whether the production profile is active.
func (c *Config) IsProduction() bool {
	return c.Environment == Production
}

// ListenAddr returns the HTTP bind address. Development binds loopback on
// port 3000 unless overridden; production binds all interfaces on Port.
func (c *Config) ListenAddr() string {
	host, port := c.Host, c.Port
	if c.IsProduction() {
		if host == "" {
			host = ProductionHost
		}
	} else {
		if host == "" {
			host = DevelopmentHost
		}
		if port == 0 {
			port = DevelopmentPort
		}
	}
	return net.JoinHostPort(host, strconv.Itoa(port))
}

// Level returns the configured log level. When none is set, development
// logs at debug and production at info.
func (c *Config) Level() slog.Level {
	if c.LogLevel == "" {
		if c.IsProduction() {
			return slog.LevelInfo
		}
		return slog.LevelDebug
	}
	level, err := logging.ParseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return level
}

// Validate checks required fields and value ranges.
func (c *Config) Validate() error {
	if _, err := ParseEnvironment(string(c.Environment)); err != nil {
		return err
	}
	if c.DatabaseURL == "" {
		return oops.Code("CONFIG_INVALID").Errorf("DATABASE_URL is required")
	}
	if c.Port < 0 || c.Port > 65535 {
		return oops.Code("CONFIG_INVALID").Errorf("port must be between 0 and 65535, got %d", c.Port)
	}
	if c.IsProduction() && c.Port == 0 {
		return oops.Code("CONFIG_INVALID").Errorf("PORT is required in production")
	}
	if _, err := logging.ParseFormat(c.LogFormat); err != nil {
		return err
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.ShutdownTimeout <= 0 {
		return oops.Code("CONFIG_INVALID").Errorf("shutdown timeout must be positive, got %s", c.ShutdownTimeout)
	}
	if c.DBConnectAttempts == 0 {
		return oops.Code("CONFIG_INVALID").Errorf("db connect attempts must be at least 1")
	}
	a := c.Argon2
	if a.Iterations < 1 || a.Parallelism < 1 || a.MemoryKiB < 8*uint32(a.Parallelism) ||
		a.MemoryKiB > auth.MaxArgon2MemoryKiB || a.Iterations > auth.MaxArgon2Iterations {
		return oops.Code("CONFIG_INVALID").
			With("memory_kib", a.MemoryKiB).
			With("iterations", a.Iterations).
			With("parallelism", a.Parallelism).
			Errorf("argon2 parameters out of range")
	}
	return nil
}
