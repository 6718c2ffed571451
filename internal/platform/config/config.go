// Copyright (c) 2026 Taskora. All rights reserved.
// Author: dev@taskora.app

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (DB, Redis) via constructors.
  - Zero Hidden State: No global variables are used to store config.

This ensures the application is Twelve-Factor compliant by storing config in the env.
*/
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// # Identity Modes

// Accounts authenticate with exactly one identity field. The original mobile
// deployments ran both flavors, so this is a configuration tag rather than a
// code fork.
const (
	IdentityEmail    = "email"
	IdentityUsername = "username"
)

// # Configuration Schema

// Config holds all runtime configuration for the Taskora API server.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// Relational Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required"`

	// MigrationPath is the filesystem path to the SQL migrations directory.
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./data/migrations"`

	// Key-Value Store (Redis) — holds the active session tokens.
	RedisURL string `env:"REDIS_URL,required"`

	// SessionSecret signs bearer tokens (HS256). Minimum 32 bytes.
	SessionSecret string `env:"SESSION_SECRET,required"`

	// SessionTTL bounds both the JWT expiry and the active-token TTL in Redis.
	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"1h"`

	// IdentityMode selects the account identity field: "email" or "username".
	IdentityMode string `env:"AUTH_IDENTITY_MODE" envDefault:"email"`

	// EnforceRoles mounts the role-gated admin endpoints when true.
	EnforceRoles bool `env:"AUTH_ENFORCE_ROLES" envDefault:"false"`

	// ExtraOrigins is a comma-separated allowlist of additional CORS origins,
	// matched exactly. The production app domain is always allowed.
	ExtraOrigins string `env:"EXTRA_ORIGINS"`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct.
func Load() (*Config, error) {

	// Initialize an empty config struct
	cfg := &Config{}

	// Use the 'env' package to map environment variables to struct fields.
	// This will fail if any field marked with 'required' is missing.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	if cfg.IdentityMode != IdentityEmail && cfg.IdentityMode != IdentityUsername {
		return nil, fmt.Errorf("config: AUTH_IDENTITY_MODE must be %q or %q, got %q",
			IdentityEmail, IdentityUsername, cfg.IdentityMode)
	}

	return cfg, nil
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// AllowsOrigin reports whether a cross-origin request is permitted outside
// development: the app domain and its subdomains, plus any EXTRA_ORIGINS
// entry. The host is matched on a dot boundary so look-alike registrations
// (eviltaskora.app) stay out.
func (c *Config) AllowsOrigin(origin string) bool {
	if parsed, err := url.Parse(origin); err == nil {
		host := parsed.Hostname()
		if host == "taskora.app" || strings.HasSuffix(host, ".taskora.app") {
			return true
		}
	}
	for _, allowed := range strings.Split(c.ExtraOrigins, ",") {
		if allowed != "" && origin == strings.TrimSpace(allowed) {
			return true
		}
	}
	return false
}
