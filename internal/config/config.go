// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Parley Contributors

// Package config loads server configuration from an optional YAML file
// with command-line flag overrides.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// Store backend names.
const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Config holds the serve command configuration.
type Config struct {
	// MetricsAddr is the listen address for metrics and health probes.
	// Empty disables the observability server.
	MetricsAddr string `koanf:"metrics_addr"`

	// Store selects the session/identity backend: "postgres" or "memory".
	Store string `koanf:"store"`

	// DatabaseURL is the PostgreSQL connection string. Falls back to the
	// DATABASE_URL environment variable when unset.
	DatabaseURL string `koanf:"database_url"`

	// LogFormat is "json" or "text".
	LogFormat string `koanf:"log_format"`

	// SweepInterval is how often expired sessions are pruned. Zero
	// disables the sweeper; expiry stays enforced at validation time.
	SweepInterval time.Duration `koanf:"sweep_interval"`
}

// Default returns the built-in defaults.
func Default() Config {
	return Config{
		MetricsAddr:   "127.0.0.1:9100",
		Store:         StorePostgres,
		LogFormat:     "json",
		SweepInterval: time.Hour,
	}
}

// Load builds a Config from defaults, an optional YAML file, and flag
// overrides, in that order of precedence (flags win).
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").
				With("path", path).
				Wrap(err)
		}
	}

	if flags != nil {
		// Flag names use dashes; config keys use underscores. Changed
		// flags override file values, unchanged ones only fill gaps.
		provider := posflag.ProviderWithValue(flags, ".", k, func(key, value string) (string, any) {
			return strings.ReplaceAll(key, "-", "_"), value
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").
				With("operation", "merge flags").
				Wrap(err)
		}
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.Code("CONFIG_INVALID").
			With("operation", "unmarshal config").
			Wrap(err)
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	switch c.Store {
	case StorePostgres:
		if c.DatabaseURL == "" {
			return oops.Code("CONFIG_INVALID").
				Errorf("database_url is required for the postgres store (or set DATABASE_URL)")
		}
	case StoreMemory:
	default:
		return oops.Code("CONFIG_INVALID").
			With("store", c.Store).
			Errorf("store must be %q or %q", StorePostgres, StoreMemory)
	}

	if c.LogFormat != "json" && c.LogFormat != "text" {
		return oops.Code("CONFIG_INVALID").
			With("log_format", c.LogFormat).
			Errorf("log_format must be 'json' or 'text'")
	}

	if c.SweepInterval < 0 {
		return oops.Code("CONFIG_INVALID").
			With("sweep_interval", c.SweepInterval.String()).
			Errorf("sweep_interval cannot be negative")
	}

	return nil
}
