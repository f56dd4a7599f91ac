// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Bandmate Harmony Contributors

// Package config loads server configuration from defaults, an optional
// YAML file, and command-line flags, in increasing order of precedence.
package config

import (
	"errors"
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

// Default values applied before file and flag overrides.
const (
	DefaultServerAddr  = ":8080"
	DefaultMetricsAddr = "127.0.0.1:9100"
	DefaultLogFormat   = "json"
	DefaultLogLevel    = "info"
	DefaultTokenTTL    = 7 * 24 * time.Hour
)

// Config holds all server configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Auth     AuthConfig     `koanf:"auth"`
	Log      LogConfig      `koanf:"log"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Addr        string `koanf:"addr"`
	MetricsAddr string `koanf:"metrics_addr"`
}

// DatabaseConfig holds PostgreSQL settings.
type DatabaseConfig struct {
	URL string `koanf:"url"`
}

// AuthConfig holds token signing settings.
type AuthConfig struct {
	Secret   string        `koanf:"secret"`
	TokenTTL time.Duration `koanf:"token_ttl"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Format string `koanf:"format"`
	Level  string `koanf:"level"`
}

// Load builds a Config from defaults, the YAML file at path (skipped when
// path is empty or the file does not exist), and the given flag set.
// Flags take precedence over the file, which takes precedence over defaults.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	defaults := map[string]any{
		"server.addr":         DefaultServerAddr,
		"server.metrics_addr": DefaultMetricsAddr,
		"auth.token_ttl":      DefaultTokenTTL,
		"log.format":          DefaultLogFormat,
		"log.level":           DefaultLogLevel,
	}
	for key, value := range defaults {
		if err := k.Set(key, value); err != nil {
			return nil, oops.Code("CONFIG_FAILED").With("key", key).Wrap(err)
		}
	}

	if path != "" {
		err := k.Load(file.Provider(path), yaml.Parser())
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, oops.Code("CONFIG_FAILED").
				With("path", path).
				Wrap(err)
		}
	}

	if url := os.Getenv("DATABASE_URL"); url != "" {
		if err := k.Set("database.url", url); err != nil {
			return nil, oops.Code("CONFIG_FAILED").With("key", "database.url").Wrap(err)
		}
	}
	if secret := os.Getenv("HARMONY_AUTH_SECRET"); secret != "" {
		if err := k.Set("auth.secret", secret); err != nil {
			return nil, oops.Code("CONFIG_FAILED").With("key", "auth.secret").Wrap(err)
		}
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return nil, oops.Code("CONFIG_FAILED").
				With("source", "flags").
				Wrap(err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.Code("CONFIG_FAILED").
			With("operation", "unmarshal config").
			Wrap(err)
	}
	return &cfg, nil
}

// Validate checks the configuration, collecting all problems into a
// single error so operators can fix everything in one pass.
func (c *Config) Validate() error {
	var problems []string

	if c.Server.Addr == "" {
		problems = append(problems, "server.addr is required")
	}
	if c.Database.URL == "" {
		problems = append(problems, "database.url is required (or set DATABASE_URL)")
	}
	if c.Auth.Secret == "" {
		problems = append(problems, "auth.secret is required (or set HARMONY_AUTH_SECRET)")
	}
	if c.Auth.TokenTTL <= 0 {
		problems = append(problems, "auth.token_ttl must be positive")
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		problems = append(problems, "log.format must be 'json' or 'text'")
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		problems = append(problems, "log.level must be one of debug, info, warn, error")
	}

	if len(problems) > 0 {
		return oops.Code("CONFIG_FAILED").Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}
