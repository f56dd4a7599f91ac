// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Bandmate Harmony Contributors

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseConfig() *Config {
	return &Config{
		Server:   ServerConfig{Addr: ":8080", MetricsAddr: "127.0.0.1:9100"},
		Database: DatabaseConfig{URL: "postgres://localhost/harmony"},
		Auth:     AuthConfig{Secret: "s3cret", TokenTTL: time.Hour},
		Log:      LogConfig{Format: "json", Level: "info"},
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("HARMONY_AUTH_SECRET", "")

	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultServerAddr, cfg.Server.Addr)
	assert.Equal(t, DefaultMetricsAddr, cfg.Server.MetricsAddr)
	assert.Equal(t, DefaultLogFormat, cfg.Log.Format)
	assert.Equal(t, DefaultLogLevel, cfg.Log.Level)
	assert.Equal(t, DefaultTokenTTL, cfg.Auth.TokenTTL)
	assert.Empty(t, cfg.Database.URL)
}

func TestLoad_YAMLFile(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("HARMONY_AUTH_SECRET", "")

	path := filepath.Join(t.TempDir(), "harmony.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":9999"
database:
  url: postgres://db.example/harmony
auth:
  secret: file-secret
log:
  format: text
  level: debug
`), 0o600))

	cfg, err := Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, ":9999", cfg.Server.Addr)
	assert.Equal(t, "postgres://db.example/harmony", cfg.Database.URL)
	assert.Equal(t, "file-secret", cfg.Auth.Secret)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, DefaultMetricsAddr, cfg.Server.MetricsAddr, "defaults survive partial files")
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "harmony.yaml")
	require.NoError(t, os.WriteFile(path, []byte("database:\n  url: postgres://from-file\n"), 0o600))

	t.Setenv("DATABASE_URL", "postgres://from-env")
	t.Setenv("HARMONY_AUTH_SECRET", "env-secret")

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "postgres://from-env", cfg.Database.URL)
	assert.Equal(t, "env-secret", cfg.Auth.Secret)
}

func TestLoad_FlagsOverrideEverything(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://from-env")
	t.Setenv("HARMONY_AUTH_SECRET", "")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("server.addr", DefaultServerAddr, "")
	flags.String("database.url", "", "")
	require.NoError(t, flags.Parse([]string{
		"--server.addr=:7777",
		"--database.url=postgres://from-flag",
	}))

	cfg, err := Load("", flags)
	require.NoError(t, err)
	assert.Equal(t, ":7777", cfg.Server.Addr)
	assert.Equal(t, "postgres://from-flag", cfg.Database.URL)
}

func TestLoad_MissingFileIsIgnored(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("HARMONY_AUTH_SECRET", "")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultServerAddr, cfg.Server.Addr)
}

func TestConfig_Validate(t *testing.T) {
	t.Run("accepts complete config", func(t *testing.T) {
		require.NoError(t, baseConfig().Validate())
	})

	t.Run("collects all problems at once", func(t *testing.T) {
		cfg := baseConfig()
		cfg.Database.URL = ""
		cfg.Auth.Secret = ""
		cfg.Log.Format = "xml"

		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.url")
		assert.Contains(t, err.Error(), "auth.secret")
		assert.Contains(t, err.Error(), "log.format")
	})

	t.Run("rejects bad log level", func(t *testing.T) {
		cfg := baseConfig()
		cfg.Log.Level = "verbose"
		require.Error(t, cfg.Validate())
	})

	t.Run("rejects non-positive ttl", func(t *testing.T) {
		cfg := baseConfig()
		cfg.Auth.TokenTTL = 0
		require.Error(t, cfg.Validate())
	})
}
