// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lectoria Contributors

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chicohaager/lectoria/pkg/errutil"
)

// clearSecretEnv keeps ambient environment secrets out of the tests.
func clearSecretEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "")
	t.Setenv("LECTORIA_SIGNING_KEY", "")
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lectoria.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func serveFlags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("serve", pflag.ContinueOnError)
	flags.String("listen", "", "API listen address")
	flags.String("log_level", "", "log level")
	return flags
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, EnvDevelopment, cfg.Environment)
	assert.Equal(t, "127.0.0.1:8800", cfg.Listen)
	assert.Equal(t, "127.0.0.1:9100", cfg.MetricsListen)
	assert.Equal(t, "./data", cfg.DataDir)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, 5, cfg.Auth.MaxLoginAttempts)
	assert.Equal(t, 15*time.Minute, cfg.Auth.LockoutWindow)
	assert.Equal(t, int64(256<<20), cfg.Upload.MaxBytes)
}

func TestLoad(t *testing.T) {
	t.Run("no file and no flags yields the defaults", func(t *testing.T) {
		clearSecretEnv(t)

		cfg, err := Load("", nil)
		require.NoError(t, err)
		assert.Equal(t, Default().Listen, cfg.Listen)
		assert.Empty(t, cfg.DatabaseURL)
	})

	t.Run("file values override the defaults", func(t *testing.T) {
		clearSecretEnv(t)
		path := writeConfigFile(t, `
listen: "0.0.0.0:9000"
log_format: text
auth:
  token_ttl: 2h
  max_login_attempts: 3
upload:
  max_bytes: 1048576
`)

		cfg, err := Load(path, nil)
		require.NoError(t, err)
		assert.Equal(t, "0.0.0.0:9000", cfg.Listen)
		assert.Equal(t, "text", cfg.LogFormat)
		assert.Equal(t, 2*time.Hour, cfg.Auth.TokenTTL)
		assert.Equal(t, 3, cfg.Auth.MaxLoginAttempts)
		assert.Equal(t, int64(1<<20), cfg.Upload.MaxBytes)
		// Keys the file does not set keep their defaults.
		assert.Equal(t, Default().MetricsListen, cfg.MetricsListen)
	})

	t.Run("changed flags override the file", func(t *testing.T) {
		clearSecretEnv(t)
		path := writeConfigFile(t, `listen: "0.0.0.0:9000"`)

		flags := serveFlags()
		require.NoError(t, flags.Set("listen", "127.0.0.1:7000"))

		cfg, err := Load(path, flags)
		require.NoError(t, err)
		assert.Equal(t, "127.0.0.1:7000", cfg.Listen)
	})

	t.Run("unset flags do not shadow file values", func(t *testing.T) {
		clearSecretEnv(t)
		path := writeConfigFile(t, `listen: "0.0.0.0:9000"`)

		cfg, err := Load(path, serveFlags())
		require.NoError(t, err)
		assert.Equal(t, "0.0.0.0:9000", cfg.Listen)
		assert.Equal(t, Default().LogLevel, cfg.LogLevel)
	})

	t.Run("secrets fall back to the environment", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://env-host:5432/lectoria")
		t.Setenv("LECTORIA_SIGNING_KEY", "env-signing-key")

		cfg, err := Load("", nil)
		require.NoError(t, err)
		assert.Equal(t, "postgres://env-host:5432/lectoria", cfg.DatabaseURL)
		assert.Equal(t, "env-signing-key", cfg.Auth.SigningKey)
	})

	t.Run("file secrets win over the environment", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://env-host:5432/lectoria")
		path := writeConfigFile(t, `database_url: "postgres://file-host:5432/lectoria"`)

		cfg, err := Load(path, nil)
		require.NoError(t, err)
		assert.Equal(t, "postgres://file-host:5432/lectoria", cfg.DatabaseURL)
	})

	t.Run("missing file", func(t *testing.T) {
		clearSecretEnv(t)

		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), nil)
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "CONFIG_LOAD_FAILED")
	})

	t.Run("malformed file", func(t *testing.T) {
		clearSecretEnv(t)
		path := writeConfigFile(t, "listen: [unclosed")

		_, err := Load(path, nil)
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "CONFIG_LOAD_FAILED")
	})

	t.Run("invalid file values fail validation", func(t *testing.T) {
		clearSecretEnv(t)
		path := writeConfigFile(t, `log_format: xml`)

		_, err := Load(path, nil)
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "CONFIG_INVALID")
	})
}

func TestConfig_Validate(t *testing.T) {
	valid := func() Config {
		cfg := Default()
		cfg.Auth.SigningKey = "a-signing-key"
		return cfg
	}

	tests := []struct {
		name     string
		mutate   func(*Config)
		wantCode string
	}{
		{
			name:   "defaults are valid",
			mutate: func(_ *Config) {},
		},
		{
			name:   "production with a signing key",
			mutate: func(c *Config) { c.Environment = EnvProduction },
		},
		{
			name:     "unknown environment",
			mutate:   func(c *Config) { c.Environment = "staging" },
			wantCode: "CONFIG_INVALID",
		},
		{
			name:     "empty listen address",
			mutate:   func(c *Config) { c.Listen = "" },
			wantCode: "CONFIG_INVALID",
		},
		{
			name:     "unknown log format",
			mutate:   func(c *Config) { c.LogFormat = "xml" },
			wantCode: "CONFIG_INVALID",
		},
		{
			name: "production without a signing key",
			mutate: func(c *Config) {
				c.Environment = EnvProduction
				c.Auth.SigningKey = ""
			},
			wantCode: "CONFIG_NO_SIGNING_KEY",
		},
		{
			name:     "negative token TTL",
			mutate:   func(c *Config) { c.Auth.TokenTTL = -time.Hour },
			wantCode: "CONFIG_INVALID",
		},
		{
			name: "tls with a full key pair",
			mutate: func(c *Config) {
				c.TLS = TLS{Enabled: true, CertFile: "server.crt", KeyFile: "server.key"}
			},
		},
		{
			name:   "tls without files is allowed in development",
			mutate: func(c *Config) { c.TLS.Enabled = true },
		},
		{
			name: "tls cert file without key file",
			mutate: func(c *Config) {
				c.TLS = TLS{Enabled: true, CertFile: "server.crt"}
			},
			wantCode: "CONFIG_INVALID",
		},
		{
			name: "tls in production requires files",
			mutate: func(c *Config) {
				c.Environment = EnvProduction
				c.TLS.Enabled = true
			},
			wantCode: "CONFIG_INVALID",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantCode == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			errutil.AssertErrorCode(t, err, tt.wantCode)
		})
	}
}

func TestConfig_IsProduction(t *testing.T) {
	cfg := Default()
	assert.False(t, cfg.IsProduction())

	cfg.Environment = EnvProduction
	assert.True(t, cfg.IsProduction())
}
