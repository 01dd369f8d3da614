// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lectoria Contributors

// Package config loads server configuration from a YAML file with
// command-line flag overrides.
//
// Precedence, lowest to highest: built-in defaults, config file,
// environment (DATABASE_URL, LECTORIA_SIGNING_KEY), flags.
package config

import (
	"os"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// Environment labels.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config is the full server configuration.
type Config struct {
	// Environment is "development" or "production". Production refuses
	// to start without a signing key.
	Environment string `koanf:"environment"`

	// Listen is the API listen address.
	Listen string `koanf:"listen"`

	// MetricsListen is the metrics/health listen address. Empty
	// disables the observability server.
	MetricsListen string `koanf:"metrics_listen"`

	// DatabaseURL is the PostgreSQL connection string.
	DatabaseURL string `koanf:"database_url"`

	// DataDir is where document blobs are stored.
	DataDir string `koanf:"data_dir"`

	// LogFormat is "json" or "text".
	LogFormat string `koanf:"log_format"`

	// LogLevel is "debug", "info", "warn" or "error".
	LogLevel string `koanf:"log_level"`

	Auth   Auth   `koanf:"auth"`
	Upload Upload `koanf:"upload"`
	TLS    TLS    `koanf:"tls"`
}

// Auth holds the access-control knobs.
type Auth struct {
	// SigningKey signs session tokens. Required in production; in
	// development an empty key gets an ephemeral random one.
	SigningKey string `koanf:"signing_key"`

	// TokenTTL is the session token lifetime.
	TokenTTL time.Duration `koanf:"token_ttl"`

	// MaxLoginAttempts is the failure threshold per client key.
	MaxLoginAttempts int `koanf:"max_login_attempts"`

	// LockoutWindow is the lockout duration after too many failures.
	LockoutWindow time.Duration `koanf:"lockout_window"`
}

// Upload holds upload limits.
type Upload struct {
	// MaxBytes caps a single document upload.
	MaxBytes int64 `koanf:"max_bytes"`
}

// TLS configures HTTPS serving on the API listener.
type TLS struct {
	// Enabled serves the API over HTTPS.
	Enabled bool `koanf:"enabled"`

	// CertFile and KeyFile are PEM files set together. Both empty in
	// development generates a self-signed pair under the XDG config
	// directory.
	CertFile string `koanf:"cert_file"`
	KeyFile  string `koanf:"key_file"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Environment:   EnvDevelopment,
		Listen:        "127.0.0.1:8800",
		MetricsListen: "127.0.0.1:9100",
		DataDir:       "./data",
		LogFormat:     "json",
		LogLevel:      "info",
		Auth: Auth{
			TokenTTL:         24 * time.Hour,
			MaxLoginAttempts: 5,
			LockoutWindow:    15 * time.Minute,
		},
		Upload: Upload{
			MaxBytes: 256 << 20,
		},
	}
}

// Load reads configuration from path (optional) and applies flag
// overrides (optional). The result is validated.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	var cfg Config

	// Defaults go into koanf first so unset flags never shadow file
	// values with their zero defaults.
	k := koanf.New(".")
	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, oops.Code("CONFIG_LOAD_FAILED").
			With("operation", "load defaults").
			Wrap(err)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").
				With("path", path).
				Wrap(err)
		}
	}
	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").
				With("operation", "apply flag overrides").
				Wrap(err)
		}
	}
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.Code("CONFIG_INVALID").
			With("operation", "unmarshal config").
			Wrap(err)
	}

	// Secrets come from the environment when not in the file.
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.Auth.SigningKey == "" {
		cfg.Auth.SigningKey = os.Getenv("LECTORIA_SIGNING_KEY")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks invariants that would otherwise surface as confusing
// runtime failures. A production deployment without a signing key is a
// fatal configuration error, never a silent fallback.
func (c *Config) Validate() error {
	if c.Environment != EnvDevelopment && c.Environment != EnvProduction {
		return oops.Code("CONFIG_INVALID").
			With("environment", c.Environment).
			Errorf("environment must be %q or %q", EnvDevelopment, EnvProduction)
	}
	if c.Listen == "" {
		return oops.Code("CONFIG_INVALID").Errorf("listen address is required")
	}
	if c.LogFormat != "json" && c.LogFormat != "text" {
		return oops.Code("CONFIG_INVALID").
			With("log_format", c.LogFormat).
			Errorf("log_format must be 'json' or 'text'")
	}
	if c.Environment == EnvProduction && c.Auth.SigningKey == "" {
		return oops.Code("CONFIG_NO_SIGNING_KEY").
			Errorf("auth.signing_key (or LECTORIA_SIGNING_KEY) is required in production")
	}
	if c.Auth.TokenTTL < 0 {
		return oops.Code("CONFIG_INVALID").Errorf("auth.token_ttl cannot be negative")
	}
	if c.TLS.Enabled {
		if (c.TLS.CertFile == "") != (c.TLS.KeyFile == "") {
			return oops.Code("CONFIG_INVALID").
				Errorf("tls.cert_file and tls.key_file must be set together")
		}
		if c.Environment == EnvProduction && c.TLS.CertFile == "" {
			return oops.Code("CONFIG_INVALID").
				Errorf("tls in production requires cert_file and key_file; self-signed certificates are development only")
		}
	}
	return nil
}

// IsProduction reports whether the production environment is selected.
func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}
