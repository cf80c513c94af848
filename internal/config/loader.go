package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix = "PODIUM_"

	// FileEnv names the variable pointing at an optional YAML file.
	FileEnv = envPrefix + "CONFIG"

	// FirebaseCredentialsEnv is honoured when firestore_credentials_base64 is unset.
	FirebaseCredentialsEnv = "FIREBASE_SERVICE_ACCOUNT_BASE64"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if PODIUM_CONFIG is set
//  3. env (prefix PODIUM_)
func Load(_ context.Context) (*Config, error) {
	k := koanf.New(".")

	if path := os.Getenv(FileEnv); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: read %s: %w", ErrLoadConfig, path, err)
		}
	}

	// PODIUM_TOP_N -> top_n. Underscores are kept to match the flat koanf tags.
	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		return strings.TrimPrefix(strings.ToLower(s), strings.ToLower(envPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := New()
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if cfg.FirestoreCredentialsBase64 == "" {
		cfg.FirestoreCredentialsBase64 = os.Getenv(FirebaseCredentialsEnv)
	}
	cfg.Backend = strings.ToLower(strings.TrimSpace(cfg.Backend))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings that would otherwise fail later at startup.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.TopN < 1:
		return fmt.Errorf("%w: top_n must be at least 1", ErrInvalidConfig)
	case c.StorageTimeoutMS < 1:
		return fmt.Errorf("%w: storage_timeout_ms must be at least 1", ErrInvalidConfig)
	case c.FanoutLimit < 1:
		return fmt.Errorf("%w: fanout_limit must be at least 1", ErrInvalidConfig)
	}

	switch c.Backend {
	case BackendMemory, BackendFirestore:
	case BackendPostgres, BackendSQLite:
		if strings.TrimSpace(c.DSN) == "" {
			return fmt.Errorf("%w: dsn is required for the %s backend", ErrInvalidConfig, c.Backend)
		}
	default:
		return fmt.Errorf("%w: unknown backend %q", ErrInvalidConfig, c.Backend)
	}
	return nil
}
