// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers a YAML file and PODIUM_* environment variables on top.
// - Errors wrap this package's sentinel kinds.
package config

import (
	"time"
)

// Storage backends understood by the service.
const (
	BackendMemory    = "memory"
	BackendPostgres  = "postgres"
	BackendSQLite    = "sqlite"
	BackendFirestore = "firestore"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// Backend selects the score store: memory, postgres, sqlite or firestore.
	Backend string `koanf:"backend"`

	// DSN is the Postgres connection string or the SQLite file path.
	DSN string `koanf:"dsn"`

	// FirestoreProject overrides the project id found in the credentials.
	FirestoreProject string `koanf:"firestore_project"`

	// FirestoreCredentialsBase64 holds a base64 service-account JSON.
	FirestoreCredentialsBase64 string `koanf:"firestore_credentials_base64"`

	// Categories is the fixed category list of the unified board.
	Categories []string `koanf:"categories"`

	// DiscoverCategories adds categories found in the store to the unified board.
	DiscoverCategories bool `koanf:"discover_categories"`

	// UnifiedEnabled serves the merged board on GET /leaderboard.
	UnifiedEnabled bool `koanf:"unified_enabled"`

	// TopN is the leaderboard size.
	TopN int `koanf:"top_n"`

	// StorageTimeoutMS bounds every storage call.
	StorageTimeoutMS int `koanf:"storage_timeout_ms"`

	// FanoutLimit caps concurrent category reads of the unified board.
	FanoutLimit int `koanf:"fanout_limit"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:           "info",
		LogFormat:          "text",
		Addr:               ":9080",
		Backend:            BackendMemory,
		Categories:         []string{"easy", "medium", "hard"},
		DiscoverCategories: true,
		UnifiedEnabled:     true,
		TopN:               10,
		StorageTimeoutMS:   2000,
		FanoutLimit:        8,
	}
}

// StorageTimeout returns StorageTimeoutMS as a duration.
func (c *Config) StorageTimeout() time.Duration {
	return time.Duration(c.StorageTimeoutMS) * time.Millisecond
}
