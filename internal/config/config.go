// Package config loads kencana-farm configuration from the environment.
//
// Every setting is an environment variable; a .env file in the working
// directory (or the files passed to Load) is read first without overriding
// variables that are already set.
//
// Environment variables:
//   - KENCANA_STORAGE_BACKEND: "json" (default), "sqlite", "postgres", "nats" or "memory"
//   - KENCANA_DATA_DIR: data directory (default: ~/.kencana)
//   - KENCANA_JSON_PATH: JSON document path, relative to or inside the data directory
//   - KENCANA_SQLITE_PATH: SQLite database path, relative to or inside the data directory
//   - KENCANA_POSTGRES_URL: PostgreSQL connection string (required for "postgres")
//   - KENCANA_NATS_URL: NATS server URL (default: nats://127.0.0.1:4222)
//   - KENCANA_NATS_BUCKET: JetStream KV bucket (default: kencana)
//   - KENCANA_LOG_LEVEL: debug, info (default), warn or error
//   - KENCANA_LOG_FORMAT: "console" (default) or "json"
//   - KENCANA_METRICS_ADDR: listen address for the Prometheus endpoint (disabled when empty)
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// Backend names accepted in KENCANA_STORAGE_BACKEND.
const (
	BackendJSON     = "json"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendNATS     = "nats"
	BackendMemory   = "memory"
)

const (
	defaultNATSURL    = "nats://127.0.0.1:4222"
	defaultNATSBucket = "kencana"
	defaultLogLevel   = "info"
	defaultLogFormat  = "console"
)

// Config is the complete runtime configuration.
type Config struct {
	Storage     Storage
	Log         Log
	MetricsAddr string
}

// Storage selects and parameterizes the durable storage backend.
type Storage struct {
	Backend     string
	DataDir     string
	JSONPath    string // empty means <DataDir>/kencana.json
	SQLitePath  string // empty means <DataDir>/kencana.db
	PostgresURL string
	NATSURL     string
	NATSBucket  string
}

// Log configures the zap logger.
type Log struct {
	Level  string
	Format string
}

// Load reads .env files (default: ".env") and the environment, applies
// defaults and validates the result.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}

	cfg := &Config{
		Storage: Storage{
			Backend:     strings.ToLower(env("KENCANA_STORAGE_BACKEND", BackendJSON)),
			DataDir:     env("KENCANA_DATA_DIR", defaultDataDir()),
			JSONPath:    env("KENCANA_JSON_PATH", ""),
			SQLitePath:  env("KENCANA_SQLITE_PATH", ""),
			PostgresURL: env("KENCANA_POSTGRES_URL", ""),
			NATSURL:     env("KENCANA_NATS_URL", defaultNATSURL),
			NATSBucket:  env("KENCANA_NATS_BUCKET", defaultNATSBucket),
		},
		Log: Log{
			Level:  strings.ToLower(env("KENCANA_LOG_LEVEL", defaultLogLevel)),
			Format: strings.ToLower(env("KENCANA_LOG_FORMAT", defaultLogFormat)),
		},
		MetricsAddr: env("KENCANA_METRICS_ADDR", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendJSON, BackendSQLite, BackendNATS, BackendMemory:
	case BackendPostgres:
		if c.Storage.PostgresURL == "" {
			return fmt.Errorf("KENCANA_POSTGRES_URL is required for the postgres backend")
		}
	default:
		return fmt.Errorf("unknown storage backend: %q. Expected one of json, sqlite, postgres, nats, memory", c.Storage.Backend)
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q", c.Log.Level)
	}

	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("invalid log format %q. Expected 'console' or 'json'", c.Log.Format)
	}

	return nil
}

// env returns the trimmed value of key, or def when unset or blank.
func env(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".kencana")
	}
	return filepath.Join(home, ".kencana")
}
