package storage

import (
	"context"
	"fmt"
	"os"

	"github.com/JamesPrial/kencana-farm/internal/config"
	"github.com/JamesPrial/kencana-farm/internal/pathutil"
)

const (
	defaultJSONFile   = "kencana.json"
	defaultSQLiteFile = "kencana.db"
)

// NewBackend returns the storage backend selected by cfg.
//
// File-based backends live inside cfg.DataDir, which is created if missing.
// Custom file paths are resolved with pathutil.ResolveSafePath and rejected
// when they escape the data directory.
func NewBackend(ctx context.Context, cfg config.Storage) (Backend, error) {
	switch cfg.Backend {
	case config.BackendJSON, "":
		path, err := filePath(cfg.DataDir, cfg.JSONPath, defaultJSONFile)
		if err != nil {
			return nil, fmt.Errorf("invalid KENCANA_JSON_PATH: %w", err)
		}
		return NewJSONBackend(path), nil

	case config.BackendSQLite:
		path, err := filePath(cfg.DataDir, cfg.SQLitePath, defaultSQLiteFile)
		if err != nil {
			return nil, fmt.Errorf("invalid KENCANA_SQLITE_PATH: %w", err)
		}
		return NewSQLiteBackend(path)

	case config.BackendPostgres:
		if cfg.PostgresURL == "" {
			return nil, fmt.Errorf("postgres backend requires a connection string")
		}
		return NewPostgresBackend(ctx, cfg.PostgresURL)

	case config.BackendNATS:
		return NewNATSBackend(ctx, cfg.NATSURL, cfg.NATSBucket)

	case config.BackendMemory:
		return NewMemoryBackend(), nil

	default:
		return nil, fmt.Errorf("unknown storage backend: %q. Expected one of json, sqlite, postgres, nats, memory", cfg.Backend)
	}
}

// filePath resolves custom (or def when custom is empty) inside dataDir.
func filePath(dataDir, custom, def string) (string, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}
	if custom == "" {
		custom = def
	}
	return pathutil.ResolveSafePath(dataDir, custom)
}
