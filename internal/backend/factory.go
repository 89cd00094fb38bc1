package backend

import (
	"context"
	"fmt"
	"log/slog"

	"spendsight/internal/storage"
	"spendsight/internal/storage/memory"
	"spendsight/internal/storage/postgres"
	"spendsight/internal/storage/sqlite"
)

// Open constructs the store the config names. The memory backend comes
// pre-seeded with the demo data set so the app is usable without a database.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (storage.Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Type {
	case PostgresBackend:
		store, err := postgres.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("initialize postgres backend: %w", err)
		}
		logger.Info("initialized postgres backend")
		return store, nil

	case SQLiteBackend:
		store, err := sqlite.New(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("initialize sqlite backend: %w", err)
		}
		logger.Info("initialized sqlite backend", "db_path", cfg.SQLitePath)
		return store, nil

	case MemoryBackend:
		store := memory.New()
		if err := store.Seed(ctx); err != nil {
			return nil, fmt.Errorf("seed memory backend: %w", err)
		}
		logger.Info("initialized memory backend with demo data")
		return store, nil

	default:
		return nil, fmt.Errorf("unsupported backend type: %s", cfg.Type)
	}
}
