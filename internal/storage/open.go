package storage

import (
	"context"
	"fmt"
	"log/slog"
)

// Drivers.
const (
	DriverBadger   = "badger"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Open connects the configured backend and verifies it with Ping.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (DocumentStore, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var (
		store DocumentStore
		err   error
	)
	switch cfg.Driver {
	case DriverBadger, "":
		badgerCfg := cfg.Badger
		if badgerCfg == (BadgerConfig{}) {
			badgerCfg = DefaultBadgerConfig()
		}
		store, err = NewBadgerStore(cfg.Dir, badgerCfg, logger)
	case DriverPostgres:
		store, err = NewPostgresStore(ctx, PostgresConfig{
			DSN:          cfg.DSN,
			MaxOpenConns: cfg.MaxOpenConns,
			AutoMigrate:  cfg.AutoMigrate,
		}, logger)
	case DriverMemory:
		store = NewMemoryStore()
	default:
		return nil, fmt.Errorf("storage: unknown driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	if err := store.Ping(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("storage: ping %s: %w", cfg.Driver, err)
	}

	logger.Info("document store connected", "driver", cfg.Driver)
	return store, nil
}
