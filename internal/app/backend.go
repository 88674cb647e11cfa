// Package app wires the configured storage backend into a store.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"atlasinvoice/internal/config"
	"atlasinvoice/internal/db"
	"atlasinvoice/internal/docstore"
	"atlasinvoice/internal/repository"
	"atlasinvoice/internal/store"
)

// OpenStore builds the backend selected by cfg.StoreBackend and loads the
// persisted months. The returned close func releases the backend.
func OpenStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (*store.Store, func(), error) {
	backend, closeBackend, err := openBackend(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	st, err := store.Open(ctx, backend, logger)
	if err != nil {
		closeBackend()
		return nil, nil, err
	}
	logger.Info("store opened", slog.String("backend", backend.Name()))
	return st, closeBackend, nil
}

func openBackend(ctx context.Context, cfg config.Config) (store.Backend, func(), error) {
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		pool, err := db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("database error: %w", err)
		}
		if err := db.RunMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("migration error: %w", err)
		}
		return repository.New(pool), pool.Close, nil

	case config.BackendFirestore:
		backend, err := docstore.Open(ctx, docstore.Config{
			ProjectID:       cfg.FirestoreProjectID,
			Collection:      cfg.FirestoreCollection,
			Document:        cfg.FirestoreDocument,
			CredentialsFile: cfg.CredentialsFile,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("firestore error: %w", err)
		}
		return backend, func() { _ = backend.Close() }, nil

	case config.BackendFile, "":
		return store.NewFileBackend(cfg.DataFile), func() {}, nil

	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}
