package main

import (
	"context"
	"fmt"

	"github.com/okian/podium/internal/adapters/repository"
	"github.com/okian/podium/internal/adapters/repository/firestore"
	"github.com/okian/podium/internal/adapters/repository/sqlstore"
	"github.com/okian/podium/internal/config"
	"github.com/okian/podium/pkg/logger"
)

// openStore builds the configured backend wrapped in metrics, tracing and
// the per-call timeout. Missing backend settings are an error.
func openStore(ctx context.Context, cfg *config.Config, log logger.Logger) (repository.Store, error) {
	var (
		base repository.Store
		err  error
	)
	switch cfg.Backend {
	case config.BackendMemory:
		base = repository.NewTreapStore()
	case config.BackendPostgres:
		base, err = sqlstore.Open(ctx, sqlstore.DriverPostgres, cfg.DSN)
	case config.BackendSQLite:
		base, err = sqlstore.Open(ctx, sqlstore.DriverSQLite, cfg.DSN)
	case config.BackendFirestore:
		base, err = firestore.Open(ctx,
			firestore.WithProjectID(cfg.FirestoreProject),
			firestore.WithCredentialsBase64(cfg.FirestoreCredentialsBase64),
		)
	default:
		return nil, fmt.Errorf("%w: unknown backend %q", config.ErrInvalidConfig, cfg.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Backend, err)
	}

	log.Info(ctx, "store opened", logger.String("backend", cfg.Backend), logger.Duration("timeout", cfg.StorageTimeout()))
	return repository.Chain(base,
		repository.MetricsMiddleware(cfg.Backend),
		repository.TracingMiddleware(cfg.Backend),
		repository.TimeoutMiddleware(cfg.StorageTimeout()),
	), nil
}
