package app

import (
	"context"
	"fmt"

	"backoffice/internal/cache"
	"backoffice/internal/config"
	"backoffice/internal/core"
	"backoffice/internal/db"
	"backoffice/internal/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Runtime holds the connections an entry point opened and the service built on them.
type Runtime struct {
	Pool    *pgxpool.Pool
	Cache   cache.InventoryCache
	Service ApplicationService
}

// Open connects to PostgreSQL and, when enabled, Redis, then wires the
// application service from cfg. Callers must Close the runtime.
func Open(ctx context.Context, cfg *config.Config) (*Runtime, error) {
	policy, err := core.ParseOverReceiptPolicy(cfg.Purchasing.OverReceiptPolicy)
	if err != nil {
		return nil, err
	}

	pool, err := db.NewPool(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}

	inventoryCache, err := cache.NewInventoryCache(cfg.Cache)
	if err != nil {
		// The cache is an accelerator; the back office works without it.
		logger.Log.Warn().Err(err).Msg("inventory cache unavailable, continuing without it")
		inventoryCache = cache.NewNoopInventoryCache()
	}

	svc := NewServices(pool, policy, cfg.Invoicing.DueDays, core.SystemClock{})
	return &Runtime{
		Pool:    pool,
		Cache:   inventoryCache,
		Service: NewAppService(svc, inventoryCache),
	}, nil
}

// Close releases the cache client and the database pool.
func (r *Runtime) Close() {
	if err := r.Cache.Close(); err != nil {
		logger.Log.Warn().Err(err).Msg("failed to close inventory cache")
	}
	r.Pool.Close()
}
