package storage

import (
	"context"
	"fmt"

	"raphael-assistant/internal/common/config"
	"raphael-assistant/internal/common/database"
	"raphael-assistant/internal/common/logger"
	"raphael-assistant/internal/models"
)

// Backend is an opened Store together with the connections it owns.
type Backend struct {
	Store   Store
	Health  map[string]database.Pinger
	closers []func() error
}

// Close releases every connection opened by Open.
func (b *Backend) Close() error {
	var firstErr error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Collections lists every collection the repository writes to.
var Collections = []string{
	models.CollectionConversations,
	models.CollectionMemories,
	models.CollectionTasks,
	models.CollectionTransactions,
}

// Open builds the configured backend, optionally behind the Redis cache.
func Open(ctx context.Context, cfg *config.Config, log logger.Logger) (*Backend, error) {
	b := &Backend{Health: map[string]database.Pinger{}}

	switch cfg.Storage.Backend {
	case config.StorageBackendMemory, "":
		b.Store = NewMemoryStore()

	case config.StorageBackendPostgres:
		pg, err := database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, pg.Close)

		migrateCtx, cancel := context.WithTimeout(ctx, config.GetDuration(cfg.Storage.QueryTimeout))
		defer cancel()
		if err := pg.Migrate(migrateCtx); err != nil {
			_ = b.Close()
			return nil, err
		}
		b.Store = NewPostgresStore(pg)
		b.Health["postgres"] = pg

	case config.StorageBackendElasticsearch:
		es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return nil, err
		}
		indexCtx, cancel := context.WithTimeout(ctx, config.GetDuration(cfg.Storage.QueryTimeout))
		defer cancel()
		for _, collection := range Collections {
			if err := es.EnsureIndex(indexCtx, collection); err != nil {
				return nil, err
			}
		}
		b.Store = NewElasticsearchStore(es)
		b.Health["elasticsearch"] = es

	default:
		return nil, fmt.Errorf("unsupported storage backend %q", cfg.Storage.Backend)
	}

	if cfg.Storage.CacheEnabled {
		rdb := database.NewRedis(cfg.Database.Redis)
		b.closers = append(b.closers, rdb.Close)
		b.Store = NewCachedStore(b.Store, rdb.Cmdable(), config.GetDuration(cfg.Storage.CacheTTL), log)
		b.Health["redis"] = rdb
	}

	log.Info("storage backend ready", map[string]interface{}{
		"backend": cfg.Storage.Backend,
		"cache":   cfg.Storage.CacheEnabled,
	})
	return b, nil
}
