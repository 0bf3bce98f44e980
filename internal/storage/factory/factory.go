// Package factory opens the OrderStore selected by configuration.
package factory

import (
	"context"
	"fmt"

	"github.com/orderdesk/orderdesk/internal/storage"
	"github.com/orderdesk/orderdesk/internal/storage/config"
	"github.com/orderdesk/orderdesk/internal/storage/memory"
	"github.com/orderdesk/orderdesk/internal/storage/mongo"
	"github.com/orderdesk/orderdesk/pkg/model"
)

// Open builds the configured store. When the mongo backend has
// ensure_indexes set, the declared indexes are created before returning.
func Open(ctx context.Context, cfg config.Config) (storage.OrderStore, error) {
	fields, err := cfg.IndexedFields()
	if err != nil {
		return nil, err
	}

	switch cfg.Backend {
	case config.BackendMemory:
		return memory.New(fields...), nil
	case config.BackendMongo:
		dialCtx, cancel := context.WithTimeout(ctx, cfg.Mongo.ConnectTimeout)
		defer cancel()

		store, err := mongo.Connect(dialCtx, cfg.Mongo.URI, cfg.Mongo.DatabaseName, mongoOptions(cfg.Mongo, fields))
		if err != nil {
			return nil, fmt.Errorf("connect to mongo: %w", err)
		}
		if cfg.Mongo.EnsureIndexes {
			if err := store.EnsureIndexes(dialCtx); err != nil {
				_ = store.Close(ctx)
				return nil, fmt.Errorf("ensure indexes: %w", err)
			}
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported storage backend %q", cfg.Backend)
	}
}

func mongoOptions(cfg config.MongoConfig, fields []model.Field) mongo.Options {
	return mongo.Options{
		Collection:   cfg.Collection,
		Indexes:      fields,
		Transactions: cfg.Transactional(),
	}
}
