package main

import (
	"context"
	"fmt"

	"github.com/fjod/gogift/internal/checkout"
	"github.com/fjod/gogift/internal/store"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

var keepMarkers = store.WithPersistentPrefix(checkout.ProcessedKeyPrefix)

// openStore builds the key-value backend named by cfg.StoreDriver. The returned
// func releases its connections.
func openStore(ctx context.Context, cfg *Config, redisClient *redis.Client, log logrus.FieldLogger) (store.KeyValueStore, func(), error) {
	switch cfg.StoreDriver {
	case "memory":
		return store.NewMemory(), func() {}, nil

	case "redis":
		if redisClient == nil {
			return nil, nil, fmt.Errorf("redis store requested but no redis client configured")
		}
		return store.NewRedis(redisClient, cfg.StoreTTL, keepMarkers), func() {}, nil

	case "mongo":
		db, err := store.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName)
		if err != nil {
			return nil, nil, err
		}
		kv := store.NewMongo(db, keepMarkers)
		if err := kv.CreateIndexes(ctx); err != nil {
			log.WithError(err).Warn("failed to create mongo indexes")
		}
		return kv, func() { _ = db.Client().Disconnect(context.Background()) }, nil

	case "postgres":
		kv, err := store.NewPostgres(&cfg.Postgres)
		if err != nil {
			return nil, nil, err
		}
		if err := kv.RunMigrations(); err != nil {
			_ = kv.Close()
			return nil, nil, err
		}
		return kv, func() { _ = kv.Close() }, nil

	case "sqlite":
		kv, err := store.NewSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		if err := kv.RunMigrations(); err != nil {
			_ = kv.Close()
			return nil, nil, err
		}
		return kv, func() { _ = kv.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}
