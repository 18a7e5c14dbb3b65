package db

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/ukydev/garage-ops/internal/config"
)

// Open connects to the backend selected by cfg.StorageBackend and returns the
// garage store together with the user collection living next to it.
func Open(ctx context.Context, cfg *config.Config) (GarageStore, UserCollection, error) {
	switch cfg.StorageBackend {
	case "mongo":
		client, err := ConnectMongo(ctx, cfg.MongoURI)
		if err != nil {
			return nil, nil, err
		}
		database := client.Database(cfg.MongoDB)
		log.WithFields(log.Fields{"backend": "mongo", "database": cfg.MongoDB}).Info("Connected to storage")
		return NewMongoStore(client, database), &MongoUserCollection{Collection: database.Collection("users")}, nil
	case "sqlite":
		store, err := NewSQLiteStore(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		log.WithFields(log.Fields{"backend": "sqlite", "path": cfg.SQLitePath}).Info("Connected to storage")
		return store, store.Users(), nil
	default:
		return nil, nil, fmt.Errorf("unsupported storage backend %q", cfg.StorageBackend)
	}
}
