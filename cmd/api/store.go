package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/geocoder89/promohub/internal/config"
	"github.com/geocoder89/promohub/internal/db"
	"github.com/geocoder89/promohub/internal/repo"
	"github.com/geocoder89/promohub/internal/repo/memory"
	"github.com/geocoder89/promohub/internal/repo/mongodb"
	"github.com/geocoder89/promohub/internal/repo/postgres"
)

// openStore connects the backend named by STORE_DRIVER and prepares its
// schema (indexes or migrations).
func openStore(ctx context.Context, cfg config.Config, log *slog.Logger) (*repo.Store, error) {
	switch cfg.StoreDriver {
	case config.DriverMongo:
		client, database, err := db.ConnectMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}

		if err := mongodb.EnsureIndexes(ctx, database); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, fmt.Errorf("ensure indexes: %w", err)
		}

		log.Info("store connected", "driver", cfg.StoreDriver, "database", database.Name())

		return mongodb.NewStore(client, database), nil

	case config.DriverPostgres:
		if err := db.RunMigrations(cfg.DatabaseURL); err != nil {
			return nil, err
		}

		pool, err := db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}

		log.Info("store connected", "driver", cfg.StoreDriver)

		return postgres.NewStore(pool), nil

	case config.DriverMemory:
		log.Warn("using in-memory store; data is lost on restart")

		return memory.NewStore(), nil
	}

	return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}
