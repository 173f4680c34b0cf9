// Package store holds the catalog backends: PostgreSQL, MongoDB and an
// embedded Badger database. All of them implement book.Store.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"librarycatalog/internal/book"
	"librarycatalog/internal/config"
	"librarycatalog/internal/entity"
)

const pingTimeout = 2 * time.Second

// Catalog is a book.Store that can also seed copies and report readiness.
type Catalog interface {
	book.Store
	CreateInstance(ctx context.Context, inst *entity.BookInstance) error
	Ping(ctx context.Context) error
	Close() error
}

var (
	_ Catalog = (*CatalogPG)(nil)
	_ Catalog = (*CatalogMongo)(nil)
	_ Catalog = (*CatalogBadger)(nil)
)

// Open connects the backend selected by cfg.StoreDriver and checks that it
// answers.
func Open(ctx context.Context, cfg config.Config, logger *slog.Logger) (Catalog, error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		pool, err := pgxpool.New(ctx, cfg.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("create db pool: %w", err)
		}
		if err := ping(ctx, pool.Ping); err != nil {
			pool.Close()
			return nil, fmt.Errorf("ping database (%s): %w", RedactDSN(cfg.DatabaseDSN), err)
		}
		logger.Info("database connection OK", "driver", cfg.StoreDriver)
		return NewCatalogPG(pool, cfg.DBTimeout), nil

	case config.DriverMongo:
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			return nil, fmt.Errorf("connect mongo: %w", err)
		}
		catalog := NewCatalogMongo(client.Database(cfg.MongoDB), cfg.DBTimeout)
		if err := ping(ctx, catalog.Ping); err != nil {
			_ = catalog.Close()
			return nil, fmt.Errorf("ping mongo (%s): %w", RedactDSN(cfg.MongoURI), err)
		}
		if err := catalog.EnsureIndexes(ctx); err != nil {
			_ = catalog.Close()
			return nil, err
		}
		logger.Info("database connection OK", "driver", cfg.StoreDriver, "database", cfg.MongoDB)
		return catalog, nil

	case config.DriverBadger:
		return OpenCatalogBadger(cfg.BadgerPath, logger)

	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.StoreDriver)
	}
}

func ping(ctx context.Context, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return fn(ctx)
}

// RedactDSN hides the credentials of a connection string.
func RedactDSN(dsn string) string {
	const marker = "://"
	start := strings.Index(dsn, marker)
	if start < 0 {
		return dsn
	}
	start += len(marker)
	end := strings.Index(dsn[start:], "@")
	if end < 0 {
		return dsn
	}
	return dsn[:start] + "***" + dsn[start+end:]
}
