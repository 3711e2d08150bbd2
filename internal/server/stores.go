package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/lib/pq"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"github.com/georgemunganga/storefront-api/internal/config"
	"github.com/georgemunganga/storefront-api/internal/health"
	"github.com/georgemunganga/storefront-api/internal/modules/catalog"
	"github.com/georgemunganga/storefront-api/internal/modules/inventory"
	"github.com/georgemunganga/storefront-api/internal/modules/order"
)

// Stores bundles the storage backends selected by STORE_DRIVER. Check probes
// the primary store and is nil for the in-process store.
type Stores struct {
	Products  catalog.Repository
	Orders    order.Repository
	Committer inventory.Committer
	Check     *health.Check
	Close     func(ctx context.Context) error
}

// NewMemoryStores returns in-process stores sharing one commit lock.
func NewMemoryStores() *Stores {
	products := catalog.NewMemoryRepository()
	orders := order.NewMemoryRepository()
	return &Stores{
		Products:  products,
		Orders:    orders,
		Committer: inventory.NewMemoryCommitter(products, orders),
		Close:     func(context.Context) error { return nil },
	}
}

// OpenStores connects to the configured backend.
func OpenStores(ctx context.Context, cfg config.Config, logger *zap.Logger) (*Stores, error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		return openPostgres(ctx, cfg, logger)
	case config.DriverMongo:
		return openMongo(ctx, cfg, logger)
	case config.DriverMemory:
		logger.Warn("using in-memory store; data is lost on restart")
		return NewMemoryStores(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

func openPostgres(ctx context.Context, cfg config.Config, logger *zap.Logger) (*Stores, error) {
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	logger.Info("connected to postgres")
	return &Stores{
		Products:  catalog.NewPostgresRepository(db),
		Orders:    order.NewPostgresRepository(db),
		Committer: inventory.NewPostgresCommitter(db),
		Check:     &health.Check{Name: health.DatabaseCheck, Probe: db.PingContext},
		Close:     func(context.Context) error { return db.Close() },
	}, nil
}

func openMongo(ctx context.Context, cfg config.Config, logger *zap.Logger) (*Stores, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURL))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	db := client.Database(cfg.MongoDatabase)
	if err := errors.Join(
		catalog.EnsureProductIndexes(ctx, db),
		order.EnsureOrderIndexes(ctx, db),
	); err != nil {
		logger.Warn("mongo index creation failed", zap.Error(err))
	}
	logger.Info("connected to mongo", zap.String("database", cfg.MongoDatabase))
	return &Stores{
		Products:  catalog.NewMongoRepository(db),
		Orders:    order.NewMongoRepository(db),
		Committer: inventory.NewMongoCommitter(client, db),
		Check: &health.Check{Name: health.DatabaseCheck, Probe: func(ctx context.Context) error {
			return client.Ping(ctx, readpref.Primary())
		}},
		Close: client.Disconnect,
	}, nil
}
