package inventory

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/georgemunganga/storefront-api/internal/apperr"
	"github.com/georgemunganga/storefront-api/internal/modules/catalog"
	"github.com/georgemunganga/storefront-api/internal/modules/order"
	"github.com/georgemunganga/storefront-api/internal/mongox"
)

// ---- Memory ----

type memoryCommitter struct {
	products *catalog.MemoryRepository
	orders   *order.MemoryRepository
}

// NewMemoryCommitter commits against the in-process stores. The order insert
// runs under the catalog lock after the version checks pass.
func NewMemoryCommitter(products *catalog.MemoryRepository, orders *order.MemoryRepository) Committer {
	return &memoryCommitter{products: products, orders: orders}
}

func (c *memoryCommitter) Commit(ctx context.Context, updates []catalog.SizeUpdate, o *order.Order) error {
	return c.products.UpdateSizesIf(ctx, updates, func() error {
		return c.orders.Create(ctx, o)
	})
}

// ---- Postgres ----

type postgresCommitter struct{ db *sql.DB }

// NewPostgresCommitter commits inside one transaction: a version-guarded
// UPDATE per product, then the order INSERT.
func NewPostgresCommitter(db *sql.DB) Committer { return &postgresCommitter{db: db} }

func (c *postgresCommitter) Commit(ctx context.Context, updates []catalog.SizeUpdate, o *order.Order) (err error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return apperr.Unavailable(fmt.Errorf("begin tx: %w", err))
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, u := range updates {
		sizes, err := json.Marshal(u.Sizes)
		if err != nil {
			return fmt.Errorf("encode sizes: %w", err)
		}
		res, err := tx.ExecContext(ctx, `
			UPDATE products SET sizes = $1, version = version + 1
			WHERE id = $2 AND version = $3`,
			sizes, u.ProductID, u.ExpectedVersion)
		if err != nil {
			return txError(fmt.Errorf("update product %s: %w", u.ProductID, err))
		}
		n, err := res.RowsAffected()
		if err != nil {
			return apperr.Unavailable(err)
		}
		if n == 0 {
			return fmt.Errorf("%w: product %s changed since it was read", apperr.ErrConflict, u.ProductID)
		}
	}

	if err := order.InsertPostgres(ctx, tx, o); err != nil {
		return txError(err)
	}
	if err := tx.Commit(); err != nil {
		return txError(fmt.Errorf("commit tx: %w", err))
	}
	return nil
}

// Postgres aborts one side of a deadlock or serialization failure; either
// way the loser raced a concurrent commit.
const (
	pqDeadlockDetected     = "40P01"
	pqSerializationFailure = "40001"
)

// txError classifies an error raised inside the commit transaction.
func txError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqDeadlockDetected, pqSerializationFailure:
			return fmt.Errorf("%w: %s", apperr.ErrConflict, pqErr.Message)
		}
	}
	if errors.Is(err, apperr.ErrStoreUnavailable) {
		return err
	}
	return apperr.Unavailable(err)
}

// ---- Mongo ----

type mongoCommitter struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewMongoCommitter commits inside a multi-document transaction, which
// requires the server to run as a replica set.
func NewMongoCommitter(client *mongo.Client, db *mongo.Database) Committer {
	return &mongoCommitter{client: client, db: db}
}

func (c *mongoCommitter) Commit(ctx context.Context, updates []catalog.SizeUpdate, o *order.Order) error {
	sess, err := c.client.StartSession()
	if err != nil {
		return apperr.Unavailable(fmt.Errorf("start session: %w", err))
	}
	defer sess.EndSession(ctx)

	products := c.db.Collection(catalog.ProductsCollection)
	orders := c.db.Collection(order.OrdersCollection)
	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, applyCommit(sc, products, orders, updates, o)
	})
	return mongoError(err)
}

// applyCommit runs the version-guarded size updates and the order insert. It
// is meant to run inside a transaction.
func applyCommit(ctx context.Context, products, orders *mongo.Collection, updates []catalog.SizeUpdate, o *order.Order) error {
	for _, u := range updates {
		res, err := products.UpdateOne(ctx, versionFilter(u), bson.M{
			"$set":   bson.M{"sizes": catalog.SizeDocuments(u.Sizes)},
			"$inc":   bson.M{"version": 1},
			"$unset": bson.M{"size": "", "inventory_count": ""},
		})
		if err != nil {
			return err
		}
		if res.MatchedCount == 0 {
			return fmt.Errorf("%w: product %s changed since it was read", apperr.ErrConflict, u.ProductID)
		}
	}
	return order.InsertMongo(ctx, orders, o)
}

// mongoWriteConflict is the server code for a write that lost to a
// concurrent transaction.
const mongoWriteConflict = 112

// mongoError keeps classified errors, reports write conflicts as
// apperr.ErrConflict and anything else as an outage.
func mongoError(err error) error {
	if err == nil {
		return nil
	}
	var se mongo.ServerError
	if errors.As(err, &se) && se.HasErrorCode(mongoWriteConflict) {
		return fmt.Errorf("%w: %v", apperr.ErrConflict, err)
	}
	for _, known := range []error{apperr.ErrConflict, apperr.ErrInvalidInput, apperr.ErrStoreUnavailable} {
		if errors.Is(err, known) {
			return err
		}
	}
	return apperr.Unavailable(err)
}

// versionFilter matches the product at the expected version. Documents
// written before versioning carry no version field and count as version 0.
func versionFilter(u catalog.SizeUpdate) bson.M {
	if u.ExpectedVersion == 0 {
		return bson.M{"_id": mongox.MatchID(u.ProductID), "version": bson.M{"$in": bson.A{0, nil}}}
	}
	return bson.M{"_id": mongox.MatchID(u.ProductID), "version": u.ExpectedVersion}
}
