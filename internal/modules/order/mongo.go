package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/georgemunganga/storefront-api/internal/apperr"
	"github.com/georgemunganga/storefront-api/internal/mongox"
	"github.com/georgemunganga/storefront-api/internal/pagination"
)

// OrdersCollection is the collection name used by the mongo stores.
const OrdersCollection = "orders"

type itemDocument struct {
	ProductID string `bson:"productid"`
	Qty       int    `bson:"qty"`
}

type addressDocument struct {
	UserID  string `bson:"user_id"`
	Street  string `bson:"street,omitempty"`
	City    string `bson:"city,omitempty"`
	State   string `bson:"state,omitempty"`
	Zip     string `bson:"zip,omitempty"`
	Country string `bson:"country,omitempty"`
}

// orderDocument is the stored shape as read back; an ObjectID _id decodes to
// its hex form.
type orderDocument struct {
	ID          string               `bson:"_id"`
	Items       []itemDocument       `bson:"items"`
	TotalAmount primitive.Decimal128 `bson:"total_amount"`
	UserAddress addressDocument      `bson:"user_address"`
	CreatedAt   time.Time            `bson:"created_at"`
}

// newOrderDocument is the shape written by InsertMongo. ID is an ObjectID
// unless the caller supplied a non-hex id.
type newOrderDocument struct {
	ID          interface{}          `bson:"_id"`
	Items       []itemDocument       `bson:"items"`
	TotalAmount primitive.Decimal128 `bson:"total_amount"`
	UserAddress addressDocument      `bson:"user_address"`
	CreatedAt   time.Time            `bson:"created_at"`
}

func (d *orderDocument) toOrder() (*Order, error) {
	total, err := decimal.NewFromString(d.TotalAmount.String())
	if err != nil {
		return nil, fmt.Errorf("decode total of order %s: %w", d.ID, err)
	}
	o := &Order{
		ID:          d.ID,
		Items:       make([]Item, len(d.Items)),
		TotalAmount: total,
		UserAddress: Address(d.UserAddress),
		CreatedAt:   d.CreatedAt,
	}
	for i, it := range d.Items {
		o.Items[i] = Item(it)
	}
	return o, nil
}

// InsertMongo writes o into coll, assigning ID and CreatedAt when unset. Pass
// a session context to make the insert part of a transaction.
func InsertMongo(ctx context.Context, coll *mongo.Collection, o *Order) error {
	total, err := primitive.ParseDecimal128(o.TotalAmount.String())
	if err != nil {
		return fmt.Errorf("%w: total_amount %s", apperr.ErrInvalidInput, o.TotalAmount)
	}
	var id interface{}
	if o.ID == "" {
		id, o.ID = mongox.NewID()
	} else if oid, err := primitive.ObjectIDFromHex(o.ID); err == nil {
		id = oid
	} else {
		id = o.ID
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now().UTC()
	}
	doc := newOrderDocument{
		ID:          id,
		Items:       make([]itemDocument, len(o.Items)),
		TotalAmount: total,
		UserAddress: addressDocument(o.UserAddress),
		CreatedAt:   o.CreatedAt,
	}
	for i, it := range o.Items {
		doc.Items[i] = itemDocument(it)
	}
	if _, err := coll.InsertOne(ctx, doc); err != nil {
		return apperr.Unavailable(fmt.Errorf("insert order: %w", err))
	}
	return nil
}

type mongoRepo struct{ coll *mongo.Collection }

func NewMongoRepository(db *mongo.Database) Repository {
	return &mongoRepo{coll: db.Collection(OrdersCollection)}
}

// EnsureOrderIndexes creates the per-user listing index.
func EnsureOrderIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(OrdersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_address.user_id", Value: 1}, {Key: "_id", Value: 1}},
	})
	return err
}

func (r *mongoRepo) Create(ctx context.Context, o *Order) error {
	return InsertMongo(ctx, r.coll, o)
}

func (r *mongoRepo) GetByID(ctx context.Context, id string) (*Order, error) {
	var doc orderDocument
	err := r.coll.FindOne(ctx, bson.M{"_id": mongox.MatchID(id)}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: %s", apperr.ErrOrderNotFound, id)
	}
	if err != nil {
		return nil, apperr.Unavailable(err)
	}
	return doc.toOrder()
}

func (r *mongoRepo) ListByUser(ctx context.Context, userID string, p pagination.Params) ([]*Order, bool, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetSkip(int64(p.Offset)).
		SetLimit(int64(p.Fetch()))
	cur, err := r.coll.Find(ctx, bson.M{"user_address.user_id": userID}, opts)
	if err != nil {
		return nil, false, apperr.Unavailable(err)
	}
	var docs []orderDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, false, apperr.Unavailable(err)
	}
	orders := make([]*Order, 0, len(docs))
	for i := range docs {
		o, err := docs[i].toOrder()
		if err != nil {
			return nil, false, err
		}
		orders = append(orders, o)
	}
	page, more := pagination.Trim(orders, p)
	return page, more, nil
}
