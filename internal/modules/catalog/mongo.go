package catalog

import (
	"context"
	"errors"
	"fmt"
	"regexp"
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

// ProductsCollection is the collection name used by the mongo stores.
const ProductsCollection = "products"

type sizeDocument struct {
	Size     string `bson:"size"`
	Quantity int    `bson:"quantity"`
}

// productDocument is the stored shape as read back. _id may be an ObjectID or
// a string; both decode to the hex/string form. Size/InventoryCount belong to
// the legacy single-size layout and are only ever read.
type productDocument struct {
	ID             string               `bson:"_id"`
	Name           string               `bson:"name"`
	Price          primitive.Decimal128 `bson:"price"`
	Sizes          []sizeDocument       `bson:"sizes"`
	Size           string               `bson:"size,omitempty"`
	InventoryCount int                  `bson:"inventory_count,omitempty"`
	Version        int64                `bson:"version"`
	CreatedAt      time.Time            `bson:"created_at"`
}

// newProductDocument is the shape written by Create.
type newProductDocument struct {
	ID        primitive.ObjectID   `bson:"_id"`
	Name      string               `bson:"name"`
	Price     primitive.Decimal128 `bson:"price"`
	Sizes     []sizeDocument       `bson:"sizes"`
	Version   int64                `bson:"version"`
	CreatedAt time.Time            `bson:"created_at"`
}

func (d *productDocument) toProduct() (*Product, error) {
	price, err := decimal.NewFromString(d.Price.String())
	if err != nil {
		return nil, fmt.Errorf("decode price of product %s: %w", d.ID, err)
	}
	p := &Product{ID: d.ID, Name: d.Name, Price: price, Version: d.Version, CreatedAt: d.CreatedAt}
	switch {
	case d.Sizes != nil:
		p.Sizes = make([]Size, len(d.Sizes))
		for i, s := range d.Sizes {
			p.Sizes[i] = Size{Size: s.Size, Quantity: s.Quantity}
		}
	case d.Size != "":
		p.Sizes = []Size{{Size: d.Size, Quantity: d.InventoryCount}}
	default:
		p.Sizes = []Size{}
	}
	return p, nil
}

// SizeDocuments converts sizes to their stored form.
func SizeDocuments(sizes []Size) bson.A {
	out := make(bson.A, len(sizes))
	for i, s := range sizes {
		out[i] = sizeDocument{Size: s.Size, Quantity: s.Quantity}
	}
	return out
}

type mongoRepo struct{ coll *mongo.Collection }

func NewMongoRepository(db *mongo.Database) Repository {
	return &mongoRepo{coll: db.Collection(ProductsCollection)}
}

// EnsureProductIndexes creates the listing indexes.
func EnsureProductIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(ProductsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "name", Value: 1}}},
		{Keys: bson.D{{Key: "sizes.size", Value: 1}}},
	})
	return err
}

func (r *mongoRepo) Create(ctx context.Context, p *Product) error {
	price, err := primitive.ParseDecimal128(p.Price.String())
	if err != nil {
		return fmt.Errorf("%w: price %s", apperr.ErrInvalidInput, p.Price)
	}
	oid, id := mongox.NewID()
	now := time.Now().UTC()
	sizes := make([]sizeDocument, len(p.Sizes))
	for i, s := range p.Sizes {
		sizes[i] = sizeDocument{Size: s.Size, Quantity: s.Quantity}
	}
	doc := newProductDocument{ID: oid, Name: p.Name, Price: price, Sizes: sizes, CreatedAt: now}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return apperr.Unavailable(fmt.Errorf("insert product: %w", err))
	}
	p.ID = id
	p.CreatedAt = now
	p.Version = 0
	return nil
}

func (r *mongoRepo) GetByID(ctx context.Context, id string) (*Product, error) {
	var doc productDocument
	err := r.coll.FindOne(ctx, bson.M{"_id": mongox.MatchID(id)}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: %s", apperr.ErrProductNotFound, id)
	}
	if err != nil {
		return nil, apperr.Unavailable(err)
	}
	return doc.toProduct()
}

func (r *mongoRepo) GetMany(ctx context.Context, ids []string) (map[string]*Product, error) {
	out := make(map[string]*Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	cur, err := r.coll.Find(ctx, bson.M{"_id": mongox.MatchIDs(ids)})
	if err != nil {
		return nil, apperr.Unavailable(err)
	}
	var docs []productDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, apperr.Unavailable(err)
	}
	for i := range docs {
		p, err := docs[i].toProduct()
		if err != nil {
			return nil, err
		}
		out[p.ID] = p
	}
	return out, nil
}

func productQuery(f Filter) bson.M {
	q := bson.M{}
	if f.Name != "" {
		q["name"] = bson.M{"$regex": regexp.QuoteMeta(f.Name), "$options": "i"}
	}
	if f.Size != "" {
		q["$or"] = bson.A{
			bson.M{"sizes.size": f.Size},
			bson.M{"size": f.Size},
		}
	}
	return q
}

func (r *mongoRepo) List(ctx context.Context, f Filter, p pagination.Params) ([]*Product, bool, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetSkip(int64(p.Offset)).
		SetLimit(int64(p.Fetch()))
	cur, err := r.coll.Find(ctx, productQuery(f), opts)
	if err != nil {
		return nil, false, apperr.Unavailable(err)
	}
	var docs []productDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, false, apperr.Unavailable(err)
	}
	products := make([]*Product, 0, len(docs))
	for i := range docs {
		prod, err := docs[i].toProduct()
		if err != nil {
			return nil, false, err
		}
		products = append(products, prod)
	}
	page, more := pagination.Trim(products, p)
	return page, more, nil
}
