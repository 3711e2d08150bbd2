package catalog

import (
	"context"

	"github.com/georgemunganga/storefront-api/internal/pagination"
)

// Repository defines the Catalog Store.
type Repository interface {
	// Create assigns ID, CreatedAt and the initial version, then stores p.
	Create(ctx context.Context, p *Product) error

	// GetByID returns apperr.ErrProductNotFound for unknown or malformed ids.
	GetByID(ctx context.Context, id string) (*Product, error)

	// GetMany returns the products that exist among ids, keyed by id.
	GetMany(ctx context.Context, ids []string) (map[string]*Product, error)

	// List returns one page of products matching f in creation order and
	// whether more matching products follow it.
	List(ctx context.Context, f Filter, p pagination.Params) ([]*Product, bool, error)
}
