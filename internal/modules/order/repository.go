package order

import (
	"context"

	"github.com/georgemunganga/storefront-api/internal/pagination"
)

// Repository defines the Order Store. Orders are written once and never
// updated. Inventory commits insert orders through the backend-specific
// helpers so the insert joins their transaction.
type Repository interface {
	// Create assigns ID and CreatedAt when unset, then stores o.
	Create(ctx context.Context, o *Order) error

	// GetByID returns apperr.ErrOrderNotFound for unknown ids.
	GetByID(ctx context.Context, id string) (*Order, error)

	// ListByUser returns one page of a user's orders in creation order and
	// whether more follow.
	ListByUser(ctx context.Context, userID string, p pagination.Params) ([]*Order, bool, error)
}
