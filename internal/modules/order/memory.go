package order

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/georgemunganga/storefront-api/internal/apperr"
	"github.com/georgemunganga/storefront-api/internal/pagination"
)

// MemoryRepository is an in-process Order Store.
type MemoryRepository struct {
	mu     sync.RWMutex
	orders []*Order
	byID   map[string]*Order
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byID: make(map[string]*Order)}
}

func clone(o *Order) *Order {
	c := *o
	c.Items = append([]Item(nil), o.Items...)
	return &c
}

func (r *MemoryRepository) Create(ctx context.Context, o *Order) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now().UTC()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := clone(o)
	r.orders = append(r.orders, stored)
	r.byID[o.ID] = stored
	return nil
}

func (r *MemoryRepository) GetByID(ctx context.Context, id string) (*Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperr.ErrOrderNotFound, id)
	}
	return clone(o), nil
}

func (r *MemoryRepository) ListByUser(ctx context.Context, userID string, p pagination.Params) ([]*Order, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var mine []*Order
	for _, o := range r.orders {
		if o.UserAddress.UserID == userID {
			mine = append(mine, o)
		}
	}
	page, more := pagination.Window(mine, p)
	out := make([]*Order, len(page))
	for i, o := range page {
		out[i] = clone(o)
	}
	return out, more, nil
}

// Count returns the number of stored orders.
func (r *MemoryRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.orders)
}
