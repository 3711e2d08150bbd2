package catalog

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/georgemunganga/storefront-api/internal/apperr"
	"github.com/georgemunganga/storefront-api/internal/pagination"
)

// MemoryRepository is an in-process Catalog Store. Stored products are never
// handed out directly; readers get clones.
type MemoryRepository struct {
	mu    sync.RWMutex
	order []string
	byID  map[string]*Product
	now   func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byID: make(map[string]*Product), now: time.Now}
}

func (r *MemoryRepository) Create(ctx context.Context, p *Product) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	p.ID = uuid.NewString()
	p.CreatedAt = r.now().UTC()
	p.Version = 0
	r.byID[p.ID] = p.Clone()
	r.order = append(r.order, p.ID)
	return nil
}

func (r *MemoryRepository) GetByID(ctx context.Context, id string) (*Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperr.ErrProductNotFound, id)
	}
	return p.Clone(), nil
}

func (r *MemoryRepository) GetMany(ctx context.Context, ids []string) (map[string]*Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]*Product, len(ids))
	for _, id := range ids {
		if p, ok := r.byID[id]; ok {
			out[id] = p.Clone()
		}
	}
	return out, nil
}

func (r *MemoryRepository) List(ctx context.Context, f Filter, p pagination.Params) ([]*Product, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	name := strings.ToLower(f.Name)
	var matched []*Product
	for _, id := range r.order {
		prod := r.byID[id]
		if name != "" && !strings.Contains(strings.ToLower(prod.Name), name) {
			continue
		}
		if f.Size != "" && !prod.HasSize(f.Size) {
			continue
		}
		matched = append(matched, prod)
	}
	page, more := pagination.Window(matched, p)
	out := make([]*Product, len(page))
	for i, prod := range page {
		out[i] = prod.Clone()
	}
	return out, more, nil
}

// UpdateSizesIf applies all updates or none. Every product must still carry
// its expected version; otherwise apperr.ErrConflict is returned and nothing
// changes. then runs under the same lock once the checks pass, and an error
// from it also leaves the catalog unchanged.
func (r *MemoryRepository) UpdateSizesIf(ctx context.Context, updates []SizeUpdate, then func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range updates {
		p, ok := r.byID[u.ProductID]
		if !ok {
			return fmt.Errorf("%w: %s", apperr.ErrProductNotFound, u.ProductID)
		}
		if p.Version != u.ExpectedVersion {
			return fmt.Errorf("%w: product %s changed (version %d, expected %d)",
				apperr.ErrConflict, u.ProductID, p.Version, u.ExpectedVersion)
		}
	}
	if then != nil {
		if err := then(); err != nil {
			return err
		}
	}
	for _, u := range updates {
		p := r.byID[u.ProductID]
		p.Sizes = append([]Size(nil), u.Sizes...)
		p.Version++
	}
	return nil
}
