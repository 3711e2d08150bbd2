package catalog

import (
	"context"

	"go.uber.org/zap"
)

// DetailsCache holds product details keyed by product id. Names never change
// after creation, so cached entries cannot go stale while the product exists.
type DetailsCache interface {
	GetMany(ctx context.Context, ids []string) (map[string]Details, error)
	SetMany(ctx context.Context, details []Details) error
}

// DetailsLookup resolves product details for order enrichment, reading
// through an optional cache.
type DetailsLookup struct {
	repo   Repository
	cache  DetailsCache
	logger *zap.Logger
}

// NewDetailsLookup builds a lookup. cache may be nil.
func NewDetailsLookup(repo Repository, cache DetailsCache, logger *zap.Logger) *DetailsLookup {
	return &DetailsLookup{repo: repo, cache: cache, logger: logger}
}

// LookupDetails returns details for the ids that resolve to a product. Ids are
// deduplicated. Cache failures are logged and fall back to the store.
func (l *DetailsLookup) LookupDetails(ctx context.Context, ids []string) (map[string]Details, error) {
	unique := dedupe(ids)
	out := make(map[string]Details, len(unique))
	if len(unique) == 0 {
		return out, nil
	}

	missing := unique
	if l.cache != nil {
		cached, err := l.cache.GetMany(ctx, unique)
		if err != nil {
			l.logger.Warn("product_details_cache_read_failed", zap.Error(err))
		}
		missing = missing[:0:0]
		for _, id := range unique {
			if d, ok := cached[id]; ok {
				out[id] = d
				continue
			}
			missing = append(missing, id)
		}
		if len(missing) == 0 {
			return out, nil
		}
	}

	products, err := l.repo.GetMany(ctx, missing)
	if err != nil {
		return out, err
	}
	fresh := make([]Details, 0, len(products))
	for id, p := range products {
		d := p.Details()
		out[id] = d
		fresh = append(fresh, d)
	}
	if l.cache != nil && len(fresh) > 0 {
		if err := l.cache.SetMany(ctx, fresh); err != nil {
			l.logger.Warn("product_details_cache_write_failed", zap.Error(err))
		}
	}
	return out, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
