package catalog

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
)

type countingRepo struct {
	*MemoryRepository
	requested [][]string
}

func (c *countingRepo) GetMany(ctx context.Context, ids []string) (map[string]*Product, error) {
	c.requested = append(c.requested, append([]string(nil), ids...))
	return c.MemoryRepository.GetMany(ctx, ids)
}

type mapCache struct {
	m       map[string]Details
	readErr error
	writes  int
}

func (c *mapCache) GetMany(_ context.Context, ids []string) (map[string]Details, error) {
	if c.readErr != nil {
		return nil, c.readErr
	}
	out := map[string]Details{}
	for _, id := range ids {
		if d, ok := c.m[id]; ok {
			out[id] = d
		}
	}
	return out, nil
}

func (c *mapCache) SetMany(_ context.Context, ds []Details) error {
	c.writes++
	for _, d := range ds {
		c.m[d.ID] = d
	}
	return nil
}

func seedProducts(t *testing.T, repo *MemoryRepository, names ...string) []string {
	t.Helper()
	ids := make([]string, 0, len(names))
	for _, n := range names {
		p := &Product{Name: n}
		if err := repo.Create(context.Background(), p); err != nil {
			t.Fatal(err)
		}
		ids = append(ids, p.ID)
	}
	return ids
}

func TestLookupDetailsDedupesAndSkipsMissing(t *testing.T) {
	repo := &countingRepo{MemoryRepository: NewMemoryRepository()}
	ids := seedProducts(t, repo.MemoryRepository, "A", "B")
	lookup := NewDetailsLookup(repo, nil, zap.NewNop())

	got, err := lookup.LookupDetails(context.Background(), []string{ids[0], ids[1], ids[0], "gone"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[ids[0]].Name != "A" || got[ids[1]].ID != ids[1] {
		t.Fatalf("unexpected details %+v", got)
	}
	if len(repo.requested) != 1 || len(repo.requested[0]) != 3 {
		t.Fatalf("expected one deduplicated store read, got %v", repo.requested)
	}
}

func TestLookupDetailsReadsThroughCache(t *testing.T) {
	repo := &countingRepo{MemoryRepository: NewMemoryRepository()}
	ids := seedProducts(t, repo.MemoryRepository, "A", "B")
	cache := &mapCache{m: map[string]Details{ids[0]: {Name: "A", ID: ids[0]}}}
	lookup := NewDetailsLookup(repo, cache, zap.NewNop())

	got, err := lookup.LookupDetails(context.Background(), ids)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 details, got %d", len(got))
	}
	if len(repo.requested) != 1 || len(repo.requested[0]) != 1 || repo.requested[0][0] != ids[1] {
		t.Fatalf("store should only see the cache miss, got %v", repo.requested)
	}
	if _, ok := cache.m[ids[1]]; !ok {
		t.Fatalf("miss should be written back to cache")
	}

	repo.requested = nil
	if _, err := lookup.LookupDetails(context.Background(), ids); err != nil {
		t.Fatal(err)
	}
	if len(repo.requested) != 0 {
		t.Fatalf("fully cached lookup must not hit the store")
	}
}

func TestLookupDetailsCacheFailureFallsBack(t *testing.T) {
	repo := &countingRepo{MemoryRepository: NewMemoryRepository()}
	ids := seedProducts(t, repo.MemoryRepository, "A")
	cache := &mapCache{m: map[string]Details{}, readErr: errors.New("redis down")}
	lookup := NewDetailsLookup(repo, cache, zap.NewNop())

	got, err := lookup.LookupDetails(context.Background(), ids)
	if err != nil {
		t.Fatalf("cache failure must not fail lookup: %v", err)
	}
	if got[ids[0]].Name != "A" {
		t.Fatalf("expected store fallback")
	}
}
