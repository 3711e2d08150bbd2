package order

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/georgemunganga/storefront-api/internal/apperr"
	"github.com/georgemunganga/storefront-api/internal/modules/catalog"
)

type fakeDetailer struct {
	known map[string]string
	err   error
	calls [][]string
}

func (f *fakeDetailer) LookupDetails(_ context.Context, ids []string) (map[string]catalog.Details, error) {
	f.calls = append(f.calls, ids)
	if f.err != nil {
		return nil, f.err
	}
	out := map[string]catalog.Details{}
	for _, id := range ids {
		if name, ok := f.known[id]; ok {
			out[id] = catalog.Details{Name: name, ID: id}
		}
	}
	return out, nil
}

func seedOrder(t *testing.T, repo *MemoryRepository, user string, productIDs ...string) *Order {
	t.Helper()
	o := &Order{TotalAmount: decimal.NewFromInt(10), UserAddress: Address{UserID: user, City: "Lusaka"}}
	for _, id := range productIDs {
		o.Items = append(o.Items, Item{ProductID: id, Qty: 1})
	}
	if err := repo.Create(context.Background(), o); err != nil {
		t.Fatalf("seed order: %v", err)
	}
	return o
}

func TestListOrdersForUserEnrichesKnownProducts(t *testing.T) {
	repo := NewMemoryRepository()
	seedOrder(t, repo, "u1", "p1", "gone")
	seedOrder(t, repo, "u2", "p1")
	det := &fakeDetailer{known: map[string]string{"p1": "Widget"}}
	svc := NewService(repo, det, nil)

	page, err := svc.ListOrdersForUser(context.Background(), "u1", 0, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page.Items) != 1 {
		t.Fatalf("expected only u1's order, got %d", len(page.Items))
	}
	items := page.Items[0].Items
	if items[0].ProductDetails == nil || items[0].ProductDetails.Name != "Widget" || items[0].ProductDetails.ID != "p1" {
		t.Fatalf("expected details for p1, got %+v", items[0].ProductDetails)
	}
	if items[1].ProductDetails != nil {
		t.Fatalf("missing product must stay unenriched, got %+v", items[1].ProductDetails)
	}
	if items[1].ProductID != "gone" || items[1].Qty != 1 {
		t.Fatalf("item fields changed: %+v", items[1])
	}
	if page.Page.Next != nil || page.Page.Previous != nil {
		t.Fatalf("single page expected, got %+v", page.Page)
	}
}

func TestListOrdersForUserDegradesOnLookupFailure(t *testing.T) {
	repo := NewMemoryRepository()
	seedOrder(t, repo, "u1", "p1")
	det := &fakeDetailer{err: fmt.Errorf("%w: boom", apperr.ErrStoreUnavailable)}
	svc := NewService(repo, det, nil)

	page, err := svc.ListOrdersForUser(context.Background(), "u1", 10, 0)
	if err != nil {
		t.Fatalf("enrichment failure must not fail the page: %v", err)
	}
	if len(page.Items) != 1 || page.Items[0].Items[0].ProductDetails != nil {
		t.Fatalf("expected unenriched order, got %+v", page.Items)
	}
}

func TestListOrdersForUserLooksUpOncePerPage(t *testing.T) {
	repo := NewMemoryRepository()
	seedOrder(t, repo, "u1", "p1", "p1", "p2")
	seedOrder(t, repo, "u1", "p2")
	det := &fakeDetailer{known: map[string]string{"p1": "A", "p2": "B"}}
	svc := NewService(repo, det, nil)

	if _, err := svc.ListOrdersForUser(context.Background(), "u1", 10, 0); err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(det.calls) != 1 {
		t.Fatalf("expected one batched lookup, got %d", len(det.calls))
	}
}

func TestListOrdersForUserPaging(t *testing.T) {
	repo := NewMemoryRepository()
	var want []string
	for i := 0; i < 5; i++ {
		want = append(want, seedOrder(t, repo, "u1", fmt.Sprintf("p%d", i)).ID)
	}
	svc := NewService(repo, &fakeDetailer{}, nil)

	var got []string
	offset := 0
	for {
		page, err := svc.ListOrdersForUser(context.Background(), "u1", 2, offset)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		for _, o := range page.Items {
			got = append(got, o.ID)
		}
		if page.Page.Next == nil {
			break
		}
		offset = *page.Page.Next
	}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Fatalf("paging lost or reordered orders: got %v want %v", got, want)
	}

	page, err := svc.ListOrdersForUser(context.Background(), "u1", 2, 3)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Page.Previous == nil || *page.Page.Previous != 1 {
		t.Fatalf("expected previous=1, got %+v", page.Page.Previous)
	}
}

func TestListOrdersForUserRequiresUser(t *testing.T) {
	svc := NewService(NewMemoryRepository(), nil, nil)
	if _, err := svc.ListOrdersForUser(context.Background(), " ", 0, 0); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestGetOrderNotFound(t *testing.T) {
	svc := NewService(NewMemoryRepository(), nil, nil)
	if _, err := svc.GetOrder(context.Background(), "nope"); !errors.Is(err, apperr.ErrOrderNotFound) {
		t.Fatalf("expected order not found, got %v", err)
	}
}
