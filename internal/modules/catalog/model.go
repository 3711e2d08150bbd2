package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

// Size is one size label of a product and the units in stock for it.
type Size struct {
	Size     string `json:"size"`
	Quantity int    `json:"quantity"`
}

// Product is a catalog entry. Only Sizes[].Quantity ever changes after
// creation, and only through an inventory commit.
type Product struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Sizes     []Size          `json:"sizes"`
	CreatedAt time.Time       `json:"created_at"`
	// Version is the optimistic-concurrency token bumped by every size update.
	Version int64 `json:"-"`
}

// Clone returns a deep copy so callers can work on sizes without touching stored state.
func (p *Product) Clone() *Product {
	c := *p
	c.Sizes = append([]Size(nil), p.Sizes...)
	return &c
}

// HasSize reports whether any size entry carries exactly label.
func (p *Product) HasSize(label string) bool {
	for _, s := range p.Sizes {
		if s.Size == label {
			return true
		}
	}
	return false
}

// Details is the slice of a product attached to enriched order items.
type Details struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

func (p *Product) Details() Details { return Details{Name: p.Name, ID: p.ID} }

// Filter narrows a product listing. Empty fields do not filter.
type Filter struct {
	Name string // case-insensitive substring of the product name
	Size string // exact size label present in Sizes
}

// SizeUpdate replaces a product's sizes provided its stored version still
// equals ExpectedVersion.
type SizeUpdate struct {
	ProductID       string
	ExpectedVersion int64
	Sizes           []Size
}

// SizeRequest is one size entry of a create request.
type SizeRequest struct {
	Size     string `json:"size" validate:"required"`
	Quantity int    `json:"quantity" validate:"gte=0"`
}

// CreateProductRequest holds the data for creating a product.
type CreateProductRequest struct {
	Name  string          `json:"name" validate:"required"`
	Price decimal.Decimal `json:"price"`
	Sizes []SizeRequest   `json:"sizes" validate:"dive"`
}
