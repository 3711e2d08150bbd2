package order

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/georgemunganga/storefront-api/internal/modules/catalog"
)

// Item is one order line: a product and a strictly positive quantity.
type Item struct {
	ProductID string `json:"productid" validate:"required"`
	Qty       int    `json:"qty"`
}

// Address is the shipping address; UserID ties the order to its owner.
type Address struct {
	UserID  string `json:"user_id" validate:"required"`
	Street  string `json:"street,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	Zip     string `json:"zip,omitempty"`
	Country string `json:"country,omitempty"`
}

// Order is an immutable record of a committed purchase. TotalAmount is the
// caller's figure and is stored as given.
type Order struct {
	ID          string          `json:"id"`
	Items       []Item          `json:"items"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	UserAddress Address         `json:"user_address"`
	CreatedAt   time.Time       `json:"created_at"`
}

// PlaceOrderRequest is the payload for creating a new order.
type PlaceOrderRequest struct {
	Items       []Item          `json:"items" validate:"dive"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	UserAddress Address         `json:"user_address"`
}

// EnrichedItem is an order line with the current product details attached
// when the product still exists.
type EnrichedItem struct {
	Item
	ProductDetails *catalog.Details `json:"productDetails,omitempty"`
}

// EnrichedOrder is the listing view of an order.
type EnrichedOrder struct {
	ID          string          `json:"id"`
	Items       []EnrichedItem  `json:"items"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	UserAddress Address         `json:"user_address"`
	CreatedAt   time.Time       `json:"created_at"`
}

// ProductIDs lists every product referenced by orders, in encounter order,
// possibly with repeats.
func ProductIDs(orders []*Order) []string {
	var ids []string
	for _, o := range orders {
		for _, it := range o.Items {
			ids = append(ids, it.ProductID)
		}
	}
	return ids
}
