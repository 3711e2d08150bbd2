package inventory

import "github.com/georgemunganga/storefront-api/internal/modules/catalog"

// SizePolicy chooses the size entry an order line draws its units from. It
// returns the index into sizes, or -1 when no entry can cover qty.
type SizePolicy func(sizes []catalog.Size, qty int) int

// FirstFit picks the first entry, in stored order, holding at least qty units.
// The request carries no size, so the line is served from whichever size
// happens to come first with enough stock.
func FirstFit(sizes []catalog.Size, qty int) int {
	for i, s := range sizes {
		if s.Quantity >= qty {
			return i
		}
	}
	return -1
}
