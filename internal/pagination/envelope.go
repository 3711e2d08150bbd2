package pagination

import "strconv"

// Links is the wire form of a Page. Offsets are rendered as decimal strings
// and absent offsets as JSON null.
type Links struct {
	Next     *string `json:"next"`
	Limit    int     `json:"limit"`
	Previous *string `json:"previous"`
}

// Envelope is the list response body: {"data": [...], "page": {...}}.
type Envelope[T any] struct {
	Data []T   `json:"data"`
	Page Links `json:"page"`
}

// NewEnvelope wraps items; a nil slice is emitted as [] rather than null.
func NewEnvelope[T any](items []T, pg Page) Envelope[T] {
	if items == nil {
		items = []T{}
	}
	return Envelope[T]{Data: items, Page: pg.Links()}
}

func (pg Page) Links() Links {
	return Links{Next: itoa(pg.Next), Limit: pg.Limit, Previous: itoa(pg.Previous)}
}

func itoa(v *int) *string {
	if v == nil {
		return nil
	}
	s := strconv.Itoa(*v)
	return &s
}
