// Package pagination implements the limit/offset paging shared by product and
// order listings.
package pagination

import "strconv"

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// Params is a normalised page request.
type Params struct {
	Limit  int
	Offset int
}

// Normalize applies the lenient defaults: a limit that is unset or <= 0 becomes
// DefaultLimit, a limit above MaxLimit is clamped, and a negative offset becomes 0.
func Normalize(limit, offset int) Params {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return Params{Limit: limit, Offset: offset}
}

// Parse normalises raw query-string values. Unparseable values count as unset.
func Parse(limit, offset string) Params {
	l, err := strconv.Atoi(limit)
	if err != nil {
		l = 0
	}
	o, err := strconv.Atoi(offset)
	if err != nil {
		o = 0
	}
	return Normalize(l, o)
}

// Fetch is the number of rows a store should read to learn whether another
// page exists without a separate count query.
func (p Params) Fetch() int { return p.Limit + 1 }

// Page describes where a returned page sits in the full result.
type Page struct {
	Limit    int
	Offset   int
	Next     *int
	Previous *int
}

// Page computes next/previous offsets. Next is set only when hasMore reports
// records beyond this page; Previous only when Offset > 0, clamped at 0.
func (p Params) Page(hasMore bool) Page {
	pg := Page{Limit: p.Limit, Offset: p.Offset}
	if hasMore {
		n := p.Offset + p.Limit
		pg.Next = &n
	}
	if p.Offset > 0 {
		prev := p.Offset - p.Limit
		if prev < 0 {
			prev = 0
		}
		pg.Previous = &prev
	}
	return pg
}

// Trim cuts rows read with Fetch down to Limit and reports whether rows were dropped.
func Trim[T any](rows []T, p Params) ([]T, bool) {
	if len(rows) > p.Limit {
		return rows[:p.Limit], true
	}
	return rows, false
}

// Window slices an in-memory, already ordered result set.
func Window[T any](all []T, p Params) ([]T, bool) {
	if p.Offset >= len(all) {
		return []T{}, false
	}
	end := p.Offset + p.Limit
	if end >= len(all) {
		return all[p.Offset:], false
	}
	return all[p.Offset:end], true
}
