// Package paginator splits ordered collections into fixed-size pages.
//
// Page numbers come from an untrusted query parameter. A missing or
// non-numeric value selects the first page; a number below one or past the
// end selects the last page. A collection with no items still has one
// (empty) page.
package paginator

import "strconv"

type Paginator struct {
	PerPage int
	Count   int
}

type Page[T any] struct {
	Items       []T  `json:"items"`
	Number      int  `json:"number"`
	NumPages    int  `json:"num_pages"`
	Count       int  `json:"count"`
	HasNext     bool `json:"has_next"`
	HasPrevious bool `json:"has_previous"`
}

func New(perPage, count int) Paginator {
	if perPage < 1 {
		perPage = 1
	}
	if count < 0 {
		count = 0
	}
	return Paginator{PerPage: perPage, Count: count}
}

func (p Paginator) NumPages() int {
	if p.Count == 0 {
		return 1
	}
	return (p.Count + p.PerPage - 1) / p.PerPage
}

// Resolve returns the page number to serve for the raw query value.
func (p Paginator) Resolve(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 1
	}
	if n < 1 || n > p.NumPages() {
		return p.NumPages()
	}
	return n
}

// Bounds returns the OFFSET and LIMIT for page number.
func (p Paginator) Bounds(number int) (offset, limit int) {
	offset = (number - 1) * p.PerPage
	limit = p.PerPage
	if offset+limit > p.Count {
		limit = p.Count - offset
	}
	if limit < 0 {
		limit = 0
	}
	return offset, limit
}

// Build wraps the items already loaded for page number.
func Build[T any](p Paginator, number int, items []T) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{
		Items:       items,
		Number:      number,
		NumPages:    p.NumPages(),
		Count:       p.Count,
		HasNext:     number < p.NumPages(),
		HasPrevious: number > 1,
	}
}

// Slice pages an in-memory collection.
func Slice[T any](all []T, perPage int, raw string) Page[T] {
	p := New(perPage, len(all))
	number := p.Resolve(raw)
	offset, limit := p.Bounds(number)
	return Build(p, number, all[offset:offset+limit])
}

// Normalize maps a raw page value to the number it names, without knowing
// the collection size. Used to build cache keys.
func Normalize(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 1
	}
	return n
}
