// Package pagination holds page cursors, the server's pagination metadata and
// the compact page-button sequence shown under a list.
package pagination

import (
	"net/http"
	"net/url"
	"strconv"
)

// DefaultLimit is the page size used when none is configured
const DefaultLimit = 10

// MaxLimit is the largest page size the client will request
const MaxLimit = 100

// Params is a page cursor
type Params struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// Normalize clamps Page to at least 1 and Limit to [1, MaxLimit].
func (p Params) Normalize() Params {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	return p
}

// Offset returns the zero-based index of the first item on the page
func (p Params) Offset() int {
	p = p.Normalize()
	return (p.Page - 1) * p.Limit
}

// Apply writes page and limit into a query string
func (p Params) Apply(values url.Values) {
	p = p.Normalize()
	values.Set("page", strconv.Itoa(p.Page))
	values.Set("limit", strconv.Itoa(p.Limit))
}

// ParseParams extracts page and limit from an incoming request
func ParseParams(r *http.Request) Params {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	return Params{Page: page, Limit: limit}.Normalize()
}

// Metadata is the pagination block the server returns with every page. The
// client trusts HasNextPage as sent and never re-derives it.
type Metadata struct {
	CurrentPage int  `json:"page"`
	Limit       int  `json:"limit"`
	TotalPages  int  `json:"totalPages"`
	TotalCount  int  `json:"totalCount"`
	HasNextPage bool `json:"hasNextPage"`
}

// HasPrevPage reports whether a previous page exists
func (m Metadata) HasPrevPage() bool {
	return m.CurrentPage > 1
}

// NewMetadata builds metadata for a slice of totalCount items, as a server would.
func NewMetadata(p Params, totalCount int) Metadata {
	p = p.Normalize()
	totalPages := CalculateTotalPages(totalCount, p.Limit)
	return Metadata{
		CurrentPage: p.Page,
		Limit:       p.Limit,
		TotalPages:  totalPages,
		TotalCount:  totalCount,
		HasNextPage: p.Page < totalPages,
	}
}

// Slice returns the items of page p, or nil when p is past the end
func Slice[T any](items []T, p Params) []T {
	start := p.Offset()
	if start >= len(items) {
		return nil
	}
	end := start + p.Normalize().Limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

// CalculateTotalPages calculates the total number of pages, never less than 1
func CalculateTotalPages(totalResults, perPage int) int {
	if perPage <= 0 {
		return 1
	}
	pages := (totalResults + perPage - 1) / perPage
	if pages < 1 {
		return 1
	}
	return pages
}
