package pagination

import (
	"sort"
	"strconv"
)

// EllipsisLabel is rendered for a collapsed run of pages
const EllipsisLabel = "..."

// Item is one entry of a page-button sequence: a page number or an ellipsis.
type Item struct {
	Page     int
	Ellipsis bool
}

// String renders the item as shown on a button
func (i Item) String() string {
	if i.Ellipsis {
		return EllipsisLabel
	}
	return strconv.Itoa(i.Page)
}

// Labels renders a sequence as strings
func Labels(items []Item) []string {
	labels := make([]string, len(items))
	for i, item := range items {
		labels[i] = item.String()
	}
	return labels
}

// GeneratePages returns the compact button sequence for currentPage out of
// totalPages. Page 1, the last page and the neighbours of currentPage are
// always shown. A gap of exactly one page shows that page; longer gaps
// collapse into a single ellipsis.
func GeneratePages(currentPage, totalPages int) []Item {
	if totalPages < 1 {
		totalPages = 1
	}
	if currentPage < 1 {
		currentPage = 1
	}
	if currentPage > totalPages {
		currentPage = totalPages
	}

	seen := make(map[int]struct{}, 5)
	var pages []int
	for _, p := range []int{1, currentPage - 1, currentPage, currentPage + 1, totalPages} {
		if p < 1 || p > totalPages {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		pages = append(pages, p)
	}
	sort.Ints(pages)

	items := make([]Item, 0, len(pages)+2)
	for i, p := range pages {
		if i > 0 {
			switch gap := p - pages[i-1]; {
			case gap == 2:
				items = append(items, Item{Page: p - 1})
			case gap > 2:
				items = append(items, Item{Ellipsis: true})
			}
		}
		items = append(items, Item{Page: p})
	}
	return items
}
