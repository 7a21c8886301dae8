// Package utils holds small helpers shared by the HTTP layer.
package utils

import "strconv"

// MaxPageSize caps page_size on listing endpoints.
const MaxPageSize = 200

// AtoiDefault parses s as an int, returning def when s is empty or invalid.
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

// Page is a resolved, 1-based page request.
type Page struct {
	Number int `json:"page"`
	Size   int `json:"page_size"`
}

// ParsePage reads page and page_size query values. A missing or non-positive
// size means no paging and yields ok=false. Sizes are clamped to MaxPageSize
// and page numbers below 1 become 1.
func ParsePage(page, size string) (p Page, ok bool) {
	sz := AtoiDefault(size, 0)
	if sz <= 0 {
		return Page{}, false
	}
	if sz > MaxPageSize {
		sz = MaxPageSize
	}
	n := AtoiDefault(page, 1)
	if n < 1 {
		n = 1
	}
	return Page{Number: n, Size: sz}, true
}

// Bounds returns the [start, end) slice indexes of the page within total
// items. Pages past the end are empty.
func (p Page) Bounds(total int) (start, end int) {
	start = (p.Number - 1) * p.Size
	if start > total || start < 0 {
		return total, total
	}
	end = start + p.Size
	if end > total {
		end = total
	}
	return start, end
}
