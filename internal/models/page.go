package models

import "encoding/json"

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// PageRequest selects one page of a listing. Index is 1-based.
type PageRequest struct {
	Index int
	Size  int
}

// Normalize clamps the request to sane bounds.
func (p PageRequest) Normalize() PageRequest {
	if p.Index < 1 {
		p.Index = 1
	}
	if p.Size < 1 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	return p
}

// Offset returns the number of rows to skip.
func (p PageRequest) Offset() int {
	p = p.Normalize()
	return (p.Index - 1) * p.Size
}

// Page is one page of results plus the total number of matching rows.
type Page[T any] struct {
	Items      []T `json:"items"`
	TotalCount int `json:"total_count"`
	PageIndex  int `json:"page"`
	PageSize   int `json:"per_page"`
}

// NewPage builds a page for the given request, never returning nil Items.
func NewPage[T any](items []T, total int, req PageRequest) Page[T] {
	req = req.Normalize()
	if items == nil {
		items = []T{}
	}
	return Page[T]{Items: items, TotalCount: total, PageIndex: req.Index, PageSize: req.Size}
}

// TotalPages returns the number of pages needed for TotalCount.
func (p Page[T]) TotalPages() int {
	if p.PageSize < 1 {
		return 0
	}
	return (p.TotalCount + p.PageSize - 1) / p.PageSize
}

// HasPrev reports whether a previous page exists.
func (p Page[T]) HasPrev() bool {
	return p.PageIndex > 1
}

// HasNext reports whether a following page exists.
func (p Page[T]) HasNext() bool {
	return p.PageIndex < p.TotalPages()
}

// MarshalJSON adds the derived navigation fields to the encoded page.
func (p Page[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Items      []T  `json:"items"`
		TotalCount int  `json:"total_count"`
		PageIndex  int  `json:"page"`
		PageSize   int  `json:"per_page"`
		TotalPages int  `json:"total_pages"`
		HasPrev    bool `json:"has_prev"`
		HasNext    bool `json:"has_next"`
	}{p.Items, p.TotalCount, p.PageIndex, p.PageSize, p.TotalPages(), p.HasPrev(), p.HasNext()})
}
