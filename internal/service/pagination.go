package service

const (
	// DefaultPageSize is used when the client sends no limit.
	DefaultPageSize = 6
	// MaxPageSize caps the client supplied limit.
	MaxPageSize = 100
)

// PageRequest is a 1-based page request.
type PageRequest struct {
	Page  int
	Limit int
}

// NewPageRequest clamps page and limit to sane values.
func NewPageRequest(page, limit int) PageRequest {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return PageRequest{Page: page, Limit: limit}
}

// Offset is the number of rows to skip.
func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Page is one page of results plus the total row count.
type Page[T any] struct {
	Items []T
	Total int64
	PageRequest
}

// HasNext reports whether rows exist past this page.
func (p *Page[T]) HasNext() bool {
	return int64(p.Offset()+len(p.Items)) < p.Total
}

// HasPrevious reports whether this is not the first page.
func (p *Page[T]) HasPrevious() bool {
	return p.Page > 1
}
