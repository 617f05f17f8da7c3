package shared

// Default pagination values used when a screen is first opened
const (
	DefaultPage     = 1
	DefaultPageSize = 20
)

// Page is the pagination state of a list screen. Total is reported by the
// backend and may lag behind local mutations until the next refresh.
type Page struct {
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
	Total    int64 `json:"total"`
}

// DefaultPageState returns the first page with the default page size
func DefaultPageState() Page {
	return Page{Page: DefaultPage, PageSize: DefaultPageSize}
}

// TotalPages returns the number of logical pages a paging control exposes
func (p Page) TotalPages() int {
	if p.PageSize <= 0 || p.Total <= 0 {
		return 0
	}
	pages := int(p.Total) / p.PageSize
	if int(p.Total)%p.PageSize > 0 {
		pages++
	}
	return pages
}

// HasNext reports whether a page after the current one exists
func (p Page) HasNext() bool {
	return p.Page < p.TotalPages()
}

// HasPrev reports whether a page before the current one exists
func (p Page) HasPrev() bool {
	return p.Page > 1
}

// Paginated represents a paginated result
type Paginated[T any] struct {
	Items    []T   `json:"items"`
	Total    int64 `json:"total"`
	Page     int   `json:"page,omitempty"`
	PageSize int   `json:"page_size,omitempty"`
}

// NewPaginated creates a new paginated result
func NewPaginated[T any](items []T, total int64, page, pageSize int) Paginated[T] {
	if items == nil {
		items = make([]T, 0)
	}
	return Paginated[T]{
		Items:    items,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}
}

// PageState returns the pagination state described by this result
func (p Paginated[T]) PageState() Page {
	return Page{Page: p.Page, PageSize: p.PageSize, Total: p.Total}
}

// IsPartial reports whether the loaded items are only a slice of the full set,
// meaning any aggregate reduced from them does not cover the whole collection.
func (p Paginated[T]) IsPartial() bool {
	return int64(len(p.Items)) < p.Total
}
