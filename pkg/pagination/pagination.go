package pagination

// DefaultPageSize is the storefront's standard catalog page size.
const DefaultPageSize = 12

// MaxPageSize caps how many rows any paged query can request.
const MaxPageSize = 100

// Params holds page-number pagination inputs from controllers or services.
type Params struct {
	Page     int
	PageSize int
}

// Page describes one page of results.
type Page struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalItems int64 `json:"total_items"`
	TotalPages int   `json:"total_pages"`
}

// Normalize clamps the params to sane bounds, applying fallback as the page
// size default when the caller supplied none.
func (p Params) Normalize(fallback int) Params {
	if fallback <= 0 {
		fallback = DefaultPageSize
	}
	if p.Page <= 0 {
		p.Page = 1
	}
	if p.PageSize <= 0 {
		p.PageSize = fallback
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
	return p
}

// Offset converts the normalized params into a SQL offset.
func (p Params) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// NewPage assembles page metadata for a result set.
func NewPage(params Params, totalItems int64) Page {
	totalPages := int((totalItems + int64(params.PageSize) - 1) / int64(params.PageSize))
	if totalPages < 1 {
		totalPages = 1
	}
	return Page{
		Page:       params.Page,
		PageSize:   params.PageSize,
		TotalItems: totalItems,
		TotalPages: totalPages,
	}
}
