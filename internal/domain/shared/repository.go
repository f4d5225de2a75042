package shared

// Filter carries the common paging, ordering and search options. Domain
// filters embed it and add their own predicates.
type Filter struct {
	Page     int
	PageSize int
	OrderBy  string
	OrderDir string
	Search   string
}

// Limit returns the page size for the query, or 0 when paging is off.
func (f Filter) Limit() int {
	if f.PageSize <= 0 {
		return 0
	}
	return f.PageSize
}

// Offset returns the number of rows to skip for the requested page.
func (f Filter) Offset() int {
	if f.PageSize <= 0 {
		return 0
	}
	page := f.Page
	if page < 1 {
		page = 1
	}
	return (page - 1) * f.PageSize
}
