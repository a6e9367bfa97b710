package pagination

// DefaultPageSize is assumed when the server does not report a page limit.
const DefaultPageSize = 5

// State is the pagination position derived from one server answer. It is
// computed per fetch and never carried over to the next request.
type State struct {
	CurrentPage int `json:"current_page" yaml:"current_page"`
	TotalPages  int `json:"total_pages" yaml:"total_pages"`
	TotalItems  int `json:"total_items" yaml:"total_items"`
	PageSize    int `json:"page_size" yaml:"page_size"`
}

// TotalPages returns ceil(totalItems/pageSize), never less than 1.
// A non-positive pageSize falls back to DefaultPageSize.
func TotalPages(totalItems, pageSize int) int {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if totalItems <= 0 {
		return 1
	}
	pages := totalItems / pageSize
	if totalItems%pageSize > 0 {
		pages++
	}
	return pages
}

// Clamp forces page into [1, totalPages].
func Clamp(page, totalPages int) int {
	if totalPages < 1 {
		totalPages = 1
	}
	if page > totalPages {
		page = totalPages
	}
	if page < 1 {
		page = 1
	}
	return page
}

// Derive builds the State for a page that was requested before the true
// bound was known. The requested index is clamped; the page data the server
// returned is trusted as-is.
func Derive(requested, totalItems, pageSize int) State {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if totalItems < 0 {
		totalItems = 0
	}
	total := TotalPages(totalItems, pageSize)
	return State{
		CurrentPage: Clamp(requested, total),
		TotalPages:  total,
		TotalItems:  totalItems,
		PageSize:    pageSize,
	}
}

// HasNext reports whether a page after the current one exists.
func (s State) HasNext() bool {
	return s.CurrentPage < s.TotalPages
}

// HasPrev reports whether a page before the current one exists.
func (s State) HasPrev() bool {
	return s.CurrentPage > 1
}

// Next returns the following page index, or the current one on the last page.
func (s State) Next() int {
	if s.HasNext() {
		return s.CurrentPage + 1
	}
	return s.CurrentPage
}

// Prev returns the preceding page index, or 1 on the first page.
func (s State) Prev() int {
	if s.HasPrev() {
		return s.CurrentPage - 1
	}
	return 1
}
