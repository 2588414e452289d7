package service

const (
	defaultPage  = 1
	defaultLimit = 12
	maxLimit     = 100
	// maxPage keeps (page-1)*limit far from overflowing the SQL offset.
	maxPage      = 100000
)

// Page is one page of a paginated listing.
type Page[T any] struct {
	Items      []T
	Page       int
	TotalPages int
	Total      int64
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = defaultPage
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if page > maxPage {
		page = maxPage
	}
	return page, limit
}

func newPage[T any](items []T, page, limit int, total int64) Page[T] {
	if items == nil {
		items = []T{}
	}
	pages := int((total + int64(limit) - 1) / int64(limit))
	return Page[T]{Items: items, Page: page, TotalPages: pages, Total: total}
}
