package query

type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int64 `json:"pages"`
}

// NewPagination reports total as the filter match count regardless of paging.
func NewPagination(p Params, total int64) Pagination {
	p = p.normalized()

	return Pagination{
		Page:  p.Page,
		Limit: p.Limit,
		Total: total,
		Pages: (total + int64(p.Limit) - 1) / int64(p.Limit),
	}
}

// Page is one slice of a listing plus its pagination block.
type Page[T any] struct {
	Items      []T
	Pagination Pagination
}

func NewPage[T any](items []T, p Params, total int64) Page[T] {
	if items == nil {
		items = []T{}
	}

	return Page[T]{Items: items, Pagination: NewPagination(p, total)}
}
