package model

// Page is one page of a listing plus the totals the client needs to render
// pagination controls.
type Page[T any] struct {
	Items      []T `json:"items"`
	Count      int `json:"count"`
	TotalPages int `json:"totalPages"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
}

func NewPage[T any](items []T, count, page, limit int) Page[T] {
	if items == nil {
		items = []T{}
	}
	totalPages := 0
	if limit > 0 {
		totalPages = (count + limit - 1) / limit
	}
	return Page[T]{
		Items:      items,
		Count:      count,
		TotalPages: totalPages,
		Page:       page,
		Limit:      limit,
	}
}
