package response

import "github.com/nekogravitycat/service-booking-backend/internal/pkg/request"

// PageResponse wraps one page of a list endpoint.
type PageResponse[T any] struct {
	Items    []T `json:"items"`
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
	Total    int `json:"total"`
}

// NewPage converts a page of domain rows into response items. Items is
// never nil so an empty page encodes as [].
func NewPage[S, T any](rows []S, convert func(S) T, p request.ListParams, total int) PageResponse[T] {
	items := make([]T, len(rows))
	for i, r := range rows {
		items[i] = convert(r)
	}
	return PageResponse[T]{
		Items:    items,
		Page:     p.Page,
		PageSize: p.PageSize,
		Total:    total,
	}
}
