package dto

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Page is the envelope of every list response.
type Page[T any] struct {
	Count    int64 `json:"count"`
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
	Results  []T   `json:"results"`
}

// NewPage wraps results; a nil slice is rendered as [].
func NewPage[T any](results []T, count int64, page, pageSize int) Page[T] {
	if results == nil {
		results = []T{}
	}
	return Page[T]{
		Count:    count,
		Page:     page,
		PageSize: pageSize,
		Results:  results,
	}
}

// Map converts a slice of models into response shapes.
func Map[M any, T any](items []M, convert func(*M) T) []T {
	out := make([]T, 0, len(items))
	for i := range items {
		out = append(out, convert(&items[i]))
	}
	return out
}
