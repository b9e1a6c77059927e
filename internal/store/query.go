package store

import (
	"cmp"
	"slices"
	"strings"
	"time"
)

// SortBy selects the ordering of a query result.
type SortBy string

// Supported orderings.
const (
	SortLatest SortBy = "latest"
	SortOldest SortBy = "oldest"
	SortViews  SortBy = "views"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// Query describes a filtered, sorted and paginated view of a collection.
type Query struct {
	Keyword string
	SortBy  SortBy
	Page    int
	Limit   int
}

// Normalize clamps paging values and fills defaults.
func (q Query) Normalize() Query {
	q.Keyword = strings.TrimSpace(q.Keyword)
	switch q.SortBy {
	case SortLatest, SortOldest, SortViews:
	default:
		q.SortBy = SortLatest
	}
	if q.Page < 1 {
		q.Page = DefaultPage
	}
	if q.Limit < 1 {
		q.Limit = 1
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}
	return q
}

// Page is one slice of a query result.
type Page[T any] struct {
	Items      []T `json:"items"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// TextFunc returns the searchable text fields of an item.
type TextFunc[T any] func(T) []string

type timestamped interface {
	Created() time.Time
}

type viewed interface {
	ViewCount() int
}

// FilterSort applies the keyword filter and ordering of q to items
// without paging. The input slice is not modified.
func FilterSort[T Entity](items []T, q Query, text TextFunc[T]) []T {
	q = q.Normalize()

	result := make([]T, 0, len(items))
	keyword := strings.ToLower(q.Keyword)
	for _, item := range items {
		if keyword != "" && !matches(text(item), keyword) {
			continue
		}
		result = append(result, item)
	}

	slices.SortStableFunc(result, func(a, b T) int {
		switch q.SortBy {
		case SortOldest:
			return compareRecency(a, b)
		case SortViews:
			if c := cmp.Compare(views(b), views(a)); c != 0 {
				return c
			}
			return compareRecency(b, a)
		default:
			return compareRecency(b, a)
		}
	})
	return result
}

// Paginate filters, sorts and slices items according to q.
// A page past the end yields an empty Items slice.
func Paginate[T Entity](items []T, q Query, text TextFunc[T]) Page[T] {
	q = q.Normalize()
	sorted := FilterSort(items, q, text)

	total := len(sorted)
	totalPages := (total + q.Limit - 1) / q.Limit

	start := (q.Page - 1) * q.Limit
	end := min(start+q.Limit, total)
	page := []T{}
	if start < total {
		page = sorted[start:end]
	}

	return Page[T]{
		Items:      page,
		Page:       q.Page,
		Limit:      q.Limit,
		Total:      total,
		TotalPages: totalPages,
	}
}

func matches(fields []string, keyword string) bool {
	for _, field := range fields {
		if strings.Contains(strings.ToLower(field), keyword) {
			return true
		}
	}
	return false
}

// compareRecency orders a before b when a was created earlier. Entities
// without a creation time, or with equal times, fall back to id order.
func compareRecency[T Entity](a, b T) int {
	ta, okA := any(a).(timestamped)
	tb, okB := any(b).(timestamped)
	if okA && okB {
		if c := ta.Created().Compare(tb.Created()); c != 0 {
			return c
		}
	}
	return strings.Compare(a.EntityID(), b.EntityID())
}

func views[T any](item T) int {
	if v, ok := any(item).(viewed); ok {
		return v.ViewCount()
	}
	return 0
}
