// Package pagination provides page/offset helpers shared by the list
// endpoints and repositories.
package pagination

import "strings"

const (
	defaultPerPage = 20
	maxPerPage     = 100
)

// Pagination holds the requested page and page size.
type Pagination struct {
	Page    int
	PerPage int
}

// New creates a Pagination with defaults and bounds applied.
func New(page, perPage int) Pagination {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = defaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}
	return Pagination{Page: page, PerPage: perPage}
}

// Offset returns the row offset for database queries.
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// Limit returns the row limit for database queries.
func (p Pagination) Limit() int {
	return p.PerPage
}

// Result is a paginated result set.
type Result[T any] struct {
	Data       []T   `json:"data"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PerPage    int   `json:"per_page"`
	TotalPages int   `json:"total_pages"`
}

// NewResult wraps data with paging metadata.
func NewResult[T any](data []T, total int64, p Pagination) Result[T] {
	if data == nil {
		data = make([]T, 0)
	}
	totalPages := int(total) / p.PerPage
	if int(total)%p.PerPage > 0 {
		totalPages++
	}
	return Result[T]{
		Data:       data,
		Total:      total,
		Page:       p.Page,
		PerPage:    p.PerPage,
		TotalPages: totalPages,
	}
}

// SortOrder is the sort direction.
type SortOrder string

const (
	SortAsc  SortOrder = "ASC"
	SortDesc SortOrder = "DESC"
)

// Sort is a single parsed sort specification.
type Sort struct {
	Field string
	Order SortOrder
}

// SortOption parses and validates sort query parameters against a
// whitelist of fields.
type SortOption struct {
	sorts   []Sort
	allowed map[string]string // request field -> db column
}

// NewSortOption creates a SortOption. allowed maps user-facing field
// names to database column names.
func NewSortOption(allowed map[string]string) *SortOption {
	return &SortOption{allowed: allowed}
}

// Parse reads a comma-separated sort string. A "-" prefix means
// descending, e.g. "-created_at,email". Unknown fields are ignored.
func (s *SortOption) Parse(raw string) *SortOption {
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		order := SortAsc
		field := strings.TrimPrefix(part, "+")
		if strings.HasPrefix(part, "-") {
			order = SortDesc
			field = part[1:]
		}
		if column, ok := s.allowed[field]; ok {
			s.sorts = append(s.sorts, Sort{Field: column, Order: order})
		}
	}
	return s
}

// IsEmpty reports whether any valid sorts were parsed.
func (s *SortOption) IsEmpty() bool {
	return len(s.sorts) == 0
}

// SQL returns the ORDER BY clause body, e.g. "created_at DESC, email ASC".
func (s *SortOption) SQL() string {
	if len(s.sorts) == 0 {
		return ""
	}
	parts := make([]string, 0, len(s.sorts))
	for _, sort := range s.sorts {
		parts = append(parts, sort.Field+" "+string(sort.Order))
	}
	return strings.Join(parts, ", ")
}

// SQLWithDefault returns the ORDER BY clause body, falling back to
// defaultSort when nothing was parsed.
func (s *SortOption) SQLWithDefault(defaultSort string) string {
	if sql := s.SQL(); sql != "" {
		return sql
	}
	return defaultSort
}
