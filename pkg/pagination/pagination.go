// Package pagination parses page windows from query strings and computes
// page totals for list responses.
package pagination

import (
	"fmt"
	"net/url"
	"strconv"
)

// Params is a page window.
type Params struct {
	Page   int `json:"page"`
	Limit  int `json:"limit"`
	Offset int `json:"-"`
}

// ParamError reports a pagination query parameter that is not an integer.
type ParamError struct {
	Name  string
	Value string
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("query parameter %s must be an integer, got %q", e.Name, e.Value)
}

// FromQuery reads "page" and "limit" from q. Absent parameters are returned
// as zero so callers can apply their own defaults; range checks are left to
// the caller as well.
func FromQuery(q url.Values) (Params, error) {
	var p Params

	for _, f := range []struct {
		name string
		dst  *int
	}{
		{"page", &p.Page},
		{"limit", &p.Limit},
	} {
		raw := q.Get(f.name)
		if raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			return Params{}, &ParamError{Name: f.name, Value: raw}
		}
		*f.dst = v
	}

	if p.Page > 0 && p.Limit > 0 {
		p.Offset = (p.Page - 1) * p.Limit
	}
	return p, nil
}

// Result is a page of items with its position in the full result set.
type Result[T any] struct {
	Data       []T  `json:"data"`
	TotalCount int  `json:"total_count"`
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
	HasPrev    bool `json:"has_prev"`
}

// NewResult creates a paginated result. params.Limit must be positive.
func NewResult[T any](data []T, totalCount int, params Params) Result[T] {
	totalPages := totalCount / params.Limit
	if totalCount%params.Limit > 0 {
		totalPages++
	}
	if data == nil {
		data = []T{}
	}

	return Result[T]{
		Data:       data,
		TotalCount: totalCount,
		Page:       params.Page,
		Limit:      params.Limit,
		TotalPages: totalPages,
		HasNext:    params.Page < totalPages,
		HasPrev:    params.Page > 1,
	}
}
