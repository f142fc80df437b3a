package domain

import (
	"strings"

	apperrors "github.com/utafrali/ecommerce-catalog/pkg/errors"
	"github.com/utafrali/ecommerce-catalog/pkg/validator"
)

// SortField identifies the attribute a search result is ordered by.
type SortField string

// Sort fields accepted by product search.
const (
	SortByName       SortField = "name"
	SortByPrice      SortField = "price"
	SortByCreatedAt  SortField = "createdAt"
	SortByRating     SortField = "rating"
	SortByPopularity SortField = "popularity"
	SortByViewCount  SortField = "viewCount"
)

// SortOrder is the direction of the primary sort.
type SortOrder string

// Sort orders accepted by product search.
const (
	SortAsc  SortOrder = "ASC"
	SortDesc SortOrder = "DESC"
)

// Pagination defaults and bounds.
const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
)

// ValidSortFields returns the set of valid sort fields.
func ValidSortFields() []SortField {
	return []SortField{SortByName, SortByPrice, SortByCreatedAt, SortByRating, SortByPopularity, SortByViewCount}
}

// IsValidSortField checks whether the given string names a sortable field.
func IsValidSortField(field string) bool {
	for _, f := range ValidSortFields() {
		if string(f) == field {
			return true
		}
	}
	return false
}

// ParseSortOrder converts a case-insensitive "asc"/"desc" into a SortOrder.
func ParseSortOrder(s string) (SortOrder, bool) {
	switch strings.ToUpper(s) {
	case string(SortAsc):
		return SortAsc, true
	case string(SortDesc):
		return SortDesc, true
	default:
		return "", false
	}
}

// SearchRequest holds every parameter of a product search. Optional filters
// are pointers so that an absent filter is distinguishable from a zero value.
type SearchRequest struct {
	SearchTerm *string   `json:"search" validate:"omitempty,min=1,max=255"`
	CategoryID *string   `json:"category_id" validate:"omitempty,uuid"`
	MinPrice   *float64  `json:"min_price" validate:"omitempty,finite,gte=0"`
	MaxPrice   *float64  `json:"max_price" validate:"omitempty,finite,gte=0"`
	InStock    *bool     `json:"in_stock"`
	MinRating  *float64  `json:"min_rating" validate:"omitempty,finite,gte=0,lte=5"`
	SortBy     SortField `json:"sort_by" validate:"omitempty,oneof=name price createdAt rating popularity viewCount"`
	SortOrder  SortOrder `json:"sort_order" validate:"omitempty,oneof=ASC DESC"`
	Page       int       `json:"page" validate:"gte=1"`
	Limit      int       `json:"limit" validate:"gte=1,lte=100"`
}

// NewSearchRequest returns a request with the documented defaults applied.
func NewSearchRequest() SearchRequest {
	return SearchRequest{
		SortBy:    SortByCreatedAt,
		SortOrder: SortDesc,
		Page:      DefaultPage,
		Limit:     DefaultLimit,
	}
}

// Normalized returns a copy with surrounding whitespace removed from the
// search term, a blank term dropped, and unset defaults filled in.
func (r SearchRequest) Normalized() SearchRequest {
	if r.SearchTerm != nil {
		term := strings.TrimSpace(*r.SearchTerm)
		if term == "" {
			r.SearchTerm = nil
		} else {
			r.SearchTerm = &term
		}
	}
	if r.SortBy == "" {
		r.SortBy = SortByCreatedAt
	}
	if r.SortOrder == "" {
		r.SortOrder = SortDesc
	}
	if r.Page == 0 {
		r.Page = DefaultPage
	}
	if r.Limit == 0 {
		r.Limit = DefaultLimit
	}
	return r
}

// ValidatePriceRange reports whether the price bounds are consistent: when
// both are present the maximum must not be below the minimum.
func ValidatePriceRange(r SearchRequest) bool {
	if r.MinPrice == nil || r.MaxPrice == nil {
		return true
	}
	return *r.MaxPrice >= *r.MinPrice
}

// ValidateSearchRequest runs the field rules and the cross-field price rule.
// Field failures are returned as *validator.ValidationError.
func ValidateSearchRequest(r SearchRequest) error {
	if err := validator.Validate(r); err != nil {
		return err
	}
	if !ValidatePriceRange(r) {
		return apperrors.InvalidInput("max_price must be greater than or equal to min_price")
	}
	return nil
}

// PaginationParams describes the page window of a search.
type PaginationParams struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Skip  int `json:"-"`
}

// SearchResult is a page of products matching a search.
type SearchResult struct {
	Products   []Product `json:"products"`
	Total      int       `json:"total"`
	Page       int       `json:"page"`
	Limit      int       `json:"limit"`
	TotalPages int       `json:"total_pages"`
	HasNext    bool      `json:"has_next"`
	HasPrev    bool      `json:"has_prev"`
	Cached     bool      `json:"-"`
}
