// Package search compiles a product search request into filter and sort
// operations on a query-construction context.
package search

import (
	"encoding/base64"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/utafrali/ecommerce-catalog/internal/domain"
	"github.com/utafrali/ecommerce-catalog/internal/query"
)

// CacheKeyPrefix namespaces every search cache key.
const CacheKeyPrefix = "products:search:"

// Terms shorter than this skip full-text matching; stemming and stop-word
// removal make one- and two-letter tsqueries useless.
const minFullTextTermLength = 3

// Trigram similarity thresholds for fuzzy matching.
const (
	nameSimilarityThreshold        = "0.3"
	descriptionSimilarityThreshold = "0.2"
)

// textSearchConfig is the PostgreSQL text search configuration used to build
// both the stored search vector and the query.
const textSearchConfig = "english"

// CategoryJoin attaches the category relation required by the category filter.
const CategoryJoin = "INNER JOIN categories category ON category.id = product.category_id"

// Predicates.
const (
	predicateNotDeleted = "product.deleted_at IS NULL"
	predicateActive     = "product.is_active = @isActive"

	predicateFullText = "product.search_vector @@ plainto_tsquery('" + textSearchConfig + "', @searchTerm)"
	predicateNameSim  = "similarity(product.name, @searchTerm) > " + nameSimilarityThreshold
	predicateDescSim  = "similarity(product.description, @searchTerm) > " + descriptionSimilarityThreshold

	predicateSubstring = "(product.name ILIKE @searchPattern OR product.description ILIKE @searchPattern)"
	predicateCategory  = "category.id = @categoryId"
	predicateBetween   = "product.price BETWEEN @minPrice AND @maxPrice"
	predicateMinPrice  = "product.price >= @minPrice"
	predicateMaxPrice  = "product.price <= @maxPrice"
	predicateInStock   = "product.stock > 0"
	predicateMinRating = "(product.rating >= @minRating OR product.rating IS NULL)"
)

// IDField is the tie-breaking sort column.
const IDField = "product.id"

var sortColumns = map[domain.SortField]string{
	domain.SortByName:       "product.name",
	domain.SortByPrice:      "product.price",
	domain.SortByCreatedAt:  "product.created_at",
	domain.SortByRating:     "product.rating",
	domain.SortByPopularity: "product.order_count",
	domain.SortByViewCount:  "product.view_count",
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Compiler turns one SearchRequest into filters, sort keys, a page window and
// a cache key. It holds no state besides the request and is not reused
// across requests.
type Compiler struct {
	req domain.SearchRequest
}

// NewCompiler creates a compiler for req.
func NewCompiler(req domain.SearchRequest) *Compiler {
	return &Compiler{req: req}
}

// Request returns the request being compiled.
func (c *Compiler) Request() domain.SearchRequest {
	return c.req
}

// CompileQuery applies base, text, category, price, stock and rating filters
// followed by the sort keys. The category filter references the "category"
// alias; callers attach CategoryJoin when RequiresJoin reports true.
func (c *Compiler) CompileQuery(b query.Builder) {
	c.applyBaseFilters(b)
	c.applyTextSearch(b)
	c.applyCategoryFilter(b)
	c.applyPriceFilter(b)
	c.applyStockFilter(b)
	c.applyRatingFilter(b)
	c.applySort(b)
}

// CompileCountQuery applies the join-free subset of the filters. Text search
// degrades to a substring match and the category filter is omitted, so the
// count can exceed the number of rows CompileQuery would return.
func (c *Compiler) CompileCountQuery(b query.Builder) {
	c.applyBaseFilters(b)
	c.applySubstringSearch(b)
	c.applyPriceFilter(b)
	c.applyStockFilter(b)
	c.applyRatingFilter(b)
}

// Pagination returns the page window. Out-of-range values are clamped.
func (c *Compiler) Pagination() domain.PaginationParams {
	page := c.req.Page
	if page < 1 {
		page = domain.DefaultPage
	}

	limit := c.req.Limit
	switch {
	case limit == 0:
		limit = domain.DefaultLimit
	case limit < 1:
		limit = 1
	case limit > domain.MaxLimit:
		limit = domain.MaxLimit
	}

	return domain.PaginationParams{
		Page:  page,
		Limit: limit,
		Skip:  (page - 1) * limit,
	}
}

// RequiresJoin reports whether CompileQuery filters on the category relation.
func (c *Compiler) RequiresJoin() bool {
	return c.req.CategoryID != nil
}

// cacheKeyTuple fixes the field order of the encoded cache key. Absent
// fields encode as null. Floats are carried as their shortest exact text so
// that every value, including NaN and the infinities, has its own encoding.
type cacheKeyTuple struct {
	Search     *string          `json:"search"`
	CategoryID *string          `json:"categoryId"`
	MinPrice   *string          `json:"minPrice"`
	MaxPrice   *string          `json:"maxPrice"`
	InStock    *bool            `json:"inStock"`
	MinRating  *string          `json:"minRating"`
	SortBy     domain.SortField `json:"sortBy"`
	SortOrder  domain.SortOrder `json:"sortOrder"`
	Page       int              `json:"page"`
	Limit      int              `json:"limit"`
}

// CacheKey derives a stable key from every search parameter.
func (c *Compiler) CacheKey() string {
	tuple := cacheKeyTuple{
		Search:     c.req.SearchTerm,
		CategoryID: c.req.CategoryID,
		MinPrice:   formatFloat(c.req.MinPrice),
		MaxPrice:   formatFloat(c.req.MaxPrice),
		InStock:    c.req.InStock,
		MinRating:  formatFloat(c.req.MinRating),
		SortBy:     c.req.SortBy,
		SortOrder:  c.req.SortOrder,
		Page:       c.req.Page,
		Limit:      c.req.Limit,
	}
	// Only strings, bools and ints are marshalled, which cannot fail.
	data, _ := json.Marshal(tuple)
	return CacheKeyPrefix + base64.RawURLEncoding.EncodeToString(data)
}

func formatFloat(v *float64) *string {
	if v == nil {
		return nil
	}
	s := strconv.FormatFloat(*v, 'g', -1, 64)
	return &s
}

func (c *Compiler) applyBaseFilters(b query.Builder) {
	b.SetBaseCondition(predicateNotDeleted)
	b.AddCondition(predicateActive, query.Params{"isActive": true})
}

func (c *Compiler) searchTerm() (string, bool) {
	if c.req.SearchTerm == nil {
		return "", false
	}
	term := strings.TrimSpace(*c.req.SearchTerm)
	return term, term != ""
}

func (c *Compiler) applyTextSearch(b query.Builder) {
	term, ok := c.searchTerm()
	if !ok {
		return
	}

	params := query.Params{"searchTerm": term}
	if len([]rune(term)) >= minFullTextTermLength {
		b.AddCondition("("+predicateFullText+" OR "+predicateNameSim+" OR "+predicateDescSim+")", params)
		return
	}
	b.AddCondition("("+predicateNameSim+" OR "+predicateDescSim+")", params)
}

func (c *Compiler) applySubstringSearch(b query.Builder) {
	term, ok := c.searchTerm()
	if !ok {
		return
	}
	b.AddCondition(predicateSubstring, query.Params{"searchPattern": "%" + likeEscaper.Replace(term) + "%"})
}

func (c *Compiler) applyCategoryFilter(b query.Builder) {
	if c.req.CategoryID == nil {
		return
	}
	b.AddCondition(predicateCategory, query.Params{"categoryId": *c.req.CategoryID})
}

func (c *Compiler) applyPriceFilter(b query.Builder) {
	switch {
	case c.req.MinPrice != nil && c.req.MaxPrice != nil:
		b.AddCondition(predicateBetween, query.Params{
			"minPrice": *c.req.MinPrice,
			"maxPrice": *c.req.MaxPrice,
		})
	case c.req.MinPrice != nil:
		b.AddCondition(predicateMinPrice, query.Params{"minPrice": *c.req.MinPrice})
	case c.req.MaxPrice != nil:
		b.AddCondition(predicateMaxPrice, query.Params{"maxPrice": *c.req.MaxPrice})
	}
}

func (c *Compiler) applyStockFilter(b query.Builder) {
	if c.req.InStock == nil || !*c.req.InStock {
		return
	}
	b.AddCondition(predicateInStock, nil)
}

func (c *Compiler) applyRatingFilter(b query.Builder) {
	if c.req.MinRating == nil {
		return
	}
	b.AddCondition(predicateMinRating, query.Params{"minRating": *c.req.MinRating})
}

func (c *Compiler) applySort(b query.Builder) {
	field := c.req.SortBy
	column, ok := sortColumns[field]
	if !ok {
		field = domain.SortByCreatedAt
		column = sortColumns[field]
	}

	dir := query.Desc
	if c.req.SortOrder == domain.SortAsc {
		dir = query.Asc
	}

	nulls := query.NullsDefault
	if field == domain.SortByRating {
		nulls = query.NullsLast
		if dir == query.Asc {
			nulls = query.NullsFirst
		}
	}

	b.SetSortKey(column, dir, nulls)
	if field != domain.SortByCreatedAt {
		b.AddSecondarySortKey(IDField, query.Asc)
	}
}
