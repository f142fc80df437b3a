package http

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"

	"github.com/utafrali/ecommerce-catalog/internal/domain"
	apperrors "github.com/utafrali/ecommerce-catalog/pkg/errors"
	"github.com/utafrali/ecommerce-catalog/pkg/httputil"
	"github.com/utafrali/ecommerce-catalog/pkg/pagination"
)

// CacheHeader reports whether a search was served from the result cache.
const CacheHeader = "X-Cache"

// Searcher runs product searches.
type Searcher interface {
	Search(ctx context.Context, req domain.SearchRequest) (*domain.SearchResult, error)
}

// SearchHandler handles HTTP requests for product search.
type SearchHandler struct {
	searcher Searcher
	logger   *slog.Logger
}

// NewSearchHandler creates a new search HTTP handler.
func NewSearchHandler(searcher Searcher, logger *slog.Logger) *SearchHandler {
	return &SearchHandler{
		searcher: searcher,
		logger:   logger,
	}
}

// Search handles GET /api/v1/products/search
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	req, err := parseSearchRequest(r.URL.Query())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	result, err := h.searcher.Search(r.Context(), req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	if result.Cached {
		w.Header().Set(CacheHeader, "HIT")
	} else {
		w.Header().Set(CacheHeader, "MISS")
	}

	page := pagination.Params{Page: result.Page, Limit: result.Limit}
	httputil.WriteJSON(w, http.StatusOK, pagination.NewResult(result.Products, result.Total, page))
}

// parseSearchRequest converts query parameters into a search request. Only
// syntax is checked here; ranges and allowed values are left to the service.
func parseSearchRequest(q url.Values) (domain.SearchRequest, error) {
	var req domain.SearchRequest

	term := q.Get("q")
	if term == "" {
		term = q.Get("search")
	}
	if term != "" {
		req.SearchTerm = &term
	}
	if v := q.Get("category_id"); v != "" {
		req.CategoryID = &v
	}

	for _, f := range []struct {
		name string
		dst  **float64
	}{
		{"min_price", &req.MinPrice},
		{"max_price", &req.MaxPrice},
		{"min_rating", &req.MinRating},
	} {
		v := q.Get(f.name)
		if v == "" {
			continue
		}
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return req, apperrors.InvalidParameter(f.name, "must be a valid number")
		}
		if math.IsInf(n, 0) || math.IsNaN(n) {
			return req, apperrors.InvalidParameter(f.name, "must be a finite number")
		}
		*f.dst = &n
	}

	if v := q.Get("in_stock"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return req, apperrors.InvalidParameter("in_stock", "must be true or false")
		}
		req.InStock = &b
	}

	if v := q.Get("sort_by"); v != "" {
		req.SortBy = domain.SortField(v)
	}
	if v := q.Get("sort_order"); v != "" {
		order, ok := domain.ParseSortOrder(v)
		if !ok {
			return req, apperrors.InvalidParameter("sort_order", "must be ASC or DESC")
		}
		req.SortOrder = order
	}

	page, err := pagination.FromQuery(q)
	if err != nil {
		var pe *pagination.ParamError
		if errors.As(err, &pe) {
			return req, apperrors.InvalidParameter(pe.Name, "must be an integer")
		}
		return req, err
	}
	req.Page = page.Page
	req.Limit = page.Limit

	return req, nil
}
