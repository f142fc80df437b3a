package http

import (
	"errors"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/ecommerce-catalog/internal/domain"
	apperrors "github.com/utafrali/ecommerce-catalog/pkg/errors"
	"github.com/utafrali/ecommerce-catalog/pkg/validator"
)

const testCategoryID = "5b0c7a38-8f53-4f1c-9d3c-0f4f2f7b6c11"

func TestParseSearchRequest(t *testing.T) {
	q := url.Values{
		"q":           {"desk lamp"},
		"category_id": {testCategoryID},
		"min_price":   {"10.5"},
		"max_price":   {"99"},
		"in_stock":    {"true"},
		"min_rating":  {"4"},
		"sort_by":     {"price"},
		"sort_order":  {"asc"},
		"page":        {"3"},
		"limit":       {"25"},
	}

	req, err := parseSearchRequest(q)
	require.NoError(t, err)
	require.NotNil(t, req.SearchTerm)
	assert.Equal(t, "desk lamp", *req.SearchTerm)
	assert.Equal(t, testCategoryID, *req.CategoryID)
	assert.Equal(t, 10.5, *req.MinPrice)
	assert.Equal(t, 99.0, *req.MaxPrice)
	assert.True(t, *req.InStock)
	assert.Equal(t, 4.0, *req.MinRating)
	assert.Equal(t, domain.SortByPrice, req.SortBy)
	assert.Equal(t, domain.SortAsc, req.SortOrder)
	assert.Equal(t, 3, req.Page)
	assert.Equal(t, 25, req.Limit)
}

func TestParseSearchRequest_SearchAlias(t *testing.T) {
	req, err := parseSearchRequest(url.Values{"search": {"chair"}})
	require.NoError(t, err)
	assert.Equal(t, "chair", *req.SearchTerm)

	req, err = parseSearchRequest(url.Values{"q": {"lamp"}, "search": {"chair"}})
	require.NoError(t, err)
	assert.Equal(t, "lamp", *req.SearchTerm)
}

func TestParseSearchRequest_Empty(t *testing.T) {
	req, err := parseSearchRequest(url.Values{})
	require.NoError(t, err)
	assert.Equal(t, domain.SearchRequest{}, req)
}

func TestParseSearchRequest_InvalidParameters(t *testing.T) {
	tests := []struct {
		param, value, want string
	}{
		{"min_price", "cheap", "min_price must be a valid number"},
		{"max_price", "1,000", "max_price must be a valid number"},
		{"min_rating", "five", "min_rating must be a valid number"},
		{"min_price", "Inf", "min_price must be a finite number"},
		{"max_price", "+Inf", "max_price must be a finite number"},
		{"max_price", "NaN", "max_price must be a finite number"},
		{"min_rating", "-Infinity", "min_rating must be a finite number"},
		{"in_stock", "maybe", "in_stock must be true or false"},
		{"sort_order", "up", "sort_order must be ASC or DESC"},
		{"page", "first", "page must be an integer"},
		{"limit", "1.5", "limit must be an integer"},
	}
	for _, tt := range tests {
		t.Run(tt.param+"="+tt.value, func(t *testing.T) {
			_, err := parseSearchRequest(url.Values{tt.param: {tt.value}})
			require.Error(t, err)

			var appErr *apperrors.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, "INVALID_PARAMETER", appErr.Code)
			assert.Equal(t, tt.want, appErr.Message)
		})
	}
}

func TestSearch_Success(t *testing.T) {
	searcher := new(mockSearcher)
	router := newTestRouter(searcher, new(mockCatalog))

	result := &domain.SearchResult{
		Products:   []domain.Product{{ID: "p1", Name: "Desk Lamp", Price: 34.5}},
		Total:      41,
		Page:       2,
		Limit:      20,
		TotalPages: 3,
		HasNext:    true,
		HasPrev:    true,
	}
	searcher.On("Search", mock.Anything, mock.MatchedBy(func(req domain.SearchRequest) bool {
		return req.SearchTerm != nil && *req.SearchTerm == "lamp" && req.Page == 2
	})).Return(result, nil)

	rec := get(t, router, "/api/v1/products/search?q=lamp&page=2")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "MISS", rec.Header().Get(CacheHeader))
	assert.Equal(t, "public, max-age=30", rec.Header().Get("Cache-Control"))

	body := decode[pageBody](t, rec)
	require.Len(t, body.Data, 1)
	assert.Equal(t, "Desk Lamp", body.Data[0].Name)
	assert.Equal(t, 41, body.TotalCount)
	assert.Equal(t, 2, body.Page)
	assert.Equal(t, 20, body.Limit)
	assert.Equal(t, 3, body.TotalPages)
	assert.True(t, body.HasNext)
	assert.True(t, body.HasPrev)
	searcher.AssertExpectations(t)
}

func TestSearch_CacheHitHeaderAndEmptyData(t *testing.T) {
	searcher := new(mockSearcher)
	router := newTestRouter(searcher, new(mockCatalog))

	searcher.On("Search", mock.Anything, mock.Anything).
		Return(&domain.SearchResult{Page: 1, Limit: 20, Cached: true}, nil)

	rec := get(t, router, "/api/v1/products/search")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "HIT", rec.Header().Get(CacheHeader))

	body := decode[pageBody](t, rec)
	assert.NotNil(t, body.Data)
	assert.Empty(t, body.Data)
	assert.Equal(t, 0, body.TotalPages)
	assert.False(t, body.HasNext)
}

func TestSearch_InvalidParameterNeverReachesService(t *testing.T) {
	for _, query := range []string{"min_price=abc", "q=laptop&max_price=Inf", "min_rating=NaN"} {
		t.Run(query, func(t *testing.T) {
			searcher := new(mockSearcher)
			router := newTestRouter(searcher, new(mockCatalog))

			rec := get(t, router, "/api/v1/products/search?"+query)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

			body := decode[envelope](t, rec)
			require.NotNil(t, body.Error)
			assert.Equal(t, "INVALID_PARAMETER", body.Error.Code)
			searcher.AssertNotCalled(t, "Search", mock.Anything, mock.Anything)
		})
	}
}

func TestSearch_ServiceErrors(t *testing.T) {
	validationErr := validator.Validate(domain.SearchRequest{Page: 1, Limit: 500})
	require.Error(t, validationErr)

	tests := []struct {
		name   string
		err    error
		status int
		code   string
		field  string
	}{
		{
			name:   "validation",
			err:    validationErr,
			status: http.StatusBadRequest,
			code:   "VALIDATION_ERROR",
			field:  "limit",
		},
		{
			name:   "inverted price range",
			err:    apperrors.InvalidInput("max_price must be greater than or equal to min_price"),
			status: http.StatusBadRequest,
			code:   "INVALID_INPUT",
		},
		{
			name:   "database down",
			err:    errors.New("search products: connection refused"),
			status: http.StatusInternalServerError,
			code:   "INTERNAL_ERROR",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			searcher := new(mockSearcher)
			router := newTestRouter(searcher, new(mockCatalog))
			searcher.On("Search", mock.Anything, mock.Anything).Return(nil, tt.err)

			rec := get(t, router, "/api/v1/products/search?q=lamp")
			require.Equal(t, tt.status, rec.Code)
			assert.Empty(t, rec.Header().Get(CacheHeader))

			body := decode[envelope](t, rec)
			require.NotNil(t, body.Error)
			assert.Equal(t, tt.code, body.Error.Code)
			if tt.field != "" {
				assert.Contains(t, body.Error.Fields, tt.field)
			}
		})
	}
}
