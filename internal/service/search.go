package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/utafrali/ecommerce-catalog/internal/domain"
	"github.com/utafrali/ecommerce-catalog/internal/repository"
	"github.com/utafrali/ecommerce-catalog/internal/search"
	"github.com/utafrali/ecommerce-catalog/pkg/pagination"
)

// SearchService answers product searches, reading through the result cache.
type SearchService struct {
	products repository.ProductRepository
	cache    repository.SearchCache
	logger   *slog.Logger
}

// NewSearchService creates a new search service. cache may be nil, in which
// case every search goes to the repository.
func NewSearchService(products repository.ProductRepository, cache repository.SearchCache, logger *slog.Logger) *SearchService {
	return &SearchService{
		products: products,
		cache:    cache,
		logger:   logger,
	}
}

// Search validates req and returns the requested page of matching products.
func (s *SearchService) Search(ctx context.Context, req domain.SearchRequest) (*domain.SearchResult, error) {
	req = req.Normalized()
	if err := domain.ValidateSearchRequest(req); err != nil {
		return nil, err
	}

	start := time.Now()
	compiler := search.NewCompiler(req)
	key := compiler.CacheKey()

	if cached := s.fromCache(ctx, key); cached != nil {
		s.logger.DebugContext(ctx, "search served from cache",
			slog.String("cache_key", key),
			slog.Duration("duration", time.Since(start)),
		)
		return cached, nil
	}

	products, err := s.products.Search(ctx, compiler)
	if err != nil {
		return nil, fmt.Errorf("search products: %w", err)
	}

	total, err := s.products.Count(ctx, compiler)
	if err != nil {
		return nil, fmt.Errorf("count products: %w", err)
	}

	window := compiler.Pagination()
	page := pagination.NewResult(products, total, pagination.Params{
		Page:   window.Page,
		Limit:  window.Limit,
		Offset: window.Skip,
	})

	result := &domain.SearchResult{
		Products:   page.Data,
		Total:      page.TotalCount,
		Page:       page.Page,
		Limit:      page.Limit,
		TotalPages: page.TotalPages,
		HasNext:    page.HasNext,
		HasPrev:    page.HasPrev,
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, result); err != nil {
			s.logger.WarnContext(ctx, "failed to cache search result",
				slog.String("cache_key", key),
				slog.String("error", err.Error()),
			)
		}
	}

	s.logger.DebugContext(ctx, "search executed",
		slog.String("cache_key", key),
		slog.Int("total", total),
		slog.Int("returned", len(products)),
		slog.Bool("category_join", compiler.RequiresJoin()),
		slog.Duration("duration", time.Since(start)),
	)

	return result, nil
}

// InvalidateCache drops every cached search result.
func (s *SearchService) InvalidateCache(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	if err := s.cache.InvalidateAll(ctx); err != nil {
		return fmt.Errorf("invalidate search cache: %w", err)
	}
	return nil
}

func (s *SearchService) fromCache(ctx context.Context, key string) *domain.SearchResult {
	if s.cache == nil {
		return nil
	}

	cached, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.WarnContext(ctx, "search cache lookup failed",
			slog.String("cache_key", key),
			slog.String("error", err.Error()),
		)
		return nil
	}
	if cached == nil {
		return nil
	}

	cached.Cached = true
	return cached
}
