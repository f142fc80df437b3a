package repository

import (
	"context"

	"github.com/utafrali/ecommerce-catalog/internal/domain"
	"github.com/utafrali/ecommerce-catalog/internal/search"
)

// ProductRepository defines read access to the product catalog.
type ProductRepository interface {
	// Search returns the page of products selected by the compiled request.
	Search(ctx context.Context, c *search.Compiler) ([]domain.Product, error)

	// Count returns the number of products matching the compiled count query.
	Count(ctx context.Context, c *search.Compiler) (int, error)

	// GetByID retrieves a live product by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.Product, error)

	// IncrementViewCount records one view of the product.
	IncrementViewCount(ctx context.Context, id string) error
}

// CategoryRepository defines read access to product categories.
type CategoryRepository interface {
	// List returns all active categories ordered by name.
	List(ctx context.Context) ([]domain.Category, error)

	// GetByID retrieves an active category by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.Category, error)
}

// SearchCache stores search results keyed by search.Compiler.CacheKey.
type SearchCache interface {
	// Get returns the cached result, or nil when the key is absent.
	Get(ctx context.Context, key string) (*domain.SearchResult, error)

	// Set stores a result under key.
	Set(ctx context.Context, key string, result *domain.SearchResult) error

	// InvalidateAll removes every cached search result.
	InvalidateAll(ctx context.Context) error
}
