package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/utafrali/ecommerce-catalog/internal/domain"
	"github.com/utafrali/ecommerce-catalog/internal/repository"
	apperrors "github.com/utafrali/ecommerce-catalog/pkg/errors"
)

// CatalogService implements product detail and category lookups.
type CatalogService struct {
	products   repository.ProductRepository
	categories repository.CategoryRepository
	logger     *slog.Logger
}

// NewCatalogService creates a new catalog service.
func NewCatalogService(products repository.ProductRepository, categories repository.CategoryRepository, logger *slog.Logger) *CatalogService {
	return &CatalogService{
		products:   products,
		categories: categories,
		logger:     logger,
	}
}

// GetProduct retrieves a product with its category and records the view.
func (s *CatalogService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("product", id)
		}
		return nil, fmt.Errorf("get product by id: %w", err)
	}

	if product.CategoryID != nil {
		category, err := s.categories.GetByID(ctx, *product.CategoryID)
		switch {
		case err == nil:
			product.Category = category
		case !errors.Is(err, apperrors.ErrNotFound):
			s.logger.WarnContext(ctx, "failed to load product category",
				slog.String("product_id", id),
				slog.String("category_id", *product.CategoryID),
				slog.String("error", err.Error()),
			)
		}
	}

	// View counting must never fail the read.
	if err := s.products.IncrementViewCount(ctx, id); err != nil {
		s.logger.WarnContext(ctx, "failed to increment view count",
			slog.String("product_id", id),
			slog.String("error", err.Error()),
		)
	}

	return product, nil
}

// ListCategories returns all active categories.
func (s *CatalogService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	categories, err := s.categories.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}
