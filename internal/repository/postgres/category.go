package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/ecommerce-catalog/internal/domain"
	"github.com/utafrali/ecommerce-catalog/pkg/database"
	apperrors "github.com/utafrali/ecommerce-catalog/pkg/errors"
)

// categoryColumns is the standard SELECT column list for categories.
const categoryColumns = `id, name, slug, description, is_active, created_at, updated_at`

// CategoryRepository implements repository.CategoryRepository using PostgreSQL.
type CategoryRepository struct {
	pool database.DBTX
}

// NewCategoryRepository creates a new PostgreSQL-backed category repository.
func NewCategoryRepository(pool database.DBTX) *CategoryRepository {
	return &CategoryRepository{pool: pool}
}

// List returns all active categories ordered by name.
func (r *CategoryRepository) List(ctx context.Context) (categories []domain.Category, err error) {
	stmt := fmt.Sprintf(`SELECT %s FROM categories WHERE is_active = true ORDER BY name ASC`, categoryColumns)

	ctx, end := database.TraceQuery(ctx, "ListCategories", stmt)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, stmt)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c domain.Category
		if err = scanCategoryRow(rows, &c); err != nil {
			return nil, fmt.Errorf("scan category row: %w", err)
		}
		categories = append(categories, c)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate category rows: %w", err)
	}

	if categories == nil {
		categories = []domain.Category{}
	}

	return categories, nil
}

// GetByID retrieves an active category by its unique identifier.
func (r *CategoryRepository) GetByID(ctx context.Context, id string) (c *domain.Category, err error) {
	stmt := fmt.Sprintf(`SELECT %s FROM categories WHERE id = $1 AND is_active = true`, categoryColumns)

	ctx, end := database.TraceQuery(ctx, "GetCategory", stmt)
	defer func() {
		if errors.Is(err, apperrors.ErrNotFound) {
			end(nil)
			return
		}
		end(err)
	}()

	var category domain.Category
	if err = scanCategoryRow(r.pool.QueryRow(ctx, stmt, id), &category); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan category: %w", err)
	}

	return &category, nil
}

func scanCategoryRow(row pgx.Row, c *domain.Category) error {
	return row.Scan(
		&c.ID,
		&c.Name,
		&c.Slug,
		&c.Description,
		&c.IsActive,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
}
