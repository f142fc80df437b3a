package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/ecommerce-catalog/internal/domain"
	"github.com/utafrali/ecommerce-catalog/internal/query"
	"github.com/utafrali/ecommerce-catalog/internal/search"
	"github.com/utafrali/ecommerce-catalog/pkg/database"
	apperrors "github.com/utafrali/ecommerce-catalog/pkg/errors"
)

const (
	productTable = "products"
	productAlias = "product"
)

// productColumns is the SELECT column list for products, qualified with the
// alias used by the search compiler.
var productColumns = []string{
	"product.id",
	"product.name",
	"product.description",
	"product.price",
	"product.stock",
	"product.rating",
	"product.order_count",
	"product.view_count",
	"product.is_active",
	"product.category_id",
	"product.created_at",
	"product.updated_at",
}

// ProductRepository implements repository.ProductRepository using PostgreSQL.
type ProductRepository struct {
	pool database.DBTX
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(pool database.DBTX) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// Search runs the compiled search query for the compiler's page window.
func (r *ProductRepository) Search(ctx context.Context, c *search.Compiler) (products []domain.Product, err error) {
	b := query.NewSQLBuilder(productTable, productAlias, productColumns...)
	if c.RequiresJoin() {
		b.Join(search.CategoryJoin)
	}
	c.CompileQuery(b)

	page := c.Pagination()
	b.Paginate(page.Limit, page.Skip)

	stmt, args, err := b.Build()
	if err != nil {
		return nil, fmt.Errorf("build search query: %w", err)
	}

	ctx, end := database.TraceQuery(ctx, "SearchProducts", stmt)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("search products: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p domain.Product
		if err = scanProductRow(rows, &p); err != nil {
			return nil, fmt.Errorf("scan product row: %w", err)
		}
		products = append(products, p)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product rows: %w", err)
	}

	if products == nil {
		products = []domain.Product{}
	}

	return products, nil
}

// Count returns the number of products matching the compiled count query.
func (r *ProductRepository) Count(ctx context.Context, c *search.Compiler) (total int, err error) {
	b := query.NewSQLBuilder(productTable, productAlias)
	c.CompileCountQuery(b)

	stmt, args, err := b.BuildCount()
	if err != nil {
		return 0, fmt.Errorf("build count query: %w", err)
	}

	ctx, end := database.TraceQuery(ctx, "CountProducts", stmt)
	defer func() { end(err) }()

	if err = r.pool.QueryRow(ctx, stmt, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}

	return total, nil
}

// GetByID retrieves a live, active product by its ID.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (p *domain.Product, err error) {
	stmt := `
		SELECT product.id, product.name, product.description, product.price, product.stock,
		       product.rating, product.order_count, product.view_count, product.is_active,
		       product.category_id, product.created_at, product.updated_at
		FROM products product
		WHERE product.id = $1 AND product.deleted_at IS NULL AND product.is_active = true`

	ctx, end := database.TraceQuery(ctx, "GetProduct", stmt)
	defer func() {
		if errors.Is(err, apperrors.ErrNotFound) {
			end(nil)
			return
		}
		end(err)
	}()

	var product domain.Product
	if err = scanProductRow(r.pool.QueryRow(ctx, stmt, id), &product); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan product: %w", err)
	}

	return &product, nil
}

// IncrementViewCount bumps the view counter of a live product.
func (r *ProductRepository) IncrementViewCount(ctx context.Context, id string) (err error) {
	stmt := `UPDATE products SET view_count = view_count + 1 WHERE id = $1 AND deleted_at IS NULL`

	ctx, end := database.TraceQuery(ctx, "IncrementViewCount", stmt)
	defer func() { end(err) }()

	ct, err := r.pool.Exec(ctx, stmt, id)
	if err != nil {
		return fmt.Errorf("increment view count: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("product", id)
	}

	return nil
}

// scanProductRow scans one row selected with productColumns.
func scanProductRow(row pgx.Row, p *domain.Product) error {
	return row.Scan(
		&p.ID,
		&p.Name,
		&p.Description,
		&p.Price,
		&p.Stock,
		&p.Rating,
		&p.OrderCount,
		&p.ViewCount,
		&p.IsActive,
		&p.CategoryID,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
}
