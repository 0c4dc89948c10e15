package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/snapit/storefront/internal/domain/product"
)

const (
	productColumns = `id, name, description, price, category_id, image, stock, unit, is_active, created_at, updated_at`

	getProductByIDSQL = `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	createProductSQL = `INSERT INTO products (id, name, description, price, category_id, image, stock, unit, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	updateProductSQL = `UPDATE products
		SET name = $2, description = $3, price = $4, category_id = $5, image = $6, stock = $7, unit = $8, is_active = $9, updated_at = now()
		WHERE id = $1`

	deactivateProductSQL = `UPDATE products SET is_active = FALSE, updated_at = now() WHERE id = $1`

	// reserveStockSQL is the single serialization point for concurrent
	// checkouts of the same product: the decrement applies only while enough
	// stock remains, so the row can never go negative.
	reserveStockSQL = `UPDATE products SET stock = stock - $2, updated_at = now()
		WHERE id = $1 AND stock >= $2`

	restoreStockSQL = `UPDATE products SET stock = stock + $2, updated_at = now() WHERE id = $1`
)

var (
	_ product.Repository  = (*ProductRepository)(nil)
	_ product.StockLedger = (*ProductRepository)(nil)
)

// ProductRepository implements the catalog repository and the stock ledger
// backed by PostgreSQL.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// List returns a page of products matching the filter plus the unpaged total.
func (r *ProductRepository) List(ctx context.Context, f product.ListFilter) ([]product.Product, int64, error) {
	where := `WHERE ($1 = '' OR category_id = $1)
		AND ($2 = '' OR name ILIKE '%' || $2 || '%')
		AND ($3 OR is_active)`

	var total int64
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM products `+where,
		f.CategoryID, f.Search, f.IncludeInactive,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("counting products: %w", err)
	}

	limit, offset := pageOffset(f.Page, f.PageSize)
	rows, err := r.pool.Query(ctx,
		`SELECT `+productColumns+` FROM products `+where+` ORDER BY created_at DESC LIMIT $4 OFFSET $5`,
		f.CategoryID, f.Search, f.IncludeInactive, limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("listing products: %w", err)
	}

	products, err := pgx.CollectRows(rows, scanProduct)
	if err != nil {
		return nil, 0, fmt.Errorf("scanning products: %w", err)
	}
	return products, total, nil
}

// GetByID returns a single product by its identifier.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*product.Product, error) {
	rows, err := r.pool.Query(ctx, getProductByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}
	return &p, nil
}

// Create persists a new product.
func (r *ProductRepository) Create(ctx context.Context, p *product.Product) error {
	_, err := r.pool.Exec(ctx, createProductSQL,
		p.ID, p.Name, p.Description, p.Price, p.CategoryID, p.Image, p.Stock, p.Unit, p.Active,
	)
	if err != nil {
		return fmt.Errorf("creating product %q: %w", p.ID, err)
	}
	return nil
}

// Update overwrites a product's catalog attributes.
func (r *ProductRepository) Update(ctx context.Context, p *product.Product) error {
	tag, err := r.pool.Exec(ctx, updateProductSQL,
		p.ID, p.Name, p.Description, p.Price, p.CategoryID, p.Image, p.Stock, p.Unit, p.Active,
	)
	if err != nil {
		return fmt.Errorf("updating product %q: %w", p.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return product.ErrNotFound
	}
	return nil
}

// Deactivate soft-deletes a product so existing order snapshots stay intact.
func (r *ProductRepository) Deactivate(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, deactivateProductSQL, id)
	if err != nil {
		return fmt.Errorf("deactivating product %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return product.ErrNotFound
	}
	return nil
}

// Reserve atomically decrements stock by quantity if enough remains. A zero
// rows-affected result means the conditional update did not apply, which is
// reported as insufficient stock (the caller has already verified the product
// exists and is active).
func (r *ProductRepository) Reserve(ctx context.Context, productID string, quantity int) error {
	tag, err := r.pool.Exec(ctx, reserveStockSQL, productID, quantity)
	if err != nil {
		return fmt.Errorf("reserving %d of product %q: %w", quantity, productID, err)
	}
	if tag.RowsAffected() == 0 {
		return product.ErrInsufficientStock
	}
	return nil
}

// Restore unconditionally adds quantity back to stock.
func (r *ProductRepository) Restore(ctx context.Context, productID string, quantity int) error {
	_, err := r.pool.Exec(ctx, restoreStockSQL, productID, quantity)
	if err != nil {
		return fmt.Errorf("restoring %d of product %q: %w", quantity, productID, err)
	}
	return nil
}

func scanProduct(row pgx.CollectableRow) (product.Product, error) {
	var p product.Product
	err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.Price, &p.CategoryID,
		&p.Image, &p.Stock, &p.Unit, &p.Active, &p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}
