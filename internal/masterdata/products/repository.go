package products

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gestionpro/gestionpro/internal/platform/httpx"
	"github.com/gestionpro/gestionpro/internal/shared"
)

// RepositoryPort abstracts product persistence.
type RepositoryPort interface {
	List(ctx context.Context, tenantID string, filter ListFilter) ([]Product, int, error)
	Get(ctx context.Context, tenantID, id string) (Product, error)
	GetBySKU(ctx context.Context, tenantID, sku string) (Product, error)
	Create(ctx context.Context, p Product) (Product, error)
	Update(ctx context.Context, p Product) (Product, error)
	Delete(ctx context.Context, tenantID, id string) error
	SetImageURL(ctx context.Context, tenantID, id, url string) error
}

// Repository persists products in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

var _ RepositoryPort = (*Repository)(nil)

const productColumns = `id, tenant_id, sku, name, description, category, brand, unit,
cost_price, sale_price, image_url, is_active, created_at, updated_at`

func (r *Repository) List(ctx context.Context, tenantID string, filter ListFilter) ([]Product, int, error) {
	where := "WHERE tenant_id = $1"
	args := []any{tenantID}
	if filter.Search != "" {
		args = append(args, "%"+shared.NormalizeSearch(filter.Search)+"%")
		where += fmt.Sprintf(" AND (search_name LIKE $%d OR lower(sku) LIKE $%d)", len(args), len(args))
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		where += fmt.Sprintf(" AND category = $%d", len(args))
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM products "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("products: count: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	args = append(args, limit, filter.Offset)
	query := fmt.Sprintf("SELECT %s FROM products %s ORDER BY name ASC LIMIT $%d OFFSET $%d",
		productColumns, where, len(args)-1, len(args))
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("products: list: %w", err)
	}
	defer rows.Close()

	result := make([]Product, 0, limit)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("products: scan: %w", err)
		}
		result = append(result, p)
	}
	return result, total, rows.Err()
}

func (r *Repository) Get(ctx context.Context, tenantID, id string) (Product, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products
WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	return r.one(row, id)
}

func (r *Repository) GetBySKU(ctx context.Context, tenantID, sku string) (Product, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products
WHERE tenant_id = $1 AND sku = $2`, tenantID, sku)
	return r.one(row, sku)
}

func (r *Repository) one(row pgx.Row, ref string) (Product, error) {
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, fmt.Errorf("products: %s: %w", ref, shared.ErrNotFound)
		}
		return Product{}, fmt.Errorf("products: get: %w", err)
	}
	return p, nil
}

func (r *Repository) Create(ctx context.Context, p Product) (Product, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO products
(tenant_id, sku, name, search_name, description, category, brand, unit,
 cost_price, sale_price, is_active)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
RETURNING id, created_at, updated_at`,
		p.TenantID, p.SKU, p.Name, shared.NormalizeSearch(p.Name), p.Description,
		p.Category, p.Brand, p.Unit, p.CostPrice, p.SalePrice, p.IsActive)
	if err := row.Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if isUniqueViolation(err) {
			return Product{}, fmt.Errorf("products: sku %s: %w", p.SKU, httpx.ErrDuplicate)
		}
		return Product{}, fmt.Errorf("products: create: %w", err)
	}
	return p, nil
}

func (r *Repository) Update(ctx context.Context, p Product) (Product, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE products SET sku=$3, name=$4, search_name=$5,
description=$6, category=$7, brand=$8, unit=$9, cost_price=$10, sale_price=$11,
is_active=$12, updated_at=now()
WHERE tenant_id = $1 AND id = $2`,
		p.TenantID, p.ID, p.SKU, p.Name, shared.NormalizeSearch(p.Name),
		p.Description, p.Category, p.Brand, p.Unit, p.CostPrice, p.SalePrice, p.IsActive)
	if err != nil {
		if isUniqueViolation(err) {
			return Product{}, fmt.Errorf("products: sku %s: %w", p.SKU, httpx.ErrDuplicate)
		}
		return Product{}, fmt.Errorf("products: update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return Product{}, fmt.Errorf("products: %s: %w", p.ID, shared.ErrNotFound)
	}
	return r.Get(ctx, p.TenantID, p.ID)
}

// Delete removes the product and its stock rows in one transaction.
func (r *Repository) Delete(ctx context.Context, tenantID, id string) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("products: begin delete: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM branch_stock
WHERE tenant_id = $1 AND product_id = $2`, tenantID, id); err != nil {
		return fmt.Errorf("products: delete stock: %w", err)
	}
	tag, err := tx.Exec(ctx, `DELETE FROM products
WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	if err != nil {
		return fmt.Errorf("products: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("products: %s: %w", id, shared.ErrNotFound)
	}
	return tx.Commit(ctx)
}

func (r *Repository) SetImageURL(ctx context.Context, tenantID, id, url string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE products SET image_url=$3, updated_at=now()
WHERE tenant_id = $1 AND id = $2`, tenantID, id, url)
	if err != nil {
		return fmt.Errorf("products: set image: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("products: %s: %w", id, shared.ErrNotFound)
	}
	return nil
}

func scanProduct(row pgx.Row) (Product, error) {
	var (
		p        Product
		imageURL *string
	)
	err := row.Scan(&p.ID, &p.TenantID, &p.SKU, &p.Name, &p.Description,
		&p.Category, &p.Brand, &p.Unit, &p.CostPrice, &p.SalePrice,
		&imageURL, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if imageURL != nil {
		p.ImageURL = *imageURL
	}
	return p, err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
