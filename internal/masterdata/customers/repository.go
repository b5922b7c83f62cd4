package customers

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

// RepositoryPort abstracts customer persistence.
type RepositoryPort interface {
	List(ctx context.Context, tenantID string, filter ListFilter) ([]Customer, int, error)
	Get(ctx context.Context, tenantID, id string) (Customer, error)
	Create(ctx context.Context, c Customer) (Customer, error)
	Update(ctx context.Context, c Customer) (Customer, error)
	Delete(ctx context.Context, tenantID, id string) error
}

// Repository persists customers in PostgreSQL. A search_name column holds
// the accent-stripped lowercase name so lookups match regardless of
// diacritics.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

var _ RepositoryPort = (*Repository)(nil)

const customerColumns = `id, tenant_id, name, email, phone, address, cuit, notes, is_active, created_at`

func (r *Repository) List(ctx context.Context, tenantID string, filter ListFilter) ([]Customer, int, error) {
	where := "WHERE tenant_id = $1"
	args := []any{tenantID}
	if filter.Search != "" {
		args = append(args, "%"+shared.NormalizeSearch(filter.Search)+"%")
		where += fmt.Sprintf(" AND search_name LIKE $%d", len(args))
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM customers "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("customers: count: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	args = append(args, limit, filter.Offset)
	query := fmt.Sprintf("SELECT %s FROM customers %s ORDER BY name ASC LIMIT $%d OFFSET $%d",
		customerColumns, where, len(args)-1, len(args))
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("customers: list: %w", err)
	}
	defer rows.Close()

	result := make([]Customer, 0, limit)
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("customers: scan: %w", err)
		}
		result = append(result, c)
	}
	return result, total, rows.Err()
}

func (r *Repository) Get(ctx context.Context, tenantID, id string) (Customer, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+customerColumns+` FROM customers
WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	c, err := scanCustomer(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Customer{}, fmt.Errorf("customers: %s: %w", id, shared.ErrNotFound)
		}
		return Customer{}, fmt.Errorf("customers: get: %w", err)
	}
	return c, nil
}

func (r *Repository) Create(ctx context.Context, c Customer) (Customer, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO customers
(tenant_id, name, search_name, email, phone, address, cuit, notes, is_active)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
RETURNING id, created_at`,
		c.TenantID, c.Name, shared.NormalizeSearch(c.Name), c.Email, c.Phone,
		c.Address, c.CUIT, c.Notes, c.IsActive)
	if err := row.Scan(&c.ID, &c.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			return Customer{}, fmt.Errorf("customers: %s: %w", c.Email, httpx.ErrDuplicate)
		}
		return Customer{}, fmt.Errorf("customers: create: %w", err)
	}
	return c, nil
}

func (r *Repository) Update(ctx context.Context, c Customer) (Customer, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE customers SET name=$3, search_name=$4,
email=$5, phone=$6, address=$7, cuit=$8, notes=$9, is_active=$10
WHERE tenant_id = $1 AND id = $2`,
		c.TenantID, c.ID, c.Name, shared.NormalizeSearch(c.Name), c.Email,
		c.Phone, c.Address, c.CUIT, c.Notes, c.IsActive)
	if err != nil {
		if isUniqueViolation(err) {
			return Customer{}, fmt.Errorf("customers: %s: %w", c.Email, httpx.ErrDuplicate)
		}
		return Customer{}, fmt.Errorf("customers: update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return Customer{}, fmt.Errorf("customers: %s: %w", c.ID, shared.ErrNotFound)
	}
	return r.Get(ctx, c.TenantID, c.ID)
}

func (r *Repository) Delete(ctx context.Context, tenantID, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM customers
WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	if err != nil {
		return fmt.Errorf("customers: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("customers: %s: %w", id, shared.ErrNotFound)
	}
	return nil
}

func scanCustomer(row pgx.Row) (Customer, error) {
	var c Customer
	err := row.Scan(&c.ID, &c.TenantID, &c.Name, &c.Email, &c.Phone,
		&c.Address, &c.CUIT, &c.Notes, &c.IsActive, &c.CreatedAt)
	return c, err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
