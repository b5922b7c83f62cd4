package suppliers

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gestionpro/gestionpro/internal/shared"
)

// RepositoryPort abstracts supplier persistence.
type RepositoryPort interface {
	List(ctx context.Context, tenantID string, filter ListFilter) ([]Supplier, int, error)
	Get(ctx context.Context, tenantID, id string) (Supplier, error)
	Create(ctx context.Context, s Supplier) (Supplier, error)
	Update(ctx context.Context, s Supplier) (Supplier, error)
	Delete(ctx context.Context, tenantID, id string) error
}

// Repository persists suppliers in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

var _ RepositoryPort = (*Repository)(nil)

const supplierColumns = `id, tenant_id, name, contact_name, email, phone, address, cuit, notes, is_active, created_at`

func (r *Repository) List(ctx context.Context, tenantID string, filter ListFilter) ([]Supplier, int, error) {
	where := "WHERE tenant_id = $1"
	args := []any{tenantID}
	if filter.Search != "" {
		args = append(args, "%"+shared.NormalizeSearch(filter.Search)+"%")
		where += fmt.Sprintf(" AND search_name LIKE $%d", len(args))
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM suppliers "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("suppliers: count: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	args = append(args, limit, filter.Offset)
	query := fmt.Sprintf("SELECT %s FROM suppliers %s ORDER BY name ASC LIMIT $%d OFFSET $%d",
		supplierColumns, where, len(args)-1, len(args))
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("suppliers: list: %w", err)
	}
	defer rows.Close()

	result := make([]Supplier, 0, limit)
	for rows.Next() {
		s, err := scanSupplier(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("suppliers: scan: %w", err)
		}
		result = append(result, s)
	}
	return result, total, rows.Err()
}

func (r *Repository) Get(ctx context.Context, tenantID, id string) (Supplier, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+supplierColumns+` FROM suppliers
WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	s, err := scanSupplier(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Supplier{}, fmt.Errorf("suppliers: %s: %w", id, shared.ErrNotFound)
		}
		return Supplier{}, fmt.Errorf("suppliers: get: %w", err)
	}
	return s, nil
}

func (r *Repository) Create(ctx context.Context, s Supplier) (Supplier, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO suppliers
(tenant_id, name, search_name, contact_name, email, phone, address, cuit, notes, is_active)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
RETURNING id, created_at`,
		s.TenantID, s.Name, shared.NormalizeSearch(s.Name), s.ContactName,
		s.Email, s.Phone, s.Address, s.CUIT, s.Notes, s.IsActive)
	if err := row.Scan(&s.ID, &s.CreatedAt); err != nil {
		return Supplier{}, fmt.Errorf("suppliers: create: %w", err)
	}
	return s, nil
}

func (r *Repository) Update(ctx context.Context, s Supplier) (Supplier, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE suppliers SET name=$3, search_name=$4,
contact_name=$5, email=$6, phone=$7, address=$8, cuit=$9, notes=$10, is_active=$11
WHERE tenant_id = $1 AND id = $2`,
		s.TenantID, s.ID, s.Name, shared.NormalizeSearch(s.Name), s.ContactName,
		s.Email, s.Phone, s.Address, s.CUIT, s.Notes, s.IsActive)
	if err != nil {
		return Supplier{}, fmt.Errorf("suppliers: update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return Supplier{}, fmt.Errorf("suppliers: %s: %w", s.ID, shared.ErrNotFound)
	}
	return r.Get(ctx, s.TenantID, s.ID)
}

func (r *Repository) Delete(ctx context.Context, tenantID, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM suppliers
WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	if err != nil {
		return fmt.Errorf("suppliers: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("suppliers: %s: %w", id, shared.ErrNotFound)
	}
	return nil
}

func scanSupplier(row pgx.Row) (Supplier, error) {
	var s Supplier
	err := row.Scan(&s.ID, &s.TenantID, &s.Name, &s.ContactName, &s.Email,
		&s.Phone, &s.Address, &s.CUIT, &s.Notes, &s.IsActive, &s.CreatedAt)
	return s, err
}
