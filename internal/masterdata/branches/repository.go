package branches

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gestionpro/gestionpro/internal/shared"
)

// RepositoryPort abstracts branch persistence.
type RepositoryPort interface {
	List(ctx context.Context, tenantID string) ([]Branch, error)
	Get(ctx context.Context, tenantID, id string) (Branch, error)
	Create(ctx context.Context, branch Branch) (Branch, error)
	Update(ctx context.Context, branch Branch) (Branch, error)
	Delete(ctx context.Context, tenantID, id string) error
	DefaultBranch(ctx context.Context, tenantID string) (string, error)
}

// Repository persists branches in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

var _ RepositoryPort = (*Repository)(nil)

const branchColumns = `id, tenant_id, name, address, phone, priority_order,
is_ecommerce_source, is_active, created_at`

// List returns branches in assignment order: priority ascending, id as
// tiebreak.
func (r *Repository) List(ctx context.Context, tenantID string) ([]Branch, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+branchColumns+` FROM branches
WHERE tenant_id = $1 ORDER BY priority_order ASC, id ASC`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("branches: list: %w", err)
	}
	defer rows.Close()

	var result []Branch
	for rows.Next() {
		b, err := scanBranch(rows)
		if err != nil {
			return nil, fmt.Errorf("branches: scan: %w", err)
		}
		result = append(result, b)
	}
	return result, rows.Err()
}

func (r *Repository) Get(ctx context.Context, tenantID, id string) (Branch, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+branchColumns+` FROM branches
WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	b, err := scanBranch(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Branch{}, fmt.Errorf("branches: %s: %w", id, shared.ErrNotFound)
		}
		return Branch{}, fmt.Errorf("branches: get: %w", err)
	}
	return b, nil
}

func (r *Repository) Create(ctx context.Context, branch Branch) (Branch, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO branches
(tenant_id, name, address, phone, priority_order, is_ecommerce_source, is_active)
VALUES ($1,$2,$3,$4,$5,$6,$7)
RETURNING id, created_at`,
		branch.TenantID, branch.Name, branch.Address, branch.Phone,
		branch.PriorityOrder, branch.IsEcommerceSource, branch.IsActive)
	if err := row.Scan(&branch.ID, &branch.CreatedAt); err != nil {
		return Branch{}, fmt.Errorf("branches: create: %w", err)
	}
	return branch, nil
}

func (r *Repository) Update(ctx context.Context, branch Branch) (Branch, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE branches SET name=$3, address=$4, phone=$5,
priority_order=$6, is_ecommerce_source=$7, is_active=$8
WHERE tenant_id = $1 AND id = $2`,
		branch.TenantID, branch.ID, branch.Name, branch.Address, branch.Phone,
		branch.PriorityOrder, branch.IsEcommerceSource, branch.IsActive)
	if err != nil {
		return Branch{}, fmt.Errorf("branches: update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return Branch{}, fmt.Errorf("branches: %s: %w", branch.ID, shared.ErrNotFound)
	}
	return r.Get(ctx, branch.TenantID, branch.ID)
}

// Delete removes the branch and its stock rows in one transaction.
func (r *Repository) Delete(ctx context.Context, tenantID, id string) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("branches: begin delete: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM branch_stock
WHERE tenant_id = $1 AND branch_id = $2`, tenantID, id); err != nil {
		return fmt.Errorf("branches: delete stock: %w", err)
	}
	tag, err := tx.Exec(ctx, `DELETE FROM branches
WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	if err != nil {
		return fmt.Errorf("branches: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("branches: %s: %w", id, shared.ErrNotFound)
	}
	return tx.Commit(ctx)
}

// DefaultBranch returns the active branch with the lowest priority.
func (r *Repository) DefaultBranch(ctx context.Context, tenantID string) (string, error) {
	var id string
	err := r.pool.QueryRow(ctx, `SELECT id FROM branches
WHERE tenant_id = $1 AND is_active
ORDER BY priority_order ASC, id ASC LIMIT 1`, tenantID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", fmt.Errorf("branches: no active branch: %w", shared.ErrNotFound)
		}
		return "", fmt.Errorf("branches: default: %w", err)
	}
	return id, nil
}

func scanBranch(row pgx.Row) (Branch, error) {
	var b Branch
	err := row.Scan(&b.ID, &b.TenantID, &b.Name, &b.Address, &b.Phone,
		&b.PriorityOrder, &b.IsEcommerceSource, &b.IsActive, &b.CreatedAt)
	return b, err
}
