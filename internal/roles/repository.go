package roles

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gestionpro/gestionpro/internal/shared"
)

// RepositoryPort abstracts role persistence.
type RepositoryPort interface {
	List(ctx context.Context, tenantID string) ([]Role, error)
	Get(ctx context.Context, tenantID, id string) (Role, error)
	Create(ctx context.Context, role Role) (Role, error)
	Update(ctx context.Context, role Role) (Role, error)
	Delete(ctx context.Context, tenantID, id string) error
	AssignedCount(ctx context.Context, tenantID, id string) (int, error)
}

// Repository persists roles in PostgreSQL. Permissions are a JSONB array.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

var _ RepositoryPort = (*Repository)(nil)

const roleColumns = `id, tenant_id, name, description, permissions, is_active, created_at`

func (r *Repository) List(ctx context.Context, tenantID string) ([]Role, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+roleColumns+` FROM roles
WHERE tenant_id = $1 ORDER BY name ASC`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("roles: list: %w", err)
	}
	defer rows.Close()

	var result []Role
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, fmt.Errorf("roles: scan: %w", err)
		}
		result = append(result, role)
	}
	return result, rows.Err()
}

func (r *Repository) Get(ctx context.Context, tenantID, id string) (Role, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+roleColumns+` FROM roles
WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	role, err := scanRole(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Role{}, fmt.Errorf("roles: %s: %w", id, shared.ErrNotFound)
		}
		return Role{}, fmt.Errorf("roles: get: %w", err)
	}
	return role, nil
}

func (r *Repository) Create(ctx context.Context, role Role) (Role, error) {
	perms, err := json.Marshal(role.Permissions)
	if err != nil {
		return Role{}, fmt.Errorf("roles: marshal permissions: %w", err)
	}
	row := r.pool.QueryRow(ctx, `INSERT INTO roles
(tenant_id, name, description, permissions, is_active)
VALUES ($1,$2,$3,$4,$5)
RETURNING id, created_at`,
		role.TenantID, role.Name, role.Description, perms, role.IsActive)
	if err := row.Scan(&role.ID, &role.CreatedAt); err != nil {
		return Role{}, fmt.Errorf("roles: create: %w", err)
	}
	return role, nil
}

func (r *Repository) Update(ctx context.Context, role Role) (Role, error) {
	perms, err := json.Marshal(role.Permissions)
	if err != nil {
		return Role{}, fmt.Errorf("roles: marshal permissions: %w", err)
	}
	tag, err := r.pool.Exec(ctx, `UPDATE roles
SET name=$3, description=$4, permissions=$5, is_active=$6
WHERE tenant_id = $1 AND id = $2`,
		role.TenantID, role.ID, role.Name, role.Description, perms, role.IsActive)
	if err != nil {
		return Role{}, fmt.Errorf("roles: update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return Role{}, fmt.Errorf("roles: %s: %w", role.ID, shared.ErrNotFound)
	}
	return r.Get(ctx, role.TenantID, role.ID)
}

func (r *Repository) Delete(ctx context.Context, tenantID, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM roles
WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	if err != nil {
		return fmt.Errorf("roles: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("roles: %s: %w", id, shared.ErrNotFound)
	}
	return nil
}

func (r *Repository) AssignedCount(ctx context.Context, tenantID, id string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM profiles
WHERE tenant_id = $1 AND role_id = $2`, tenantID, id).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("roles: assigned count: %w", err)
	}
	return count, nil
}

func scanRole(row pgx.Row) (Role, error) {
	var (
		role  Role
		perms []byte
	)
	err := row.Scan(&role.ID, &role.TenantID, &role.Name, &role.Description,
		&perms, &role.IsActive, &role.CreatedAt)
	if err != nil {
		return Role{}, err
	}
	if err := json.Unmarshal(perms, &role.Permissions); err != nil {
		return Role{}, err
	}
	return role, nil
}
