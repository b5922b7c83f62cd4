package users

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gestionpro/gestionpro/internal/platform/httpx"
	"github.com/gestionpro/gestionpro/internal/shared"
)

// RepositoryPort abstracts profile persistence.
type RepositoryPort interface {
	List(ctx context.Context, tenantID string) ([]Profile, error)
	Get(ctx context.Context, tenantID, id string) (Profile, error)
	Insert(ctx context.Context, p Profile, passwordHash string) (Profile, error)
	Update(ctx context.Context, p Profile) (Profile, error)
	UpdateConfig(ctx context.Context, tenantID, id string, config map[string]any) error
	SetAvatarURL(ctx context.Context, tenantID, id, url string) error
}

// Repository persists profiles in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

var _ RepositoryPort = (*Repository)(nil)

const profileColumns = `id, tenant_id, email, full_name, role_id, avatar_url, config, is_active, created_at`

func (r *Repository) List(ctx context.Context, tenantID string) ([]Profile, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+profileColumns+` FROM profiles
WHERE tenant_id = $1 ORDER BY created_at ASC`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("users: list: %w", err)
	}
	defer rows.Close()

	var result []Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("users: scan: %w", err)
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

func (r *Repository) Get(ctx context.Context, tenantID, id string) (Profile, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+profileColumns+` FROM profiles
WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	p, err := scanProfile(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Profile{}, fmt.Errorf("users: %s: %w", id, shared.ErrNotFound)
		}
		return Profile{}, fmt.Errorf("users: get: %w", err)
	}
	return p, nil
}

func (r *Repository) Insert(ctx context.Context, p Profile, passwordHash string) (Profile, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO profiles
(tenant_id, email, full_name, role_id, password_hash, is_active)
VALUES ($1,$2,$3,$4,$5,$6)
RETURNING id, created_at`,
		p.TenantID, p.Email, p.FullName, nullIfEmpty(p.RoleID), passwordHash, p.IsActive)
	if err := row.Scan(&p.ID, &p.CreatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Profile{}, fmt.Errorf("users: %s: %w", p.Email, httpx.ErrDuplicate)
		}
		return Profile{}, fmt.Errorf("users: insert: %w", err)
	}
	return p, nil
}

func (r *Repository) Update(ctx context.Context, p Profile) (Profile, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE profiles
SET full_name=$3, role_id=$4, is_active=$5
WHERE tenant_id = $1 AND id = $2`,
		p.TenantID, p.ID, p.FullName, nullIfEmpty(p.RoleID), p.IsActive)
	if err != nil {
		return Profile{}, fmt.Errorf("users: update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return Profile{}, fmt.Errorf("users: %s: %w", p.ID, shared.ErrNotFound)
	}
	return r.Get(ctx, p.TenantID, p.ID)
}

func (r *Repository) UpdateConfig(ctx context.Context, tenantID, id string, config map[string]any) error {
	payload, err := json.Marshal(config)
	if err != nil {
		return fmt.Errorf("users: marshal config: %w", err)
	}
	tag, err := r.pool.Exec(ctx, `UPDATE profiles SET config = $3
WHERE tenant_id = $1 AND id = $2`, tenantID, id, payload)
	if err != nil {
		return fmt.Errorf("users: update config: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("users: %s: %w", id, shared.ErrNotFound)
	}
	return nil
}

func (r *Repository) SetAvatarURL(ctx context.Context, tenantID, id, url string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE profiles SET avatar_url = $3
WHERE tenant_id = $1 AND id = $2`, tenantID, id, url)
	if err != nil {
		return fmt.Errorf("users: set avatar: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("users: %s: %w", id, shared.ErrNotFound)
	}
	return nil
}

func scanProfile(row pgx.Row) (Profile, error) {
	var (
		p      Profile
		roleID *string
		avatar *string
		config []byte
	)
	err := row.Scan(&p.ID, &p.TenantID, &p.Email, &p.FullName, &roleID,
		&avatar, &config, &p.IsActive, &p.CreatedAt)
	if err != nil {
		return Profile{}, err
	}
	if roleID != nil {
		p.RoleID = *roleID
	}
	if avatar != nil {
		p.AvatarURL = *avatar
	}
	if len(config) > 0 {
		if err := json.Unmarshal(config, &p.Config); err != nil {
			return Profile{}, err
		}
	}
	return p, nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
