package integrations

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gestionpro/gestionpro/internal/shared"
)

// RepositoryPort abstracts integration persistence.
type RepositoryPort interface {
	List(ctx context.Context, tenantID string) ([]Platform, error)
	Get(ctx context.Context, tenantID, id string) (Platform, error)
	Create(ctx context.Context, p Platform) (Platform, error)
	Update(ctx context.Context, p Platform) (Platform, error)
	Delete(ctx context.Context, tenantID, id string) error
	InsertSyncLog(ctx context.Context, log SyncLog) error
	ListSyncLogs(ctx context.Context, tenantID, platformID string, limit int) ([]SyncLog, error)
}

// Repository persists integrations in PostgreSQL. Credentials and sync
// configuration are JSONB columns.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

var _ RepositoryPort = (*Repository)(nil)

const platformColumns = `id, tenant_id, kind, name, api_credentials, sync_config, is_active, created_at`

func (r *Repository) List(ctx context.Context, tenantID string) ([]Platform, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+platformColumns+` FROM integration_platforms
WHERE tenant_id = $1 ORDER BY created_at ASC`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("integrations: list: %w", err)
	}
	defer rows.Close()

	var result []Platform
	for rows.Next() {
		p, err := scanPlatform(rows)
		if err != nil {
			return nil, fmt.Errorf("integrations: scan: %w", err)
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

func (r *Repository) Get(ctx context.Context, tenantID, id string) (Platform, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+platformColumns+` FROM integration_platforms
WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	p, err := scanPlatform(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Platform{}, fmt.Errorf("integrations: %s: %w", id, shared.ErrNotFound)
		}
		return Platform{}, fmt.Errorf("integrations: get: %w", err)
	}
	return p, nil
}

func (r *Repository) Create(ctx context.Context, p Platform) (Platform, error) {
	creds, cfg, err := marshalJSONB(p)
	if err != nil {
		return Platform{}, err
	}
	row := r.pool.QueryRow(ctx, `INSERT INTO integration_platforms
(tenant_id, kind, name, api_credentials, sync_config, is_active)
VALUES ($1,$2,$3,$4,$5,$6)
RETURNING id, created_at`,
		p.TenantID, p.Kind, p.Name, creds, cfg, p.IsActive)
	if err := row.Scan(&p.ID, &p.CreatedAt); err != nil {
		return Platform{}, fmt.Errorf("integrations: create: %w", err)
	}
	return p, nil
}

func (r *Repository) Update(ctx context.Context, p Platform) (Platform, error) {
	creds, cfg, err := marshalJSONB(p)
	if err != nil {
		return Platform{}, err
	}
	tag, err := r.pool.Exec(ctx, `UPDATE integration_platforms
SET kind=$3, name=$4, api_credentials=$5, sync_config=$6, is_active=$7
WHERE tenant_id = $1 AND id = $2`,
		p.TenantID, p.ID, p.Kind, p.Name, creds, cfg, p.IsActive)
	if err != nil {
		return Platform{}, fmt.Errorf("integrations: update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return Platform{}, fmt.Errorf("integrations: %s: %w", p.ID, shared.ErrNotFound)
	}
	return r.Get(ctx, p.TenantID, p.ID)
}

func (r *Repository) Delete(ctx context.Context, tenantID, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM integration_platforms
WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	if err != nil {
		return fmt.Errorf("integrations: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("integrations: %s: %w", id, shared.ErrNotFound)
	}
	return nil
}

func (r *Repository) InsertSyncLog(ctx context.Context, log SyncLog) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO sync_logs
(tenant_id, platform_id, status, message, items)
VALUES ($1,$2,$3,$4,$5)`,
		log.TenantID, log.PlatformID, log.Status, log.Message, log.Items)
	if err != nil {
		return fmt.Errorf("integrations: insert sync log: %w", err)
	}
	return nil
}

func (r *Repository) ListSyncLogs(ctx context.Context, tenantID, platformID string, limit int) ([]SyncLog, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `SELECT id, tenant_id, platform_id, status, message, items, created_at
FROM sync_logs
WHERE tenant_id = $1 AND platform_id = $2
ORDER BY created_at DESC LIMIT $3`, tenantID, platformID, limit)
	if err != nil {
		return nil, fmt.Errorf("integrations: list sync logs: %w", err)
	}
	defer rows.Close()

	var result []SyncLog
	for rows.Next() {
		var log SyncLog
		if err := rows.Scan(&log.ID, &log.TenantID, &log.PlatformID, &log.Status,
			&log.Message, &log.Items, &log.CreatedAt); err != nil {
			return nil, fmt.Errorf("integrations: scan sync log: %w", err)
		}
		result = append(result, log)
	}
	return result, rows.Err()
}

func marshalJSONB(p Platform) ([]byte, []byte, error) {
	creds, err := json.Marshal(p.Credentials)
	if err != nil {
		return nil, nil, fmt.Errorf("integrations: marshal credentials: %w", err)
	}
	cfg, err := json.Marshal(p.SyncConfig)
	if err != nil {
		return nil, nil, fmt.Errorf("integrations: marshal sync config: %w", err)
	}
	return creds, cfg, nil
}

func scanPlatform(row pgx.Row) (Platform, error) {
	var (
		p     Platform
		creds []byte
		cfg   []byte
	)
	err := row.Scan(&p.ID, &p.TenantID, &p.Kind, &p.Name, &creds, &cfg,
		&p.IsActive, &p.CreatedAt)
	if err != nil {
		return Platform{}, err
	}
	if err := json.Unmarshal(creds, &p.Credentials); err != nil {
		return Platform{}, err
	}
	if err := json.Unmarshal(cfg, &p.SyncConfig); err != nil {
		return Platform{}, err
	}
	return p, nil
}
