package documents

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gestionpro/gestionpro/internal/shared"
)

// RepositoryPort abstracts document persistence.
type RepositoryPort interface {
	Insert(ctx context.Context, doc Document) (Document, error)
	Get(ctx context.Context, tenantID, id string) (Document, error)
	List(ctx context.Context, tenantID string, filter ListFilter) ([]Document, int, error)
	UpdateStatus(ctx context.Context, tenantID, id string, status DocumentStatus) error
}

// Repository persists sale documents in PostgreSQL. Items and the customer
// snapshot are stored as JSONB.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

var _ RepositoryPort = (*Repository)(nil)

func (r *Repository) Insert(ctx context.Context, doc Document) (Document, error) {
	items, err := json.Marshal(doc.Items)
	if err != nil {
		return Document{}, fmt.Errorf("documents: marshal items: %w", err)
	}
	customer, err := json.Marshal(doc.Customer)
	if err != nil {
		return Document{}, fmt.Errorf("documents: marshal customer: %w", err)
	}
	row := r.pool.QueryRow(ctx, `INSERT INTO sale_documents
(tenant_id, type, customer, items, subtotal, tax, total, paid_amount, status,
 payment_method, payment_currency, exchange_rate, branch_id, responsible_id)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
RETURNING id, created_at`,
		doc.TenantID, doc.Type, customer, items, doc.Subtotal, doc.Tax, doc.Total,
		doc.PaidAmount, doc.Status, doc.PaymentMethod, doc.PaymentCurrency,
		doc.ExchangeRate, doc.BranchID, nullIfEmpty(doc.ResponsibleID))
	if err := row.Scan(&doc.ID, &doc.CreatedAt); err != nil {
		return Document{}, fmt.Errorf("documents: insert: %w", err)
	}
	return doc, nil
}

func (r *Repository) Get(ctx context.Context, tenantID, id string) (Document, error) {
	row := r.pool.QueryRow(ctx, selectColumns+` FROM sale_documents
WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Document{}, fmt.Errorf("documents: %s: %w", id, shared.ErrNotFound)
		}
		return Document{}, fmt.Errorf("documents: get: %w", err)
	}
	return doc, nil
}

func (r *Repository) List(ctx context.Context, tenantID string, filter ListFilter) ([]Document, int, error) {
	where := "WHERE tenant_id = $1"
	args := []any{tenantID}
	if filter.Type != "" {
		args = append(args, filter.Type)
		where += fmt.Sprintf(" AND type = $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.CustomerID != "" {
		args = append(args, filter.CustomerID)
		where += fmt.Sprintf(" AND customer->>'id' = $%d", len(args))
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM sale_documents "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("documents: count: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	args = append(args, limit, filter.Offset)
	query := fmt.Sprintf("%s FROM sale_documents %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d",
		selectColumns, where, len(args)-1, len(args))
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("documents: list: %w", err)
	}
	defer rows.Close()

	docs := make([]Document, 0, limit)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("documents: scan: %w", err)
		}
		docs = append(docs, doc)
	}
	return docs, total, rows.Err()
}

func (r *Repository) UpdateStatus(ctx context.Context, tenantID, id string, status DocumentStatus) error {
	tag, err := r.pool.Exec(ctx, `UPDATE sale_documents SET status = $3
WHERE tenant_id = $1 AND id = $2`, tenantID, id, status)
	if err != nil {
		return fmt.Errorf("documents: update status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("documents: %s: %w", id, shared.ErrNotFound)
	}
	return nil
}

const selectColumns = `SELECT id, tenant_id, type, customer, items, subtotal, tax, total,
paid_amount, status, payment_method, payment_currency, exchange_rate, branch_id,
responsible_id, created_at`

func scanDocument(row pgx.Row) (Document, error) {
	var (
		doc         Document
		customer    []byte
		items       []byte
		responsible *string
		createdAt   time.Time
	)
	err := row.Scan(&doc.ID, &doc.TenantID, &doc.Type, &customer, &items,
		&doc.Subtotal, &doc.Tax, &doc.Total, &doc.PaidAmount, &doc.Status,
		&doc.PaymentMethod, &doc.PaymentCurrency, &doc.ExchangeRate,
		&doc.BranchID, &responsible, &createdAt)
	if err != nil {
		return Document{}, err
	}
	if err := json.Unmarshal(customer, &doc.Customer); err != nil {
		return Document{}, err
	}
	if err := json.Unmarshal(items, &doc.Items); err != nil {
		return Document{}, err
	}
	if responsible != nil {
		doc.ResponsibleID = *responsible
	}
	doc.CreatedAt = createdAt
	return doc, nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
