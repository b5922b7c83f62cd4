package settlement

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gestionpro/gestionpro/internal/sales/documents"
	"github.com/gestionpro/gestionpro/internal/shared"
)

// Repository gives the allocator direct access to sale_documents rows.
type Repository struct {
	pool *pgxpool.Pool
	docs *documents.Repository
}

// NewRepository constructs Repository. Reads delegate to the documents
// repository; payment writes are settlement's own.
func NewRepository(pool *pgxpool.Pool, docs *documents.Repository) *Repository {
	return &Repository{pool: pool, docs: docs}
}

var _ DocumentPort = (*Repository)(nil)

func (r *Repository) Get(ctx context.Context, tenantID, id string) (documents.Document, error) {
	return r.docs.Get(ctx, tenantID, id)
}

// ApplyPayment adds amount to a document's paid total in a single guarded
// statement, so concurrent settlements cannot overpay an invoice.
func (r *Repository) ApplyPayment(ctx context.Context, tenantID, id string, amount float64, status documents.DocumentStatus) error {
	tag, err := r.pool.Exec(ctx, `UPDATE sale_documents
SET paid_amount = paid_amount + $3, status = $4
WHERE tenant_id = $1 AND id = $2 AND type = 'invoice'
  AND status IN ('pending', 'partially_paid')
  AND paid_amount + $3 <= total + 0.005`,
		tenantID, id, amount, status)
	if err != nil {
		return fmt.Errorf("settlement: apply payment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("settlement: document %s not payable: %w", id, shared.ErrNotFound)
	}
	return nil
}

func (r *Repository) OutstandingByCustomer(ctx context.Context, tenantID, customerID string) ([]documents.Document, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, type, customer, items, subtotal, tax, total,
paid_amount, status, payment_method, payment_currency, branch_id, created_at
FROM sale_documents
WHERE tenant_id = $1 AND customer->>'id' = $2 AND type = 'invoice'
  AND status IN ('pending', 'partially_paid')
ORDER BY created_at ASC`, tenantID, customerID)
	if err != nil {
		return nil, fmt.Errorf("settlement: outstanding invoices: %w", err)
	}
	defer rows.Close()

	var docs []documents.Document
	for rows.Next() {
		var (
			doc       documents.Document
			customer  []byte
			items     []byte
			createdAt time.Time
		)
		err := rows.Scan(&doc.ID, &doc.Type, &customer, &items, &doc.Subtotal,
			&doc.Tax, &doc.Total, &doc.PaidAmount, &doc.Status,
			&doc.PaymentMethod, &doc.PaymentCurrency, &doc.BranchID, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("settlement: scan: %w", err)
		}
		if err := json.Unmarshal(customer, &doc.Customer); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(items, &doc.Items); err != nil {
			return nil, err
		}
		doc.TenantID = tenantID
		doc.CreatedAt = createdAt
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}
