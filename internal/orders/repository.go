package orders

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

// RepositoryPort abstracts order persistence.
type RepositoryPort interface {
	Insert(ctx context.Context, order Order) (Order, error)
	Get(ctx context.Context, tenantID, id string) (Order, error)
	List(ctx context.Context, tenantID string, status OrderStatus, limit, offset int) ([]Order, int, error)
	MarkProcessed(ctx context.Context, tenantID, id, documentID string) error
	MarkFailed(ctx context.Context, tenantID, id string, status OrderStatus, message string) error
	// CandidateBranches feeds the assignment resolver: active e-commerce
	// source branches holding a stock row for the product, in priority
	// order with id as tiebreak.
	Candidates(ctx context.Context, tenantID, productID string) ([]Availability, error)
}

// Repository persists e-commerce orders in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

var _ RepositoryPort = (*Repository)(nil)

func (r *Repository) Insert(ctx context.Context, order Order) (Order, error) {
	order.Data.Version = orderDataVersion
	data, err := json.Marshal(order.Data)
	if err != nil {
		return Order{}, fmt.Errorf("orders: marshal data: %w", err)
	}
	row := r.pool.QueryRow(ctx, `INSERT INTO ecommerce_orders
(tenant_id, platform_id, status, order_data)
VALUES ($1,$2,$3,$4)
RETURNING id, created_at`,
		order.TenantID, nullIfEmpty(order.PlatformID), order.Status, data)
	if err := row.Scan(&order.ID, &order.CreatedAt); err != nil {
		return Order{}, fmt.Errorf("orders: insert: %w", err)
	}
	return order, nil
}

func (r *Repository) Get(ctx context.Context, tenantID, id string) (Order, error) {
	row := r.pool.QueryRow(ctx, orderColumns+` FROM ecommerce_orders
WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	order, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, fmt.Errorf("orders: %s: %w", id, shared.ErrNotFound)
		}
		return Order{}, fmt.Errorf("orders: get: %w", err)
	}
	return order, nil
}

func (r *Repository) List(ctx context.Context, tenantID string, status OrderStatus, limit, offset int) ([]Order, int, error) {
	where := "WHERE tenant_id = $1"
	args := []any{tenantID}
	if status != "" {
		args = append(args, status)
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM ecommerce_orders "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("orders: count: %w", err)
	}

	if limit <= 0 || limit > 200 {
		limit = 50
	}
	args = append(args, limit, offset)
	query := fmt.Sprintf("%s FROM ecommerce_orders %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d",
		orderColumns, where, len(args)-1, len(args))
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("orders: list: %w", err)
	}
	defer rows.Close()

	result := make([]Order, 0, limit)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("orders: scan: %w", err)
		}
		result = append(result, order)
	}
	return result, total, rows.Err()
}

// MarkProcessed transitions a received order to processed. The status
// guard keeps double deliveries of the same task idempotent.
func (r *Repository) MarkProcessed(ctx context.Context, tenantID, id, documentID string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE ecommerce_orders
SET status = 'processed', document_id = $3, error_message = NULL, processed_at = now()
WHERE tenant_id = $1 AND id = $2 AND status = 'received'`,
		tenantID, id, documentID)
	if err != nil {
		return fmt.Errorf("orders: mark processed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("orders: %s not in received state: %w", id, shared.ErrNotFound)
	}
	return nil
}

func (r *Repository) MarkFailed(ctx context.Context, tenantID, id string, status OrderStatus, message string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE ecommerce_orders
SET status = $3, error_message = $4, processed_at = now()
WHERE tenant_id = $1 AND id = $2 AND status = 'received'`,
		tenantID, id, status, message)
	if err != nil {
		return fmt.Errorf("orders: mark failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("orders: %s not in received state: %w", id, shared.ErrNotFound)
	}
	return nil
}

func (r *Repository) Candidates(ctx context.Context, tenantID, productID string) ([]Availability, error) {
	rows, err := r.pool.Query(ctx, `SELECT b.id, b.priority_order, s.stock, s.sale_price
FROM branches b
JOIN branch_stock s ON s.branch_id = b.id AND s.product_id = $2 AND s.tenant_id = b.tenant_id
WHERE b.tenant_id = $1 AND b.is_active AND b.is_ecommerce_source
ORDER BY b.priority_order ASC, b.id ASC`, tenantID, productID)
	if err != nil {
		return nil, fmt.Errorf("orders: candidates: %w", err)
	}
	defer rows.Close()

	var result []Availability
	for rows.Next() {
		var a Availability
		if err := rows.Scan(&a.BranchID, &a.Priority, &a.Stock, &a.SalePrice); err != nil {
			return nil, fmt.Errorf("orders: scan candidate: %w", err)
		}
		result = append(result, a)
	}
	return result, rows.Err()
}

const orderColumns = `SELECT id, tenant_id, platform_id, status, order_data,
document_id, error_message, created_at, processed_at`

func scanOrder(row pgx.Row) (Order, error) {
	var (
		order      Order
		platformID *string
		data       []byte
		documentID *string
		errMsg     *string
		processed  *time.Time
	)
	err := row.Scan(&order.ID, &order.TenantID, &platformID, &order.Status,
		&data, &documentID, &errMsg, &order.CreatedAt, &processed)
	if err != nil {
		return Order{}, err
	}
	if err := json.Unmarshal(data, &order.Data); err != nil {
		return Order{}, err
	}
	if platformID != nil {
		order.PlatformID = *platformID
	}
	if documentID != nil {
		order.DocumentID = *documentID
	}
	if errMsg != nil {
		order.ErrorMessage = *errMsg
	}
	order.ProcessedAt = processed
	return order, nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
