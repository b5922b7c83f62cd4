package ledger

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gestionpro/gestionpro/internal/shared"
)

// RepositoryPort abstracts ledger persistence for the service.
type RepositoryPort interface {
	ConsolidatedStock(ctx context.Context, tenantID, productID string) (int64, error)
	Decrement(ctx context.Context, tenantID, productID, branchID string, qty int64) error
	Increment(ctx context.Context, tenantID, productID, branchID string, qty int64) error
	UpsertForProduct(ctx context.Context, tenantID, productID string, rows []StockRow) error
	ListForProduct(ctx context.Context, tenantID, productID string) ([]BranchStock, error)
	ListLowStock(ctx context.Context, tenantID string) ([]BranchStock, error)
}

// Repository persists branch stock in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ConsolidatedStock sums a product's stock across all branches.
func (r *Repository) ConsolidatedStock(ctx context.Context, tenantID, productID string) (int64, error) {
	var total int64
	err := r.pool.QueryRow(ctx, `SELECT COALESCE(SUM(stock), 0) FROM branch_stock WHERE tenant_id=$1 AND product_id=$2`,
		tenantID, productID).Scan(&total)
	if err != nil {
		return 0, err
	}
	return total, nil
}

// Decrement atomically subtracts qty from one branch row. The guard
// `stock >= qty` lives in the UPDATE itself so two racing sales cannot
// both succeed on the same units.
func (r *Repository) Decrement(ctx context.Context, tenantID, productID, branchID string, qty int64) error {
	tag, err := r.pool.Exec(ctx, `UPDATE branch_stock SET stock = stock - $4
WHERE tenant_id=$1 AND product_id=$2 AND branch_id=$3 AND stock >= $4`,
		tenantID, productID, branchID, qty)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return r.classifyMiss(ctx, tenantID, productID, branchID, ErrInsufficientStock)
	}
	return nil
}

// Increment adds qty back to one branch row, used to reverse a decrement.
func (r *Repository) Increment(ctx context.Context, tenantID, productID, branchID string, qty int64) error {
	tag, err := r.pool.Exec(ctx, `UPDATE branch_stock SET stock = stock + $4
WHERE tenant_id=$1 AND product_id=$2 AND branch_id=$3`,
		tenantID, productID, branchID, qty)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("ledger: branch stock %s/%s: %w", productID, branchID, shared.ErrNotFound)
	}
	return nil
}

// UpsertForProduct overwrites stock figures for the given branches,
// creating rows for branches not yet present.
func (r *Repository) UpsertForProduct(ctx context.Context, tenantID, productID string, rows []StockRow) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, row := range rows {
		_, err := tx.Exec(ctx, `INSERT INTO branch_stock (tenant_id, product_id, branch_id, stock, min_stock, cost_price, sale_price, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,NOW())
ON CONFLICT (product_id, branch_id) DO UPDATE SET stock=EXCLUDED.stock, min_stock=EXCLUDED.min_stock, cost_price=EXCLUDED.cost_price, sale_price=EXCLUDED.sale_price`,
			tenantID, productID, row.BranchID, row.Stock, row.MinStock, row.CostPrice, row.SalePrice)
		if err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// ListForProduct returns all branch rows for a product.
func (r *Repository) ListForProduct(ctx context.Context, tenantID, productID string) ([]BranchStock, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, tenant_id, product_id, branch_id, stock, min_stock, COALESCE(cost_price, 0), sale_price, created_at
FROM branch_stock WHERE tenant_id=$1 AND product_id=$2 ORDER BY branch_id`,
		tenantID, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanBranchStocks(rows)
}

// ListLowStock returns rows at or below their reorder threshold.
func (r *Repository) ListLowStock(ctx context.Context, tenantID string) ([]BranchStock, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, tenant_id, product_id, branch_id, stock, min_stock, COALESCE(cost_price, 0), sale_price, created_at
FROM branch_stock WHERE tenant_id=$1 AND stock <= min_stock ORDER BY product_id, branch_id`,
		tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanBranchStocks(rows)
}

// classifyMiss distinguishes a missing row from an insufficient one after
// a zero-row UPDATE.
func (r *Repository) classifyMiss(ctx context.Context, tenantID, productID, branchID string, insufficient error) error {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM branch_stock WHERE tenant_id=$1 AND product_id=$2 AND branch_id=$3)`,
		tenantID, productID, branchID).Scan(&exists)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("ledger: branch stock %s/%s: %w", productID, branchID, shared.ErrNotFound)
	}
	return insufficient
}

func scanBranchStocks(rows pgx.Rows) ([]BranchStock, error) {
	var result []BranchStock
	for rows.Next() {
		var bs BranchStock
		if err := rows.Scan(&bs.ID, &bs.TenantID, &bs.ProductID, &bs.BranchID, &bs.Stock, &bs.MinStock, &bs.CostPrice, &bs.SalePrice, &bs.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, bs)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

var _ RepositoryPort = (*Repository)(nil)
