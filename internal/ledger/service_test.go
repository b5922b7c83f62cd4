package ledger

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gestionpro/gestionpro/internal/shared"
)

type memoryRepo struct {
	stocks map[string]*BranchStock
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{stocks: make(map[string]*BranchStock)}
}

func key(productID, branchID string) string {
	return fmt.Sprintf("%s:%s", productID, branchID)
}

func (r *memoryRepo) seed(productID, branchID string, stock int64) {
	r.stocks[key(productID, branchID)] = &BranchStock{ProductID: productID, BranchID: branchID, Stock: stock}
}

func (r *memoryRepo) ConsolidatedStock(ctx context.Context, tenantID, productID string) (int64, error) {
	var total int64
	for _, bs := range r.stocks {
		if bs.ProductID == productID {
			total += bs.Stock
		}
	}
	return total, nil
}

func (r *memoryRepo) Decrement(ctx context.Context, tenantID, productID, branchID string, qty int64) error {
	bs, ok := r.stocks[key(productID, branchID)]
	if !ok {
		return shared.ErrNotFound
	}
	if bs.Stock < qty {
		return ErrInsufficientStock
	}
	bs.Stock -= qty
	return nil
}

func (r *memoryRepo) Increment(ctx context.Context, tenantID, productID, branchID string, qty int64) error {
	bs, ok := r.stocks[key(productID, branchID)]
	if !ok {
		return shared.ErrNotFound
	}
	bs.Stock += qty
	return nil
}

func (r *memoryRepo) UpsertForProduct(ctx context.Context, tenantID, productID string, rows []StockRow) error {
	for _, row := range rows {
		r.stocks[key(productID, row.BranchID)] = &BranchStock{
			ProductID: productID,
			BranchID:  row.BranchID,
			Stock:     row.Stock,
			MinStock:  row.MinStock,
			CostPrice: row.CostPrice,
			SalePrice: row.SalePrice,
		}
	}
	return nil
}

func (r *memoryRepo) ListForProduct(ctx context.Context, tenantID, productID string) ([]BranchStock, error) {
	var result []BranchStock
	for _, bs := range r.stocks {
		if bs.ProductID == productID {
			result = append(result, *bs)
		}
	}
	return result, nil
}

func (r *memoryRepo) ListLowStock(ctx context.Context, tenantID string) ([]BranchStock, error) {
	var result []BranchStock
	for _, bs := range r.stocks {
		if bs.Stock <= bs.MinStock {
			result = append(result, *bs)
		}
	}
	return result, nil
}

func TestDecrementRejectsNegativeStock(t *testing.T) {
	repo := newMemoryRepo()
	repo.seed("p1", "b1", 3)
	svc := NewService(repo, nil)
	ctx := context.Background()

	err := svc.Decrement(ctx, "t1", "p1", "b1", 5)
	require.ErrorIs(t, err, ErrInsufficientStock)

	total, err := svc.ConsolidatedStock(ctx, "t1", "p1")
	require.NoError(t, err)
	require.Equal(t, int64(3), total)
}

func TestDecrementThenIncrementRestoresStock(t *testing.T) {
	repo := newMemoryRepo()
	repo.seed("p1", "b1", 10)
	svc := NewService(repo, nil)
	ctx := context.Background()

	require.NoError(t, svc.Decrement(ctx, "t1", "p1", "b1", 4))
	total, err := svc.ConsolidatedStock(ctx, "t1", "p1")
	require.NoError(t, err)
	require.Equal(t, int64(6), total)

	require.NoError(t, svc.Increment(ctx, "t1", "p1", "b1", 4))
	total, err = svc.ConsolidatedStock(ctx, "t1", "p1")
	require.NoError(t, err)
	require.Equal(t, int64(10), total)
}

func TestConsolidatedStockSumsBranches(t *testing.T) {
	repo := newMemoryRepo()
	repo.seed("p1", "b1", 2)
	repo.seed("p1", "b2", 5)
	repo.seed("p2", "b1", 9)
	svc := NewService(repo, nil)

	total, err := svc.ConsolidatedStock(context.Background(), "t1", "p1")
	require.NoError(t, err)
	require.Equal(t, int64(7), total)
}

func TestDecrementValidatesQuantity(t *testing.T) {
	repo := newMemoryRepo()
	repo.seed("p1", "b1", 5)
	svc := NewService(repo, nil)

	err := svc.Decrement(context.Background(), "t1", "p1", "b1", 0)
	require.ErrorIs(t, err, ErrInvalidQuantity)

	err = svc.Decrement(context.Background(), "t1", "p1", "b1", -2)
	require.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestIncrementMissingRowFails(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)

	err := svc.Increment(context.Background(), "t1", "p1", "b1", 1)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestUpsertForProductOverwrites(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	rows := []StockRow{
		{BranchID: "b1", Stock: 10, MinStock: 2, CostPrice: 100, SalePrice: 150},
		{BranchID: "b2", Stock: 0, MinStock: 1, SalePrice: 150},
	}
	require.NoError(t, svc.UpsertForProduct(ctx, "t1", "p1", rows))

	total, err := svc.ConsolidatedStock(ctx, "t1", "p1")
	require.NoError(t, err)
	require.Equal(t, int64(10), total)

	rows[0].Stock = 4
	require.NoError(t, svc.UpsertForProduct(ctx, "t1", "p1", rows[:1]))
	total, err = svc.ConsolidatedStock(ctx, "t1", "p1")
	require.NoError(t, err)
	require.Equal(t, int64(4), total)
}
