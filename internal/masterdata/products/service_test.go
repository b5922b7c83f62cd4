package products

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gestionpro/gestionpro/internal/ledger"
	"github.com/gestionpro/gestionpro/internal/shared"
)

type fakeRepo struct {
	byID   map[string]Product
	nextID int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{byID: make(map[string]Product)}
}

func (r *fakeRepo) List(ctx context.Context, tenantID string, filter ListFilter) ([]Product, int, error) {
	var result []Product
	for _, p := range r.byID {
		result = append(result, p)
	}
	return result, len(result), nil
}

func (r *fakeRepo) Get(ctx context.Context, tenantID, id string) (Product, error) {
	p, ok := r.byID[id]
	if !ok {
		return Product{}, shared.ErrNotFound
	}
	return p, nil
}

func (r *fakeRepo) GetBySKU(ctx context.Context, tenantID, sku string) (Product, error) {
	for _, p := range r.byID {
		if p.SKU == sku {
			return p, nil
		}
	}
	return Product{}, shared.ErrNotFound
}

func (r *fakeRepo) Create(ctx context.Context, p Product) (Product, error) {
	r.nextID++
	p.ID = fmt.Sprintf("prod-%d", r.nextID)
	r.byID[p.ID] = p
	return p, nil
}

func (r *fakeRepo) Update(ctx context.Context, p Product) (Product, error) {
	if _, ok := r.byID[p.ID]; !ok {
		return Product{}, shared.ErrNotFound
	}
	r.byID[p.ID] = p
	return p, nil
}

func (r *fakeRepo) Delete(ctx context.Context, tenantID, id string) error {
	if _, ok := r.byID[id]; !ok {
		return shared.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *fakeRepo) SetImageURL(ctx context.Context, tenantID, id, url string) error {
	p, ok := r.byID[id]
	if !ok {
		return shared.ErrNotFound
	}
	p.ImageURL = url
	r.byID[id] = p
	return nil
}

type fakeStock struct {
	rows map[string][]ledger.StockRow
}

func newFakeStock() *fakeStock {
	return &fakeStock{rows: make(map[string][]ledger.StockRow)}
}

func (s *fakeStock) UpsertForProduct(ctx context.Context, tenantID, productID string, rows []ledger.StockRow) error {
	s.rows[productID] = rows
	return nil
}

func (s *fakeStock) ListForProduct(ctx context.Context, tenantID, productID string) ([]ledger.BranchStock, error) {
	var result []ledger.BranchStock
	for _, row := range s.rows[productID] {
		result = append(result, ledger.BranchStock{
			ProductID: productID,
			BranchID:  row.BranchID,
			Stock:     row.Stock,
			MinStock:  row.MinStock,
		})
	}
	return result, nil
}

type fakeBranches struct{ id string }

func (b fakeBranches) DefaultBranch(ctx context.Context, tenantID string) (string, error) {
	return b.id, nil
}

func newTestService(repo *fakeRepo, stock *fakeStock) *Service {
	return NewService(repo, stock, fakeBranches{id: "b-default"}, nil)
}

func TestCreateWritesStockRows(t *testing.T) {
	repo := newFakeRepo()
	stock := newFakeStock()
	svc := newTestService(repo, stock)

	p, err := svc.Create(context.Background(), "t1", ProductInput{
		SKU:       "SKU-1",
		Name:      "Widget",
		SalePrice: 150,
		IsActive:  true,
		Stocks: []ledger.StockRow{
			{BranchID: "b1", Stock: 10, MinStock: 2, SalePrice: 150},
		},
	})
	require.NoError(t, err)
	require.NotEmpty(t, p.ID)
	require.Len(t, stock.rows[p.ID], 1)
	require.Equal(t, int64(10), stock.rows[p.ID][0].Stock)
}

func TestImportCreatesNewSKUs(t *testing.T) {
	repo := newFakeRepo()
	stock := newFakeStock()
	svc := newTestService(repo, stock)

	result, err := svc.Import(context.Background(), "t1", []ImportRow{
		{SKU: "A-1", Name: "Alpha", SalePrice: 100, Stock: 5},
		{SKU: "A-2", Name: "Beta", SalePrice: 200, Stock: 3},
	}, ImportOverwrite, "")
	require.NoError(t, err)
	require.Equal(t, 2, result.Created)
	require.Zero(t, result.Updated)
	require.Empty(t, result.Errors)

	p, err := repo.GetBySKU(context.Background(), "t1", "A-1")
	require.NoError(t, err)
	require.Equal(t, "b-default", stock.rows[p.ID][0].BranchID)
	require.Equal(t, int64(5), stock.rows[p.ID][0].Stock)
}

func TestImportOverwriteUpdatesExisting(t *testing.T) {
	repo := newFakeRepo()
	stock := newFakeStock()
	svc := newTestService(repo, stock)
	ctx := context.Background()

	_, err := svc.Create(ctx, "t1", ProductInput{SKU: "A-1", Name: "Alpha", SalePrice: 100, IsActive: true})
	require.NoError(t, err)

	result, err := svc.Import(ctx, "t1", []ImportRow{
		{SKU: "A-1", Name: "Alpha v2", SalePrice: 120, Stock: 9},
	}, ImportOverwrite, "b1")
	require.NoError(t, err)
	require.Equal(t, 1, result.Updated)
	require.Zero(t, result.Created)

	p, err := repo.GetBySKU(ctx, "t1", "A-1")
	require.NoError(t, err)
	require.Equal(t, "Alpha v2", p.Name)
	require.Equal(t, 120.0, p.SalePrice)
	require.Equal(t, int64(9), stock.rows[p.ID][0].Stock)
}

func TestImportSkipLeavesExistingUntouched(t *testing.T) {
	repo := newFakeRepo()
	stock := newFakeStock()
	svc := newTestService(repo, stock)
	ctx := context.Background()

	_, err := svc.Create(ctx, "t1", ProductInput{SKU: "A-1", Name: "Alpha", SalePrice: 100, IsActive: true})
	require.NoError(t, err)

	result, err := svc.Import(ctx, "t1", []ImportRow{
		{SKU: "A-1", Name: "Replacement", SalePrice: 999, Stock: 1},
		{SKU: "A-2", Name: "Beta", SalePrice: 50, Stock: 2},
	}, ImportSkip, "b1")
	require.NoError(t, err)
	require.Equal(t, 1, result.Skipped)
	require.Equal(t, 1, result.Created)

	p, err := repo.GetBySKU(ctx, "t1", "A-1")
	require.NoError(t, err)
	require.Equal(t, "Alpha", p.Name)
}

func TestImportCollectsRowErrors(t *testing.T) {
	repo := newFakeRepo()
	stock := newFakeStock()
	svc := newTestService(repo, stock)

	result, err := svc.Import(context.Background(), "t1", []ImportRow{
		{SKU: "", Name: "No SKU"},
		{SKU: "A-1", Name: ""},
		{SKU: "A-2", Name: "Gamma", Stock: -4},
		{SKU: "A-3", Name: "Delta", Stock: 1},
	}, ImportOverwrite, "b1")
	require.NoError(t, err)
	require.Equal(t, 1, result.Created)
	require.Len(t, result.Errors, 3)
	require.Equal(t, 1, result.Errors[0].Row)
	require.Equal(t, 3, result.Errors[2].Row)
}

func TestImportRejectsUnknownMode(t *testing.T) {
	svc := newTestService(newFakeRepo(), newFakeStock())
	_, err := svc.Import(context.Background(), "t1", []ImportRow{{SKU: "A", Name: "A"}}, "merge", "b1")
	require.Error(t, err)
}
