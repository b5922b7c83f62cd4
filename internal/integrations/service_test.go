package integrations

import (
	"context"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gestionpro/gestionpro/internal/ledger"
	"github.com/gestionpro/gestionpro/internal/masterdata/products"
	"github.com/gestionpro/gestionpro/internal/shared"
)

type fakeRepo struct {
	platforms map[string]Platform
	logs      []SyncLog
	nextID    int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{platforms: make(map[string]Platform)}
}

func (r *fakeRepo) List(ctx context.Context, tenantID string) ([]Platform, error) {
	var result []Platform
	for _, p := range r.platforms {
		result = append(result, p)
	}
	return result, nil
}

func (r *fakeRepo) Get(ctx context.Context, tenantID, id string) (Platform, error) {
	p, ok := r.platforms[id]
	if !ok {
		return Platform{}, shared.ErrNotFound
	}
	return p, nil
}

func (r *fakeRepo) Create(ctx context.Context, p Platform) (Platform, error) {
	r.nextID++
	p.ID = fmt.Sprintf("plat-%d", r.nextID)
	r.platforms[p.ID] = p
	return p, nil
}

func (r *fakeRepo) Update(ctx context.Context, p Platform) (Platform, error) {
	if _, ok := r.platforms[p.ID]; !ok {
		return Platform{}, shared.ErrNotFound
	}
	r.platforms[p.ID] = p
	return p, nil
}

func (r *fakeRepo) Delete(ctx context.Context, tenantID, id string) error {
	delete(r.platforms, id)
	return nil
}

func (r *fakeRepo) InsertSyncLog(ctx context.Context, log SyncLog) error {
	r.logs = append(r.logs, log)
	return nil
}

func (r *fakeRepo) ListSyncLogs(ctx context.Context, tenantID, platformID string, limit int) ([]SyncLog, error) {
	return r.logs, nil
}

type fakeStock struct {
	rows map[string][]ledger.BranchStock
}

func (s fakeStock) ConsolidatedStock(ctx context.Context, tenantID, productID string) (int64, error) {
	var total int64
	for _, row := range s.rows[productID] {
		total += row.Stock
	}
	return total, nil
}

func (s fakeStock) ListForProduct(ctx context.Context, tenantID, productID string) ([]ledger.BranchStock, error) {
	return s.rows[productID], nil
}

type fakeProducts struct {
	items []products.Product
}

func (p fakeProducts) List(ctx context.Context, tenantID string, filter products.ListFilter) ([]products.Product, int, error) {
	return p.items, len(p.items), nil
}

type capturingPublisher struct {
	figures []StockFigure
	err     error
}

func (c *capturingPublisher) Publish(ctx context.Context, platform Platform, figures []StockFigure) error {
	if c.err != nil {
		return c.err
	}
	c.figures = figures
	return nil
}

func testDeps() (*fakeRepo, fakeStock, fakeProducts) {
	repo := newFakeRepo()
	stock := fakeStock{rows: map[string][]ledger.BranchStock{
		"p1": {
			{ProductID: "p1", BranchID: "b1", Stock: 4, SalePrice: 100},
			{ProductID: "p1", BranchID: "b2", Stock: 6, SalePrice: 110},
		},
	}}
	catalog := fakeProducts{items: []products.Product{
		{ID: "p1", SKU: "SKU-1", SalePrice: 105, IsActive: true},
		{ID: "p2", SKU: "SKU-2", SalePrice: 50, IsActive: false},
	}}
	return repo, stock, catalog
}

func TestSyncPublishesConsolidatedStock(t *testing.T) {
	repo, stock, catalog := testDeps()
	publisher := &capturingPublisher{}
	svc := NewService(slog.Default(), repo, stock, catalog, publisher)
	ctx := context.Background()

	platform, err := svc.Create(ctx, "t1", PlatformInput{
		Kind:       KindShopify,
		Name:       "Shop",
		SyncConfig: SyncConfig{StockSource: StockGlobal, SyncPrices: true},
		IsActive:   true,
	})
	require.NoError(t, err)

	log, err := svc.Sync(ctx, "t1", platform.ID)
	require.NoError(t, err)
	require.Equal(t, SyncOK, log.Status)
	require.Equal(t, 1, log.Items)

	require.Len(t, publisher.figures, 1)
	require.Equal(t, "SKU-1", publisher.figures[0].SKU)
	require.Equal(t, int64(10), publisher.figures[0].Stock)
	require.Equal(t, 105.0, publisher.figures[0].Price)
}

func TestSyncPublishesBranchStock(t *testing.T) {
	repo, stock, catalog := testDeps()
	publisher := &capturingPublisher{}
	svc := NewService(slog.Default(), repo, stock, catalog, publisher)
	ctx := context.Background()

	platform, err := svc.Create(ctx, "t1", PlatformInput{
		Kind:       KindTiendaNube,
		Name:       "Tienda",
		SyncConfig: SyncConfig{StockSource: StockBranch, BranchID: "b2", SyncPrices: true},
		IsActive:   true,
	})
	require.NoError(t, err)

	_, err = svc.Sync(ctx, "t1", platform.ID)
	require.NoError(t, err)
	require.Equal(t, int64(6), publisher.figures[0].Stock)
	require.Equal(t, 110.0, publisher.figures[0].Price)
}

func TestSyncSucceedsWithLogPublisher(t *testing.T) {
	repo, stock, catalog := testDeps()
	svc := NewService(slog.Default(), repo, stock, catalog, &LogPublisher{Logger: slog.Default()})
	ctx := context.Background()

	platform, err := svc.Create(ctx, "t1", PlatformInput{
		Kind:       KindShopify,
		Name:       "Shop",
		SyncConfig: SyncConfig{StockSource: StockGlobal},
		IsActive:   true,
	})
	require.NoError(t, err)

	log, err := svc.Sync(ctx, "t1", platform.ID)
	require.NoError(t, err)
	require.Equal(t, SyncOK, log.Status)
	require.Equal(t, 1, log.Items)
	require.Len(t, repo.logs, 1)
}

func TestSyncRecordsFailure(t *testing.T) {
	repo, stock, catalog := testDeps()
	publisher := &capturingPublisher{err: fmt.Errorf("api down")}
	svc := NewService(slog.Default(), repo, stock, catalog, publisher)
	ctx := context.Background()

	platform, err := svc.Create(ctx, "t1", PlatformInput{
		Kind:       KindWooCommerce,
		Name:       "Woo",
		SyncConfig: SyncConfig{StockSource: StockGlobal},
		IsActive:   true,
	})
	require.NoError(t, err)

	log, err := svc.Sync(ctx, "t1", platform.ID)
	require.Error(t, err)
	require.Equal(t, SyncFailed, log.Status)
	require.Contains(t, log.Message, "api down")
	require.Len(t, repo.logs, 1)
}

func TestSyncRejectsInactivePlatform(t *testing.T) {
	repo, stock, catalog := testDeps()
	svc := NewService(slog.Default(), repo, stock, catalog, nil)
	ctx := context.Background()

	platform, err := svc.Create(ctx, "t1", PlatformInput{
		Kind:       KindShopify,
		Name:       "Shop",
		SyncConfig: SyncConfig{StockSource: StockGlobal},
	})
	require.NoError(t, err)

	_, err = svc.Sync(ctx, "t1", platform.ID)
	require.Error(t, err)
}

func TestUpdateKeepsMaskedSecrets(t *testing.T) {
	repo, stock, catalog := testDeps()
	svc := NewService(slog.Default(), repo, stock, catalog, nil)
	ctx := context.Background()

	platform, err := svc.Create(ctx, "t1", PlatformInput{
		Kind: KindShopify,
		Name: "Shop",
		Credentials: APICredentials{
			StoreURL: "https://shop.example",
			APIKey:   "key-1",
			APISecret: "secret-1",
		},
		SyncConfig: SyncConfig{StockSource: StockGlobal},
		IsActive:   true,
	})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, "t1", platform.ID, PlatformInput{
		Kind: KindShopify,
		Name: "Shop renamed",
		Credentials: APICredentials{
			StoreURL:  "https://shop.example",
			APIKey:    "********",
			APISecret: "",
		},
		SyncConfig: SyncConfig{StockSource: StockGlobal},
		IsActive:   true,
	})
	require.NoError(t, err)
	require.Equal(t, "Shop renamed", updated.Name)
	require.Equal(t, "key-1", updated.Credentials.APIKey)
	require.Equal(t, "secret-1", updated.Credentials.APISecret)
}
