package orders

import (
	"context"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gestionpro/gestionpro/internal/ledger"
	"github.com/gestionpro/gestionpro/internal/masterdata/products"
	"github.com/gestionpro/gestionpro/internal/sales/documents"
	"github.com/gestionpro/gestionpro/internal/shared"
)

// fixture wires the ingestion pipeline over shared in-memory stock so the
// resolver, pricing and reservation creation see the same quantities.
type fixture struct {
	orders   map[string]*Order
	nextID   int
	branches []string                  // priority order
	stock    map[string]int64          // product:branch
	prices   map[string]float64        // product:branch
	catalog  map[string]products.Product // by sku
	created  []documents.CreateDocumentInput
	docSeq   int
}

func newFixture() *fixture {
	return &fixture{
		orders:  make(map[string]*Order),
		stock:   make(map[string]int64),
		prices:  make(map[string]float64),
		catalog: make(map[string]products.Product),
	}
}

func (f *fixture) addBranch(id string) { f.branches = append(f.branches, id) }

func (f *fixture) seed(productID, branchID string, stock int64, price float64) {
	f.stock[productID+":"+branchID] = stock
	f.prices[productID+":"+branchID] = price
}

func (f *fixture) addProduct(sku, id string, listPrice float64) {
	f.catalog[sku] = products.Product{ID: id, SKU: sku, Name: "Product " + sku, SalePrice: listPrice}
}

func (f *fixture) Insert(ctx context.Context, order Order) (Order, error) {
	f.nextID++
	order.ID = fmt.Sprintf("ord-%d", f.nextID)
	order.Data.Version = 1
	f.orders[order.ID] = &order
	return order, nil
}

func (f *fixture) Get(ctx context.Context, tenantID, id string) (Order, error) {
	order, ok := f.orders[id]
	if !ok {
		return Order{}, shared.ErrNotFound
	}
	return *order, nil
}

func (f *fixture) List(ctx context.Context, tenantID string, status OrderStatus, limit, offset int) ([]Order, int, error) {
	var result []Order
	for _, o := range f.orders {
		if status == "" || o.Status == status {
			result = append(result, *o)
		}
	}
	return result, len(result), nil
}

func (f *fixture) MarkProcessed(ctx context.Context, tenantID, id, documentID string) error {
	order := f.orders[id]
	if order == nil || order.Status != StatusReceived {
		return shared.ErrNotFound
	}
	order.Status = StatusProcessed
	order.DocumentID = documentID
	return nil
}

func (f *fixture) MarkFailed(ctx context.Context, tenantID, id string, status OrderStatus, message string) error {
	order := f.orders[id]
	if order == nil || order.Status != StatusReceived {
		return shared.ErrNotFound
	}
	order.Status = status
	order.ErrorMessage = message
	return nil
}

func (f *fixture) Candidates(ctx context.Context, tenantID, productID string) ([]Availability, error) {
	var result []Availability
	for i, branchID := range f.branches {
		key := productID + ":" + branchID
		if _, ok := f.stock[key]; !ok {
			continue
		}
		result = append(result, Availability{
			BranchID:  branchID,
			Priority:  i + 1,
			Stock:     f.stock[key],
			SalePrice: f.prices[key],
		})
	}
	return result, nil
}

// catalogPort adapts the fixture catalog to the product port; the
// fixture's own Get returns orders.
type catalogPort struct{ f *fixture }

func (c catalogPort) Get(ctx context.Context, tenantID, id string) (products.Product, error) {
	for _, p := range c.f.catalog {
		if p.ID == id {
			return p, nil
		}
	}
	return products.Product{}, shared.ErrNotFound
}

func (c catalogPort) GetBySKU(ctx context.Context, tenantID, sku string) (products.Product, error) {
	p, ok := c.f.catalog[sku]
	if !ok {
		return products.Product{}, shared.ErrNotFound
	}
	return p, nil
}

// Create mimics the document service: decrement every item at the branch,
// reverse on failure.
func (f *fixture) Create(ctx context.Context, tenantID string, input documents.CreateDocumentInput) (*documents.Document, error) {
	for i, item := range input.Items {
		key := item.ProductID + ":" + input.BranchID
		if f.stock[key] < item.Quantity {
			for j := 0; j < i; j++ {
				f.stock[input.Items[j].ProductID+":"+input.BranchID] += input.Items[j].Quantity
			}
			return nil, fmt.Errorf("documents: product %s: %w", item.ProductID, ledger.ErrInsufficientStock)
		}
		f.stock[key] -= item.Quantity
	}
	f.created = append(f.created, input)
	f.docSeq++
	return &documents.Document{
		ID:       fmt.Sprintf("doc-%d", f.docSeq),
		Type:     input.Type,
		BranchID: input.BranchID,
	}, nil
}

func newOrderService(f *fixture) *Service {
	return NewService(slog.Default(), f, NewResolver(f), catalogPort{f}, f, nil, nil)
}

func TestProcessAssignsWholeOrderToOneBranch(t *testing.T) {
	f := newFixture()
	f.addBranch("b1")
	f.addBranch("b2")
	f.addProduct("SKU-1", "p1", 100)
	f.addProduct("SKU-2", "p2", 50)
	// b1 can cover the first item but not the second; b2 covers both.
	f.seed("p1", "b1", 1, 110)
	f.seed("p1", "b2", 10, 120)
	f.seed("p2", "b1", 10, 55)
	f.seed("p2", "b2", 10, 60)
	svc := newOrderService(f)
	ctx := context.Background()

	order, err := svc.Receive(ctx, "t1", ReceiveOrderInput{
		Items: []OrderItem{
			{SKU: "SKU-1", Quantity: 3},
			{SKU: "SKU-2", Quantity: 2},
		},
	})
	require.NoError(t, err)
	require.Equal(t, StatusReceived, order.Status)

	require.NoError(t, svc.Process(ctx, "t1", order.ID))

	processed, err := svc.Get(ctx, "t1", order.ID)
	require.NoError(t, err)
	require.Equal(t, StatusProcessed, processed.Status)
	require.NotEmpty(t, processed.DocumentID)

	require.Len(t, f.created, 1)
	doc := f.created[0]
	require.Equal(t, documents.TypeReservation, doc.Type)
	require.Equal(t, PaymentMethodEcommerce, doc.PaymentMethod)
	require.Equal(t, "b2", doc.BranchID)
	// priced at b2's branch sale prices
	require.Equal(t, 120.0, doc.Items[0].UnitPrice)
	require.Equal(t, 60.0, doc.Items[1].UnitPrice)

	require.Equal(t, int64(7), f.stock["p1:b2"])
	require.Equal(t, int64(8), f.stock["p2:b2"])
	require.Equal(t, int64(1), f.stock["p1:b1"])
}

func TestProcessMarksStockUnavailableWhenExhausted(t *testing.T) {
	f := newFixture()
	f.addBranch("b1")
	f.addProduct("SKU-1", "p1", 100)
	f.seed("p1", "b1", 2, 110)
	svc := newOrderService(f)
	ctx := context.Background()

	order, err := svc.Receive(ctx, "t1", ReceiveOrderInput{
		Items: []OrderItem{{SKU: "SKU-1", Quantity: 5}},
	})
	require.NoError(t, err)

	require.NoError(t, svc.Process(ctx, "t1", order.ID))

	failed, err := svc.Get(ctx, "t1", order.ID)
	require.NoError(t, err)
	require.Equal(t, StatusStockUnavailable, failed.Status)
	require.NotEmpty(t, failed.ErrorMessage)
	require.Equal(t, int64(2), f.stock["p1:b1"])
	require.Empty(t, f.created)
}

func TestProcessRollsBackWhenSecondItemFails(t *testing.T) {
	f := newFixture()
	f.addBranch("b1")
	f.addProduct("SKU-1", "p1", 100)
	f.addProduct("SKU-2", "p2", 50)
	// only branch covers item one but not item two
	f.seed("p1", "b1", 10, 110)
	f.seed("p2", "b1", 1, 55)
	svc := newOrderService(f)
	ctx := context.Background()

	order, err := svc.Receive(ctx, "t1", ReceiveOrderInput{
		Items: []OrderItem{
			{SKU: "SKU-1", Quantity: 4},
			{SKU: "SKU-2", Quantity: 3},
		},
	})
	require.NoError(t, err)

	require.NoError(t, svc.Process(ctx, "t1", order.ID))

	// Losing stock mid-reservation is an error; stock_unavailable is
	// reserved for branch assignment finding no branch at all.
	failed, err := svc.Get(ctx, "t1", order.ID)
	require.NoError(t, err)
	require.Equal(t, StatusError, failed.Status)
	require.Equal(t, int64(10), f.stock["p1:b1"])
	require.Equal(t, int64(1), f.stock["p2:b1"])
}

func TestProcessFallsBackToListPriceByProductID(t *testing.T) {
	f := newFixture()
	f.addBranch("b1")
	f.addProduct("SKU-1", "p1", 100)
	// branch row exists but carries no price
	f.seed("p1", "b1", 10, 0)
	svc := newOrderService(f)
	ctx := context.Background()

	order, err := svc.Receive(ctx, "t1", ReceiveOrderInput{
		Items: []OrderItem{{ProductID: "p1", Quantity: 2}},
	})
	require.NoError(t, err)

	require.NoError(t, svc.Process(ctx, "t1", order.ID))

	require.Len(t, f.created, 1)
	require.Equal(t, 100.0, f.created[0].Items[0].UnitPrice)
}

func TestProcessMarksErrorOnUnknownSKU(t *testing.T) {
	f := newFixture()
	f.addBranch("b1")
	svc := newOrderService(f)
	ctx := context.Background()

	order, err := svc.Receive(ctx, "t1", ReceiveOrderInput{
		Items: []OrderItem{{SKU: "GHOST", Quantity: 1}},
	})
	require.NoError(t, err)

	require.NoError(t, svc.Process(ctx, "t1", order.ID))

	failed, err := svc.Get(ctx, "t1", order.ID)
	require.NoError(t, err)
	require.Equal(t, StatusError, failed.Status)
	require.Contains(t, failed.ErrorMessage, "GHOST")
}

func TestProcessIsIdempotentForDecidedOrders(t *testing.T) {
	f := newFixture()
	f.addBranch("b1")
	f.addProduct("SKU-1", "p1", 100)
	f.seed("p1", "b1", 10, 110)
	svc := newOrderService(f)
	ctx := context.Background()

	order, err := svc.Receive(ctx, "t1", ReceiveOrderInput{
		Items: []OrderItem{{SKU: "SKU-1", Quantity: 2}},
	})
	require.NoError(t, err)

	require.NoError(t, svc.Process(ctx, "t1", order.ID))
	require.NoError(t, svc.Process(ctx, "t1", order.ID))

	require.Len(t, f.created, 1)
	require.Equal(t, int64(8), f.stock["p1:b1"])
}

type fakeIdem struct {
	keys map[string]bool
}

func (f *fakeIdem) CheckAndInsert(ctx context.Context, key, module string) error {
	if f.keys == nil {
		f.keys = make(map[string]bool)
	}
	if f.keys[key] {
		return shared.ErrIdempotencyConflict
	}
	f.keys[key] = true
	return nil
}

func (f *fakeIdem) Delete(ctx context.Context, key string) error {
	delete(f.keys, key)
	return nil
}

func TestReceiveDeduplicatesByExternalRef(t *testing.T) {
	f := newFixture()
	f.addBranch("b1")
	f.addProduct("SKU-1", "p1", 100)
	f.seed("p1", "b1", 10, 110)
	svc := NewService(slog.Default(), f, NewResolver(f), catalogPort{f}, f, nil, &fakeIdem{})
	ctx := context.Background()

	input := ReceiveOrderInput{
		PlatformID:  "shop-1",
		ExternalRef: "#1001",
		Items:       []OrderItem{{SKU: "SKU-1", Quantity: 1}},
	}

	_, err := svc.Receive(ctx, "t1", input)
	require.NoError(t, err)

	_, err = svc.Receive(ctx, "t1", input)
	require.ErrorIs(t, err, shared.ErrIdempotencyConflict)
	require.Len(t, f.orders, 1)
}

func TestReceiveValidatesItems(t *testing.T) {
	f := newFixture()
	svc := newOrderService(f)

	_, err := svc.Receive(context.Background(), "t1", ReceiveOrderInput{})
	require.Error(t, err)

	_, err = svc.Receive(context.Background(), "t1", ReceiveOrderInput{
		Items: []OrderItem{{SKU: "SKU-1", Quantity: 0}},
	})
	require.Error(t, err)
}
