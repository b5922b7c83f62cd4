package documents

import (
	"context"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gestionpro/gestionpro/internal/shared"
)

type fakeRepo struct {
	docs   map[string]Document
	nextID int
	failOn string
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{docs: make(map[string]Document)}
}

func (r *fakeRepo) Insert(ctx context.Context, doc Document) (Document, error) {
	if r.failOn == "insert" {
		return Document{}, fmt.Errorf("documents: insert: boom")
	}
	r.nextID++
	doc.ID = fmt.Sprintf("doc-%d", r.nextID)
	r.docs[doc.ID] = doc
	return doc, nil
}

func (r *fakeRepo) Get(ctx context.Context, tenantID, id string) (Document, error) {
	doc, ok := r.docs[id]
	if !ok {
		return Document{}, shared.ErrNotFound
	}
	return doc, nil
}

func (r *fakeRepo) List(ctx context.Context, tenantID string, filter ListFilter) ([]Document, int, error) {
	var result []Document
	for _, doc := range r.docs {
		if filter.Type != "" && doc.Type != filter.Type {
			continue
		}
		result = append(result, doc)
	}
	return result, len(result), nil
}

func (r *fakeRepo) UpdateStatus(ctx context.Context, tenantID, id string, status DocumentStatus) error {
	doc, ok := r.docs[id]
	if !ok {
		return shared.ErrNotFound
	}
	doc.Status = status
	r.docs[id] = doc
	return nil
}

type fakeStock struct {
	levels map[string]int64
}

func newFakeStock() *fakeStock {
	return &fakeStock{levels: make(map[string]int64)}
}

func stockKey(productID, branchID string) string {
	return productID + ":" + branchID
}

func (s *fakeStock) seed(productID, branchID string, qty int64) {
	s.levels[stockKey(productID, branchID)] = qty
}

func (s *fakeStock) Decrement(ctx context.Context, tenantID, productID, branchID string, qty int64) error {
	k := stockKey(productID, branchID)
	if s.levels[k] < qty {
		return fmt.Errorf("ledger: insufficient stock for %s", productID)
	}
	s.levels[k] -= qty
	return nil
}

func (s *fakeStock) Increment(ctx context.Context, tenantID, productID, branchID string, qty int64) error {
	s.levels[stockKey(productID, branchID)] += qty
	return nil
}

type fakeBranches struct{ id string }

func (b fakeBranches) DefaultBranch(ctx context.Context, tenantID string) (string, error) {
	return b.id, nil
}

func newTestService(repo *fakeRepo, stock *fakeStock) *Service {
	return NewService(slog.Default(), repo, stock, fakeBranches{id: "b1"}, nil)
}

func TestCreateInvoiceDecrementsStockAndComputesTotals(t *testing.T) {
	repo := newFakeRepo()
	stock := newFakeStock()
	stock.seed("p1", "b1", 10)
	svc := newTestService(repo, stock)

	doc, err := svc.Create(context.Background(), "t1", CreateDocumentInput{
		Type:            TypeInvoice,
		Items:           []SaleItem{{ProductID: "p1", ProductName: "Widget", Quantity: 3, UnitPrice: 100}},
		Total:           363,
		PaymentMethod:   "Efectivo",
		PaymentCurrency: "ARS",
	})
	require.NoError(t, err)
	require.Equal(t, int64(7), stock.levels[stockKey("p1", "b1")])
	require.Equal(t, 300.0, doc.Subtotal)
	require.Equal(t, 63.0, doc.Tax)
	require.Equal(t, 363.0, doc.Total)
	require.Equal(t, StatusPaid, doc.Status)
	require.Equal(t, doc.Total, doc.PaidAmount)
}

func TestCreateQuoteLeavesStockUntouched(t *testing.T) {
	repo := newFakeRepo()
	stock := newFakeStock()
	stock.seed("p1", "b1", 5)
	svc := newTestService(repo, stock)

	doc, err := svc.Create(context.Background(), "t1", CreateDocumentInput{
		Type:            TypeQuote,
		Items:           []SaleItem{{ProductID: "p1", Quantity: 2, UnitPrice: 50}},
		Total:           121,
		PaymentMethod:   "Efectivo",
		PaymentCurrency: "ARS",
	})
	require.NoError(t, err)
	require.Equal(t, int64(5), stock.levels[stockKey("p1", "b1")])
	require.Equal(t, StatusPaid, doc.Status)
	require.Equal(t, doc.Total, doc.PaidAmount)
}

func TestCreateSettlesNonInvoicesInFull(t *testing.T) {
	repo := newFakeRepo()
	stock := newFakeStock()
	stock.seed("p1", "b1", 20)
	svc := newTestService(repo, stock)
	ctx := context.Background()

	quote, err := svc.Create(ctx, "t1", CreateDocumentInput{
		Type:            TypeQuote,
		Items:           []SaleItem{{ProductID: "p1", Quantity: 2, UnitPrice: 50}},
		PaymentMethod:   "Efectivo",
		PaymentCurrency: "ARS",
	})
	require.NoError(t, err)
	require.Equal(t, StatusPaid, quote.Status)
	require.Equal(t, quote.Total, quote.PaidAmount)

	reservation, err := svc.Create(ctx, "t1", CreateDocumentInput{
		Type:            TypeReservation,
		Items:           []SaleItem{{ProductID: "p1", Quantity: 1, UnitPrice: 80}},
		PaymentMethod:   PaymentMethodOnAccount,
		PaymentCurrency: "ARS",
	})
	require.NoError(t, err)
	require.Equal(t, StatusPaid, reservation.Status)
	require.Equal(t, reservation.Total, reservation.PaidAmount)
}

func TestCreateOnAccountInvoiceStartsPending(t *testing.T) {
	repo := newFakeRepo()
	stock := newFakeStock()
	stock.seed("p1", "b1", 5)
	svc := newTestService(repo, stock)

	doc, err := svc.Create(context.Background(), "t1", CreateDocumentInput{
		Type:            TypeInvoice,
		Customer:        &CustomerSnapshot{ID: "c1", Name: "Acme"},
		Items:           []SaleItem{{ProductID: "p1", Quantity: 1, UnitPrice: 200}},
		Total:           242,
		PaymentMethod:   PaymentMethodOnAccount,
		PaymentCurrency: "ARS",
	})
	require.NoError(t, err)
	require.Equal(t, StatusPending, doc.Status)
	require.Zero(t, doc.PaidAmount)
	require.Equal(t, "c1", doc.Customer.ID)
}

func TestCreateDefaultsToWalkInCustomer(t *testing.T) {
	repo := newFakeRepo()
	stock := newFakeStock()
	stock.seed("p1", "b1", 5)
	svc := newTestService(repo, stock)

	doc, err := svc.Create(context.Background(), "t1", CreateDocumentInput{
		Type:            TypeInvoice,
		Items:           []SaleItem{{ProductID: "p1", Quantity: 1, UnitPrice: 10}},
		Total:           12.1,
		PaymentMethod:   "Efectivo",
		PaymentCurrency: "ARS",
	})
	require.NoError(t, err)
	require.Equal(t, WalkInCustomerID, doc.Customer.ID)
	require.Equal(t, WalkInCustomerName, doc.Customer.Name)
}

func TestCreateRollsBackEarlierDecrementsOnFailure(t *testing.T) {
	repo := newFakeRepo()
	stock := newFakeStock()
	stock.seed("p1", "b1", 10)
	stock.seed("p2", "b1", 1)
	svc := newTestService(repo, stock)

	_, err := svc.Create(context.Background(), "t1", CreateDocumentInput{
		Type: TypeInvoice,
		Items: []SaleItem{
			{ProductID: "p1", Quantity: 4, UnitPrice: 10},
			{ProductID: "p2", Quantity: 5, UnitPrice: 10},
		},
		Total:           108.9,
		PaymentMethod:   "Efectivo",
		PaymentCurrency: "ARS",
	})
	require.Error(t, err)
	require.Equal(t, int64(10), stock.levels[stockKey("p1", "b1")])
	require.Equal(t, int64(1), stock.levels[stockKey("p2", "b1")])
	require.Empty(t, repo.docs)
}

func TestCreateRestoresStockWhenInsertFails(t *testing.T) {
	repo := newFakeRepo()
	repo.failOn = "insert"
	stock := newFakeStock()
	stock.seed("p1", "b1", 10)
	svc := newTestService(repo, stock)

	_, err := svc.Create(context.Background(), "t1", CreateDocumentInput{
		Type:            TypeInvoice,
		Items:           []SaleItem{{ProductID: "p1", Quantity: 4, UnitPrice: 10}},
		Total:           48.4,
		PaymentMethod:   "Efectivo",
		PaymentCurrency: "ARS",
	})
	require.Error(t, err)
	require.Equal(t, int64(10), stock.levels[stockKey("p1", "b1")])
}

func TestCancelReservationReleasesStock(t *testing.T) {
	repo := newFakeRepo()
	stock := newFakeStock()
	stock.seed("p1", "b1", 10)
	svc := newTestService(repo, stock)
	ctx := context.Background()

	doc, err := svc.Create(ctx, "t1", CreateDocumentInput{
		Type:            TypeReservation,
		Items:           []SaleItem{{ProductID: "p1", Quantity: 6, UnitPrice: 10}},
		Total:           72.6,
		PaymentMethod:   "Efectivo",
		PaymentCurrency: "ARS",
	})
	require.NoError(t, err)
	require.Equal(t, int64(4), stock.levels[stockKey("p1", "b1")])

	require.NoError(t, svc.CancelReservation(ctx, "t1", doc.ID))
	require.Equal(t, int64(10), stock.levels[stockKey("p1", "b1")])

	cancelled, err := svc.Get(ctx, "t1", doc.ID)
	require.NoError(t, err)
	require.Equal(t, StatusCancelled, cancelled.Status)

	err = svc.CancelReservation(ctx, "t1", doc.ID)
	require.ErrorIs(t, err, ErrAlreadyCancelled)
}

func TestCancelRejectsInvoices(t *testing.T) {
	repo := newFakeRepo()
	stock := newFakeStock()
	stock.seed("p1", "b1", 10)
	svc := newTestService(repo, stock)
	ctx := context.Background()

	doc, err := svc.Create(ctx, "t1", CreateDocumentInput{
		Type:            TypeInvoice,
		Items:           []SaleItem{{ProductID: "p1", Quantity: 1, UnitPrice: 10}},
		Total:           12.1,
		PaymentMethod:   "Efectivo",
		PaymentCurrency: "ARS",
	})
	require.NoError(t, err)

	err = svc.CancelReservation(ctx, "t1", doc.ID)
	require.ErrorIs(t, err, ErrNotReservation)
}
