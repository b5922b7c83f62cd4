package settlement

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gestionpro/gestionpro/internal/sales/documents"
	"github.com/gestionpro/gestionpro/internal/shared"
)

type fakeDocs struct {
	docs    map[string]*documents.Document
	failOn  string
	applied []string
}

func newFakeDocs() *fakeDocs {
	return &fakeDocs{docs: make(map[string]*documents.Document)}
}

func (f *fakeDocs) addInvoice(id string, total, paid float64) {
	status := documents.StatusPending
	if paid > 0 {
		status = documents.StatusPartiallyPaid
	}
	if paid >= total {
		status = documents.StatusPaid
	}
	f.docs[id] = &documents.Document{
		ID:         id,
		Type:       documents.TypeInvoice,
		Customer:   documents.CustomerSnapshot{ID: "c1", Name: "Acme"},
		Total:      total,
		PaidAmount: paid,
		Status:     status,
	}
}

func (f *fakeDocs) Get(ctx context.Context, tenantID, id string) (documents.Document, error) {
	doc, ok := f.docs[id]
	if !ok {
		return documents.Document{}, shared.ErrNotFound
	}
	return *doc, nil
}

func (f *fakeDocs) ApplyPayment(ctx context.Context, tenantID, id string, amount float64, status documents.DocumentStatus) error {
	if id == f.failOn {
		return fmt.Errorf("settlement: apply payment: connection reset")
	}
	doc, ok := f.docs[id]
	if !ok {
		return shared.ErrNotFound
	}
	doc.PaidAmount += amount
	doc.Status = status
	f.applied = append(f.applied, id)
	return nil
}

func (f *fakeDocs) OutstandingByCustomer(ctx context.Context, tenantID, customerID string) ([]documents.Document, error) {
	var result []documents.Document
	for _, doc := range f.docs {
		if doc.Customer.ID != customerID {
			continue
		}
		if doc.Status == documents.StatusPending || doc.Status == documents.StatusPartiallyPaid {
			result = append(result, *doc)
		}
	}
	return result, nil
}

func TestApplyPaymentAllocatesInCallerOrder(t *testing.T) {
	docs := newFakeDocs()
	docs.addInvoice("inv-a", 30, 0)
	docs.addInvoice("inv-b", 50, 0)
	svc := NewService(docs, nil)

	result, err := svc.ApplyPayment(context.Background(), "t1", 40, []string{"inv-a", "inv-b"})
	require.NoError(t, err)
	require.Equal(t, 40.0, result.Applied)
	require.Zero(t, result.Leftover)
	require.Len(t, result.Allocations, 2)

	require.Equal(t, "inv-a", result.Allocations[0].DocumentID)
	require.Equal(t, 30.0, result.Allocations[0].Amount)
	require.Equal(t, documents.StatusPaid, result.Allocations[0].NewStatus)

	require.Equal(t, "inv-b", result.Allocations[1].DocumentID)
	require.Equal(t, 10.0, result.Allocations[1].Amount)
	require.Equal(t, documents.StatusPartiallyPaid, result.Allocations[1].NewStatus)

	require.Equal(t, 30.0, docs.docs["inv-a"].PaidAmount)
	require.Equal(t, 10.0, docs.docs["inv-b"].PaidAmount)
}

func TestApplyPaymentReportsLeftover(t *testing.T) {
	docs := newFakeDocs()
	docs.addInvoice("inv-a", 30, 0)
	svc := NewService(docs, nil)

	result, err := svc.ApplyPayment(context.Background(), "t1", 100, []string{"inv-a"})
	require.NoError(t, err)
	require.Equal(t, 30.0, result.Applied)
	require.Equal(t, 70.0, result.Leftover)
	require.Equal(t, documents.StatusPaid, docs.docs["inv-a"].Status)
}

func TestApplyPaymentSkipsNonInvoicesAndSettled(t *testing.T) {
	docs := newFakeDocs()
	docs.addInvoice("inv-paid", 30, 30)
	docs.addInvoice("inv-open", 50, 0)
	docs.docs["quote-1"] = &documents.Document{
		ID: "quote-1", Type: documents.TypeQuote, Total: 99, Status: documents.StatusPending,
	}
	svc := NewService(docs, nil)

	result, err := svc.ApplyPayment(context.Background(), "t1", 60,
		[]string{"quote-1", "inv-paid", "inv-open"})
	require.NoError(t, err)
	require.Equal(t, 50.0, result.Applied)
	require.Equal(t, 10.0, result.Leftover)
	require.Len(t, result.Allocations, 1)
	require.Equal(t, "inv-open", result.Allocations[0].DocumentID)
}

func TestApplyPaymentKeepsEarlierAllocationsOnFailure(t *testing.T) {
	docs := newFakeDocs()
	docs.addInvoice("inv-a", 30, 0)
	docs.addInvoice("inv-b", 50, 0)
	docs.failOn = "inv-b"
	svc := NewService(docs, nil)

	result, err := svc.ApplyPayment(context.Background(), "t1", 80, []string{"inv-a", "inv-b"})
	require.Error(t, err)
	require.ErrorIs(t, err, ErrAllocationPartialFailure)

	var allocErr *AllocationError
	require.ErrorAs(t, err, &allocErr)
	require.Equal(t, "inv-b", allocErr.DocumentID)

	require.Equal(t, 30.0, result.Applied)
	require.Equal(t, 30.0, docs.docs["inv-a"].PaidAmount)
	require.Zero(t, docs.docs["inv-b"].PaidAmount)
}

func TestApplyPaymentValidatesInput(t *testing.T) {
	svc := NewService(newFakeDocs(), nil)

	_, err := svc.ApplyPayment(context.Background(), "t1", 0, []string{"inv-a"})
	require.ErrorIs(t, err, ErrInvalidAmount)

	_, err = svc.ApplyPayment(context.Background(), "t1", 10, nil)
	require.ErrorIs(t, err, ErrNoDocuments)
}

func TestCustomerDebtSumsOpenInvoices(t *testing.T) {
	docs := newFakeDocs()
	docs.addInvoice("inv-a", 30, 10)
	docs.addInvoice("inv-b", 50, 0)
	docs.addInvoice("inv-c", 20, 20)
	svc := NewService(docs, nil)

	total, open, err := svc.CustomerDebt(context.Background(), "t1", "c1")
	require.NoError(t, err)
	require.Equal(t, 70.0, total)
	require.Len(t, open, 2)
}

func TestCustomerDebtRejectsWalkIn(t *testing.T) {
	svc := NewService(newFakeDocs(), nil)
	_, _, err := svc.CustomerDebt(context.Background(), "t1", documents.WalkInCustomerID)
	require.Error(t, err)
}
