// Package settlement allocates customer payments across outstanding
// invoices.
package settlement

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/gestionpro/gestionpro/internal/sales/documents"
	"github.com/gestionpro/gestionpro/internal/shared"
)

var (
	ErrInvalidAmount = errors.New("settlement: amount must be positive")
	ErrNoDocuments   = errors.New("settlement: at least one document required")
	// ErrAllocationPartialFailure signals that some allocations persisted
	// before one failed. Applied amounts stay applied.
	ErrAllocationPartialFailure = errors.New("settlement: allocation partially failed")
)

// AllocationError identifies the document whose allocation could not be
// persisted.
type AllocationError struct {
	DocumentID string
	Err        error
}

func (e *AllocationError) Error() string {
	return fmt.Sprintf("settlement: document %s: %v", e.DocumentID, e.Err)
}

func (e *AllocationError) Unwrap() error { return ErrAllocationPartialFailure }

// Allocation records how much of a payment landed on one invoice.
type Allocation struct {
	DocumentID string                   `json:"document_id"`
	Amount     float64                  `json:"amount"`
	NewStatus  documents.DocumentStatus `json:"new_status"`
}

// Result summarizes a settlement run. Leftover is money the payment
// could not place; it is reported to the caller, never stored.
type Result struct {
	Applied     float64      `json:"applied"`
	Leftover    float64      `json:"leftover"`
	Allocations []Allocation `json:"allocations"`
}

// DocumentPort is the slice of document persistence settlement needs.
type DocumentPort interface {
	Get(ctx context.Context, tenantID, id string) (documents.Document, error)
	ApplyPayment(ctx context.Context, tenantID, id string, amount float64, status documents.DocumentStatus) error
	OutstandingByCustomer(ctx context.Context, tenantID, customerID string) ([]documents.Document, error)
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service runs the payment allocator.
type Service struct {
	docs  DocumentPort
	audit AuditPort
}

// NewService builds Service.
func NewService(docs DocumentPort, audit AuditPort) *Service {
	return &Service{docs: docs, audit: audit}
}

// ApplyPayment walks docIDs in the caller's order, paying down each
// invoice by min(remaining, debt). Each allocation persists on its own,
// so a failure mid-run leaves earlier allocations in place and returns an
// AllocationError naming the document that failed. Quotes, reservations,
// cancelled and fully paid documents are skipped without consuming funds.
func (s *Service) ApplyPayment(ctx context.Context, tenantID string, amount float64, docIDs []string) (Result, error) {
	if amount <= 0 {
		return Result{}, ErrInvalidAmount
	}
	if len(docIDs) == 0 {
		return Result{}, ErrNoDocuments
	}

	result := Result{Leftover: amount}
	remaining := amount
	for _, id := range docIDs {
		if remaining <= 0 {
			break
		}
		doc, err := s.docs.Get(ctx, tenantID, id)
		if err != nil {
			return result, &AllocationError{DocumentID: id, Err: err}
		}
		if doc.Type != documents.TypeInvoice {
			continue
		}
		if doc.Status == documents.StatusPaid || doc.Status == documents.StatusCancelled {
			continue
		}
		debt := doc.Debt()
		if debt <= 0 {
			continue
		}
		alloc := math.Min(remaining, debt)
		status := documents.StatusPartiallyPaid
		if alloc >= debt-0.005 {
			status = documents.StatusPaid
		}
		if err := s.docs.ApplyPayment(ctx, tenantID, id, alloc, status); err != nil {
			return result, &AllocationError{DocumentID: id, Err: err}
		}
		remaining -= alloc
		result.Applied += alloc
		result.Leftover = remaining
		result.Allocations = append(result.Allocations, Allocation{
			DocumentID: id,
			Amount:     alloc,
			NewStatus:  status,
		})
	}

	s.recordAudit(ctx, tenantID, result)
	return result, nil
}

// CustomerDebt returns a customer's open invoices and their summed debt.
func (s *Service) CustomerDebt(ctx context.Context, tenantID, customerID string) (float64, []documents.Document, error) {
	if customerID == "" || customerID == documents.WalkInCustomerID {
		return 0, nil, errors.New("settlement: customer required")
	}
	docs, err := s.docs.OutstandingByCustomer(ctx, tenantID, customerID)
	if err != nil {
		return 0, nil, err
	}
	var total float64
	for _, doc := range docs {
		total += doc.Debt()
	}
	return total, docs, nil
}

func (s *Service) recordAudit(ctx context.Context, tenantID string, result Result) {
	if s.audit == nil || result.Applied == 0 {
		return
	}
	ids := make([]string, 0, len(result.Allocations))
	for _, a := range result.Allocations {
		ids = append(ids, a.DocumentID)
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		TenantID: tenantID,
		ActorID:  shared.UserFromContext(ctx),
		Action:   "settlement:apply",
		Entity:   "sale_document",
		EntityID: ids[0],
		Meta: map[string]any{
			"applied":   result.Applied,
			"leftover":  result.Leftover,
			"documents": ids,
		},
	})
}
