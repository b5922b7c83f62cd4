package documents

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/gestionpro/gestionpro/internal/shared"
)

// TaxRate is the VAT rate applied to every sale.
const TaxRate = 0.21

var (
	ErrNotReservation   = errors.New("documents: not a reservation")
	ErrAlreadyCancelled = errors.New("documents: already cancelled")
)

// StockPort moves inventory on behalf of sale documents.
type StockPort interface {
	Decrement(ctx context.Context, tenantID, productID, branchID string, qty int64) error
	Increment(ctx context.Context, tenantID, productID, branchID string, qty int64) error
}

// BranchPort resolves the tenant's default branch.
type BranchPort interface {
	DefaultBranch(ctx context.Context, tenantID string) (string, error)
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service creates and manages sale documents.
type Service struct {
	logger   *slog.Logger
	repo     RepositoryPort
	stock    StockPort
	branches BranchPort
	audit    AuditPort
}

// NewService builds Service.
func NewService(logger *slog.Logger, repo RepositoryPort, stock StockPort, branches BranchPort, audit AuditPort) *Service {
	return &Service{logger: logger, repo: repo, stock: stock, branches: branches, audit: audit}
}

// Create records a new sale document. Invoices and reservations decrement
// branch stock per line item; if any decrement fails the earlier ones are
// reversed and no document is written. Monetary figures are recomputed
// server side from the line items.
func (s *Service) Create(ctx context.Context, tenantID string, input CreateDocumentInput) (*Document, error) {
	if len(input.Items) == 0 {
		return nil, errors.New("documents: at least one item required")
	}
	for i := range input.Items {
		if input.Items[i].Quantity <= 0 {
			return nil, fmt.Errorf("documents: item %d: quantity must be positive", i)
		}
		if input.Items[i].ProductID == "" {
			return nil, fmt.Errorf("documents: item %d: product required", i)
		}
	}

	branchID := input.BranchID
	if branchID == "" {
		var err error
		branchID, err = s.branches.DefaultBranch(ctx, tenantID)
		if err != nil {
			return nil, fmt.Errorf("documents: resolve default branch: %w", err)
		}
	}

	doc := Document{
		TenantID:        tenantID,
		Type:            input.Type,
		Items:           make([]SaleItem, len(input.Items)),
		PaymentMethod:   input.PaymentMethod,
		PaymentCurrency: input.PaymentCurrency,
		ExchangeRate:    input.ExchangeRate,
		BranchID:        branchID,
		ResponsibleID:   input.ResponsibleID,
	}

	if input.Customer != nil && input.Customer.ID != "" {
		doc.Customer = *input.Customer
	} else {
		doc.Customer = CustomerSnapshot{ID: WalkInCustomerID, Name: WalkInCustomerName}
	}

	var subtotal float64
	for i, item := range input.Items {
		item.Subtotal = round2(item.UnitPrice * float64(item.Quantity))
		subtotal += item.Subtotal
		doc.Items[i] = item
	}
	doc.Subtotal = round2(subtotal)
	doc.Tax = round2(doc.Subtotal * TaxRate)
	doc.Total = round2(doc.Subtotal + doc.Tax)

	// Only an invoice sold on account carries a debt. Quotes and
	// reservations settle at creation regardless of payment method.
	if doc.Type == TypeInvoice && doc.PaymentMethod == PaymentMethodOnAccount {
		doc.Status = StatusPending
	} else {
		doc.PaidAmount = doc.Total
		doc.Status = StatusPaid
	}

	if doc.Type != TypeQuote {
		if err := s.decrementItems(ctx, tenantID, branchID, doc.Items); err != nil {
			return nil, err
		}
	}

	created, err := s.repo.Insert(ctx, doc)
	if err != nil {
		if doc.Type != TypeQuote {
			s.restoreItems(ctx, tenantID, branchID, doc.Items, len(doc.Items))
		}
		return nil, err
	}
	s.recordAudit(ctx, tenantID, "documents:create", created.ID, map[string]any{
		"type":  created.Type,
		"total": created.Total,
	})
	return &created, nil
}

// decrementItems takes stock for every line item. On failure it restores
// the decrements already applied before returning the original error.
func (s *Service) decrementItems(ctx context.Context, tenantID, branchID string, items []SaleItem) error {
	for i, item := range items {
		if err := s.stock.Decrement(ctx, tenantID, item.ProductID, branchID, item.Quantity); err != nil {
			s.restoreItems(ctx, tenantID, branchID, items, i)
			return fmt.Errorf("documents: product %s: %w", item.ProductID, err)
		}
	}
	return nil
}

func (s *Service) restoreItems(ctx context.Context, tenantID, branchID string, items []SaleItem, upto int) {
	for j := 0; j < upto; j++ {
		if err := s.stock.Increment(ctx, tenantID, items[j].ProductID, branchID, items[j].Quantity); err != nil {
			s.logger.Error("restore stock after failed sale",
				slog.String("product_id", items[j].ProductID),
				slog.Any("error", err))
		}
	}
}

// Get fetches one document.
func (s *Service) Get(ctx context.Context, tenantID, id string) (Document, error) {
	return s.repo.Get(ctx, tenantID, id)
}

// List returns documents matching the filter plus the unpaged total.
func (s *Service) List(ctx context.Context, tenantID string, filter ListFilter) ([]Document, int, error) {
	return s.repo.List(ctx, tenantID, filter)
}

// CancelReservation releases a reservation's stock back to its branch and
// marks the document cancelled.
func (s *Service) CancelReservation(ctx context.Context, tenantID, id string) error {
	doc, err := s.repo.Get(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if doc.Type != TypeReservation {
		return ErrNotReservation
	}
	if doc.Status == StatusCancelled {
		return ErrAlreadyCancelled
	}
	for _, item := range doc.Items {
		if err := s.stock.Increment(ctx, tenantID, item.ProductID, doc.BranchID, item.Quantity); err != nil {
			return fmt.Errorf("documents: release stock for %s: %w", item.ProductID, err)
		}
	}
	if err := s.repo.UpdateStatus(ctx, tenantID, id, StatusCancelled); err != nil {
		return err
	}
	s.recordAudit(ctx, tenantID, "documents:cancel_reservation", id, nil)
	return nil
}

func (s *Service) recordAudit(ctx context.Context, tenantID, action, docID string, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		TenantID: tenantID,
		ActorID:  shared.UserFromContext(ctx),
		Action:   action,
		Entity:   "sale_document",
		EntityID: docID,
		Meta:     meta,
	})
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
