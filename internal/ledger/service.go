package ledger

import (
	"context"
	"errors"

	"github.com/gestionpro/gestionpro/internal/shared"
)

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service coordinates stock ledger operations.
type Service struct {
	repo  RepositoryPort
	audit AuditPort
}

// NewService builds Service.
func NewService(repo RepositoryPort, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit}
}

// ConsolidatedStock returns the sum of a product's stock across branches.
func (s *Service) ConsolidatedStock(ctx context.Context, tenantID, productID string) (int64, error) {
	if productID == "" {
		return 0, errors.New("ledger: product required")
	}
	return s.repo.ConsolidatedStock(ctx, tenantID, productID)
}

// Decrement removes qty units from one branch. Fails with
// ErrInsufficientStock when the branch lacks quantity, leaving the row
// unchanged.
func (s *Service) Decrement(ctx context.Context, tenantID, productID, branchID string, qty int64) error {
	if productID == "" || branchID == "" {
		return errors.New("ledger: product and branch required")
	}
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	if err := s.repo.Decrement(ctx, tenantID, productID, branchID, qty); err != nil {
		return err
	}
	s.recordAudit(ctx, tenantID, "ledger:decrement", productID, branchID, -qty)
	return nil
}

// Increment adds qty units back to one branch, reversing a decrement.
func (s *Service) Increment(ctx context.Context, tenantID, productID, branchID string, qty int64) error {
	if productID == "" || branchID == "" {
		return errors.New("ledger: product and branch required")
	}
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	if err := s.repo.Increment(ctx, tenantID, productID, branchID, qty); err != nil {
		return err
	}
	s.recordAudit(ctx, tenantID, "ledger:increment", productID, branchID, qty)
	return nil
}

// UpsertForProduct overwrites per-branch stock figures. Product edit and
// import flows only; sales go through Decrement/Increment so concurrent
// stock changes are never clobbered.
func (s *Service) UpsertForProduct(ctx context.Context, tenantID, productID string, rows []StockRow) error {
	if productID == "" {
		return errors.New("ledger: product required")
	}
	for _, row := range rows {
		if row.BranchID == "" {
			return errors.New("ledger: branch required on every stock row")
		}
		if row.Stock < 0 {
			return errors.New("ledger: stock must not be negative")
		}
	}
	if err := s.repo.UpsertForProduct(ctx, tenantID, productID, rows); err != nil {
		return err
	}
	s.recordAudit(ctx, tenantID, "ledger:upsert", productID, "", int64(len(rows)))
	return nil
}

// ListForProduct returns all branch rows for a product.
func (s *Service) ListForProduct(ctx context.Context, tenantID, productID string) ([]BranchStock, error) {
	if productID == "" {
		return nil, errors.New("ledger: product required")
	}
	return s.repo.ListForProduct(ctx, tenantID, productID)
}

// ListLowStock returns rows at or below their reorder threshold.
func (s *Service) ListLowStock(ctx context.Context, tenantID string) ([]BranchStock, error) {
	return s.repo.ListLowStock(ctx, tenantID)
}

func (s *Service) recordAudit(ctx context.Context, tenantID, action, productID, branchID string, qty int64) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		TenantID: tenantID,
		ActorID:  shared.UserFromContext(ctx),
		Action:   action,
		Entity:   "branch_stock",
		EntityID: productID,
		Meta: map[string]any{
			"branch_id": branchID,
			"qty":       qty,
		},
	})
}
