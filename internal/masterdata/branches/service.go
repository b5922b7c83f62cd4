package branches

import (
	"context"

	"github.com/gestionpro/gestionpro/internal/shared"
)

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service manages branch master data.
type Service struct {
	repo  RepositoryPort
	audit AuditPort
}

// NewService builds Service.
func NewService(repo RepositoryPort, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit}
}

func (s *Service) List(ctx context.Context, tenantID string) ([]Branch, error) {
	return s.repo.List(ctx, tenantID)
}

func (s *Service) Get(ctx context.Context, tenantID, id string) (Branch, error) {
	return s.repo.Get(ctx, tenantID, id)
}

func (s *Service) Create(ctx context.Context, tenantID string, input BranchInput) (Branch, error) {
	branch, err := s.repo.Create(ctx, Branch{
		TenantID:          tenantID,
		Name:              input.Name,
		Address:           input.Address,
		Phone:             input.Phone,
		PriorityOrder:     input.PriorityOrder,
		IsEcommerceSource: input.IsEcommerceSource,
		IsActive:          input.IsActive,
	})
	if err != nil {
		return Branch{}, err
	}
	s.recordAudit(ctx, tenantID, "branches:create", branch.ID)
	return branch, nil
}

func (s *Service) Update(ctx context.Context, tenantID, id string, input BranchInput) (Branch, error) {
	branch, err := s.repo.Update(ctx, Branch{
		ID:                id,
		TenantID:          tenantID,
		Name:              input.Name,
		Address:           input.Address,
		Phone:             input.Phone,
		PriorityOrder:     input.PriorityOrder,
		IsEcommerceSource: input.IsEcommerceSource,
		IsActive:          input.IsActive,
	})
	if err != nil {
		return Branch{}, err
	}
	s.recordAudit(ctx, tenantID, "branches:update", id)
	return branch, nil
}

// Delete removes a branch together with its stock rows.
func (s *Service) Delete(ctx context.Context, tenantID, id string) error {
	if err := s.repo.Delete(ctx, tenantID, id); err != nil {
		return err
	}
	s.recordAudit(ctx, tenantID, "branches:delete", id)
	return nil
}

// DefaultBranch resolves the branch used when a sale names none.
func (s *Service) DefaultBranch(ctx context.Context, tenantID string) (string, error) {
	return s.repo.DefaultBranch(ctx, tenantID)
}

func (s *Service) recordAudit(ctx context.Context, tenantID, action, id string) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		TenantID: tenantID,
		ActorID:  shared.UserFromContext(ctx),
		Action:   action,
		Entity:   "branch",
		EntityID: id,
	})
}
