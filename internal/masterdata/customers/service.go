package customers

import (
	"context"

	"github.com/gestionpro/gestionpro/internal/shared"
)

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service manages customer master data.
type Service struct {
	repo  RepositoryPort
	audit AuditPort
}

// NewService builds Service.
func NewService(repo RepositoryPort, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit}
}

func (s *Service) List(ctx context.Context, tenantID string, filter ListFilter) ([]Customer, int, error) {
	return s.repo.List(ctx, tenantID, filter)
}

func (s *Service) Get(ctx context.Context, tenantID, id string) (Customer, error) {
	return s.repo.Get(ctx, tenantID, id)
}

func (s *Service) Create(ctx context.Context, tenantID string, input CustomerInput) (Customer, error) {
	c, err := s.repo.Create(ctx, fromInput(tenantID, "", input))
	if err != nil {
		return Customer{}, err
	}
	s.recordAudit(ctx, tenantID, "customers:create", c.ID)
	return c, nil
}

func (s *Service) Update(ctx context.Context, tenantID, id string, input CustomerInput) (Customer, error) {
	c, err := s.repo.Update(ctx, fromInput(tenantID, id, input))
	if err != nil {
		return Customer{}, err
	}
	s.recordAudit(ctx, tenantID, "customers:update", id)
	return c, nil
}

func (s *Service) Delete(ctx context.Context, tenantID, id string) error {
	if err := s.repo.Delete(ctx, tenantID, id); err != nil {
		return err
	}
	s.recordAudit(ctx, tenantID, "customers:delete", id)
	return nil
}

func fromInput(tenantID, id string, input CustomerInput) Customer {
	return Customer{
		ID:       id,
		TenantID: tenantID,
		Name:     input.Name,
		Email:    input.Email,
		Phone:    input.Phone,
		Address:  input.Address,
		CUIT:     input.CUIT,
		Notes:    input.Notes,
		IsActive: input.IsActive,
	}
}

func (s *Service) recordAudit(ctx context.Context, tenantID, action, id string) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		TenantID: tenantID,
		ActorID:  shared.UserFromContext(ctx),
		Action:   action,
		Entity:   "customer",
		EntityID: id,
	})
}
