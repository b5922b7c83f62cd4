package roles

import (
	"context"
	"fmt"

	"github.com/gestionpro/gestionpro/internal/shared"
)

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service manages roles.
type Service struct {
	repo  RepositoryPort
	audit AuditPort
}

// NewService builds Service.
func NewService(repo RepositoryPort, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit}
}

func (s *Service) List(ctx context.Context, tenantID string) ([]Role, error) {
	return s.repo.List(ctx, tenantID)
}

func (s *Service) Get(ctx context.Context, tenantID, id string) (Role, error) {
	return s.repo.Get(ctx, tenantID, id)
}

func (s *Service) Create(ctx context.Context, tenantID string, input RoleInput) (Role, error) {
	role, err := s.repo.Create(ctx, Role{
		TenantID:    tenantID,
		Name:        input.Name,
		Description: input.Description,
		Permissions: input.Permissions,
		IsActive:    input.IsActive,
	})
	if err != nil {
		return Role{}, err
	}
	s.recordAudit(ctx, tenantID, "roles:create", role.ID)
	return role, nil
}

func (s *Service) Update(ctx context.Context, tenantID, id string, input RoleInput) (Role, error) {
	role, err := s.repo.Update(ctx, Role{
		ID:          id,
		TenantID:    tenantID,
		Name:        input.Name,
		Description: input.Description,
		Permissions: input.Permissions,
		IsActive:    input.IsActive,
	})
	if err != nil {
		return Role{}, err
	}
	s.recordAudit(ctx, tenantID, "roles:update", id)
	return role, nil
}

// Delete refuses to remove a role while any profile still carries it.
func (s *Service) Delete(ctx context.Context, tenantID, id string) error {
	count, err := s.repo.AssignedCount(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("roles: %d users assigned: %w", count, shared.ErrRoleInUse)
	}
	if err := s.repo.Delete(ctx, tenantID, id); err != nil {
		return err
	}
	s.recordAudit(ctx, tenantID, "roles:delete", id)
	return nil
}

func (s *Service) recordAudit(ctx context.Context, tenantID, action, id string) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		TenantID: tenantID,
		ActorID:  shared.UserFromContext(ctx),
		Action:   action,
		Entity:   "role",
		EntityID: id,
	})
}
