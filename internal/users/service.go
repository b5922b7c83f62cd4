package users

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/gestionpro/gestionpro/internal/shared"
)

// MailerPort queues outbound invite emails.
type MailerPort interface {
	EnqueueInviteEmail(ctx context.Context, tenantID, email, tempPassword string) error
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service manages tenant user accounts.
type Service struct {
	logger *slog.Logger
	repo   RepositoryPort
	mailer MailerPort
	audit  AuditPort
}

// NewService builds Service. mailer may be nil; invites then skip the
// email and the temporary password is only returned to the caller.
func NewService(logger *slog.Logger, repo RepositoryPort, mailer MailerPort, audit AuditPort) *Service {
	return &Service{logger: logger, repo: repo, mailer: mailer, audit: audit}
}

func (s *Service) List(ctx context.Context, tenantID string) ([]Profile, error) {
	return s.repo.List(ctx, tenantID)
}

func (s *Service) Get(ctx context.Context, tenantID, id string) (Profile, error) {
	return s.repo.Get(ctx, tenantID, id)
}

// Invite creates a user with a generated temporary password and queues
// the invite email carrying it.
func (s *Service) Invite(ctx context.Context, tenantID string, input InviteInput) (Profile, string, error) {
	tempPassword := uuid.NewString()
	hash, err := bcrypt.GenerateFromPassword([]byte(tempPassword), bcrypt.DefaultCost)
	if err != nil {
		return Profile{}, "", fmt.Errorf("users: hash temp password: %w", err)
	}

	profile, err := s.repo.Insert(ctx, Profile{
		TenantID: tenantID,
		Email:    input.Email,
		FullName: input.FullName,
		RoleID:   input.RoleID,
		IsActive: true,
	}, string(hash))
	if err != nil {
		return Profile{}, "", err
	}

	if s.mailer != nil {
		if err := s.mailer.EnqueueInviteEmail(ctx, tenantID, input.Email, tempPassword); err != nil {
			s.logger.Error("enqueue invite email",
				slog.String("email", input.Email), slog.Any("error", err))
		}
	}
	s.recordAudit(ctx, tenantID, "users:invite", profile.ID)
	return profile, tempPassword, nil
}

func (s *Service) Update(ctx context.Context, tenantID, id string, input UpdateInput) (Profile, error) {
	existing, err := s.repo.Get(ctx, tenantID, id)
	if err != nil {
		return Profile{}, err
	}
	existing.FullName = input.FullName
	existing.RoleID = input.RoleID
	existing.IsActive = input.IsActive
	profile, err := s.repo.Update(ctx, existing)
	if err != nil {
		return Profile{}, err
	}
	s.recordAudit(ctx, tenantID, "users:update", id)
	return profile, nil
}

// MergeConfig overlays patch keys onto the stored per-user settings.
// Null values delete keys.
func (s *Service) MergeConfig(ctx context.Context, tenantID, id string, patch map[string]any) (map[string]any, error) {
	profile, err := s.repo.Get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	merged := profile.Config
	if merged == nil {
		merged = make(map[string]any, len(patch))
	}
	for k, v := range patch {
		if v == nil {
			delete(merged, k)
			continue
		}
		merged[k] = v
	}
	if err := s.repo.UpdateConfig(ctx, tenantID, id, merged); err != nil {
		return nil, err
	}
	return merged, nil
}

// SetAvatar records the uploaded avatar URL.
func (s *Service) SetAvatar(ctx context.Context, tenantID, id, url string) error {
	return s.repo.SetAvatarURL(ctx, tenantID, id, url)
}

func (s *Service) recordAudit(ctx context.Context, tenantID, action, id string) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		TenantID: tenantID,
		ActorID:  shared.UserFromContext(ctx),
		Action:   action,
		Entity:   "profile",
		EntityID: id,
	})
}
