// Package auth authenticates users and manages their sessions.
package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"github.com/gestionpro/gestionpro/internal/shared"
)

// Identity is the authenticated principal.
type Identity struct {
	UserID   string
	TenantID string
	Email    string
	FullName string
}

// Service verifies credentials against stored profile hashes.
type Service struct {
	pool *pgxpool.Pool
}

// NewService constructs Service.
func NewService(pool *pgxpool.Pool) *Service {
	return &Service{pool: pool}
}

// Authenticate checks email and password. It returns
// shared.ErrInvalidCredentials for unknown emails, wrong passwords and
// inactive accounts alike, so responses never reveal which failed.
func (s *Service) Authenticate(ctx context.Context, email, password string) (Identity, error) {
	var (
		id       Identity
		hash     string
		isActive bool
	)
	err := s.pool.QueryRow(ctx, `SELECT id, tenant_id, email, full_name, password_hash, is_active
FROM profiles WHERE lower(email) = lower($1)`, email).
		Scan(&id.UserID, &id.TenantID, &id.Email, &id.FullName, &hash, &isActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Identity{}, shared.ErrInvalidCredentials
		}
		return Identity{}, fmt.Errorf("auth: lookup profile: %w", err)
	}
	if !isActive {
		return Identity{}, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return Identity{}, shared.ErrInvalidCredentials
	}
	return id, nil
}

// ChangePassword verifies the current password before storing the new
// one.
func (s *Service) ChangePassword(ctx context.Context, tenantID, userID, current, next string) error {
	var hash string
	err := s.pool.QueryRow(ctx, `SELECT password_hash FROM profiles
WHERE tenant_id = $1 AND id = $2`, tenantID, userID).Scan(&hash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return shared.ErrNotFound
		}
		return fmt.Errorf("auth: lookup profile: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(current)); err != nil {
		return shared.ErrInvalidCredentials
	}
	return s.SetPassword(ctx, tenantID, userID, next)
}

// SetPassword stores a new bcrypt hash for the user.
func (s *Service) SetPassword(ctx context.Context, tenantID, userID, password string) error {
	if len(password) < 8 {
		return errors.New("auth: password must be at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("auth: hash password: %w", err)
	}
	tag, err := s.pool.Exec(ctx, `UPDATE profiles SET password_hash = $3
WHERE tenant_id = $1 AND id = $2`, tenantID, userID, string(hash))
	if err != nil {
		return fmt.Errorf("auth: set password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("auth: %s: %w", userID, shared.ErrNotFound)
	}
	return nil
}
