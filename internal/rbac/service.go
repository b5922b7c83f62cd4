// Package rbac resolves role-based permissions for authenticated users.
package rbac

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Service loads effective permissions from the user's role.
type Service struct {
	pool *pgxpool.Pool
}

// NewService constructs Service.
func NewService(pool *pgxpool.Pool) *Service {
	return &Service{pool: pool}
}

// EffectivePermissions returns the permission keys granted to a user
// through their role. Users without a role have no permissions.
func (s *Service) EffectivePermissions(ctx context.Context, userID string) ([]string, error) {
	if s == nil || s.pool == nil {
		return nil, errors.New("rbac: service not initialised")
	}
	var raw []byte
	err := s.pool.QueryRow(ctx, `SELECT r.permissions FROM profiles p
JOIN roles r ON r.id = p.role_id AND r.is_active
WHERE p.id = $1`, userID).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	var perms []string
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &perms); err != nil {
			return nil, err
		}
	}
	return normalizePermissions(perms), nil
}

func normalizePermissions(perms []string) []string {
	seen := make(map[string]struct{}, len(perms))
	result := make([]string, 0, len(perms))
	for _, p := range perms {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		result = append(result, p)
	}
	return result
}

// PermissionWildcard grants every permission; assigned to tenant owners.
const PermissionWildcard = "*"

func hasAnyPermission(granted, required []string) bool {
	set := make(map[string]struct{}, len(granted))
	for _, g := range granted {
		set[g] = struct{}{}
	}
	if _, ok := set[PermissionWildcard]; ok {
		return true
	}
	for _, r := range required {
		if _, ok := set[r]; ok {
			return true
		}
	}
	return false
}

func hasAllPermissions(granted, required []string) bool {
	set := make(map[string]struct{}, len(granted))
	for _, g := range granted {
		set[g] = struct{}{}
	}
	if _, ok := set[PermissionWildcard]; ok {
		return true
	}
	for _, r := range required {
		if _, ok := set[r]; !ok {
			return false
		}
	}
	return true
}
