package users

import "time"

// Profile is a user account inside a tenant. The tenant owner's profile
// has ID equal to the tenant id; invited users carry a role.
type Profile struct {
	ID        string         `json:"id"`
	TenantID  string         `json:"-"`
	Email     string         `json:"email"`
	FullName  string         `json:"full_name"`
	RoleID    string         `json:"role_id,omitempty"`
	AvatarURL string         `json:"avatar_url,omitempty"`
	Config    map[string]any `json:"config,omitempty"`
	IsActive  bool           `json:"is_active"`
	CreatedAt time.Time      `json:"created_at"`
}

// InviteInput creates a new user in the tenant.
type InviteInput struct {
	Email    string `json:"email" validate:"required,email"`
	FullName string `json:"full_name" validate:"required,min=2,max=160"`
	RoleID   string `json:"role_id" validate:"required"`
}

// UpdateInput edits an existing user.
type UpdateInput struct {
	FullName string `json:"full_name" validate:"required,min=2,max=160"`
	RoleID   string `json:"role_id"`
	IsActive bool   `json:"is_active"`
}
