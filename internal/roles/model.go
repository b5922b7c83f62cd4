package roles

import "time"

// Role groups permission keys assigned to invited users. Tenant owners
// bypass roles entirely.
type Role struct {
	ID          string    `json:"id"`
	TenantID    string    `json:"-"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Permissions []string  `json:"permissions"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

// RoleInput is the create/update payload.
type RoleInput struct {
	Name        string   `json:"name" validate:"required,min=2,max=80"`
	Description string   `json:"description" validate:"max=500"`
	Permissions []string `json:"permissions" validate:"required,min=1,dive,min=1"`
	IsActive    bool     `json:"is_active"`
}
