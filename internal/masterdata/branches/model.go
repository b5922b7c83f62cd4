package branches

import "time"

// Branch is a physical or virtual sales location. PriorityOrder drives
// e-commerce branch assignment: lower values are preferred, ties break on
// id so the ordering is total.
type Branch struct {
	ID                string    `json:"id"`
	TenantID          string    `json:"-"`
	Name              string    `json:"name"`
	Address           string    `json:"address,omitempty"`
	Phone             string    `json:"phone,omitempty"`
	PriorityOrder     int       `json:"priority_order"`
	IsEcommerceSource bool      `json:"is_ecommerce_source"`
	IsActive          bool      `json:"is_active"`
	CreatedAt         time.Time `json:"created_at"`
}

// BranchInput is the create/update payload.
type BranchInput struct {
	Name              string `json:"name" validate:"required,min=2,max=120"`
	Address           string `json:"address" validate:"max=240"`
	Phone             string `json:"phone" validate:"max=40"`
	PriorityOrder     int    `json:"priority_order" validate:"gte=0"`
	IsEcommerceSource bool   `json:"is_ecommerce_source"`
	IsActive          bool   `json:"is_active"`
}
