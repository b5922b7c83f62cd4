package suppliers

import "time"

// Supplier is a vendor on record.
type Supplier struct {
	ID          string    `json:"id"`
	TenantID    string    `json:"-"`
	Name        string    `json:"name"`
	ContactName string    `json:"contact_name,omitempty"`
	Email       string    `json:"email,omitempty"`
	Phone       string    `json:"phone,omitempty"`
	Address     string    `json:"address,omitempty"`
	CUIT        string    `json:"cuit,omitempty"`
	Notes       string    `json:"notes,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

// SupplierInput is the create/update payload.
type SupplierInput struct {
	Name        string `json:"name" validate:"required,min=2,max=160"`
	ContactName string `json:"contact_name" validate:"max=160"`
	Email       string `json:"email" validate:"omitempty,email"`
	Phone       string `json:"phone" validate:"max=40"`
	Address     string `json:"address" validate:"max=240"`
	CUIT        string `json:"cuit" validate:"max=20"`
	Notes       string `json:"notes" validate:"max=1000"`
	IsActive    bool   `json:"is_active"`
}

// ListFilter narrows supplier listings.
type ListFilter struct {
	Search string
	Limit  int
	Offset int
}
