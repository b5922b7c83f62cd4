package customers

import "time"

// Customer is a buyer on record. Sales may also reference the walk-in
// sentinel, which never appears in this table.
type Customer struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"-"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Address   string    `json:"address,omitempty"`
	CUIT      string    `json:"cuit,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// CustomerInput is the create/update payload.
type CustomerInput struct {
	Name     string `json:"name" validate:"required,min=2,max=160"`
	Email    string `json:"email" validate:"omitempty,email"`
	Phone    string `json:"phone" validate:"max=40"`
	Address  string `json:"address" validate:"max=240"`
	CUIT     string `json:"cuit" validate:"max=20"`
	Notes    string `json:"notes" validate:"max=1000"`
	IsActive bool   `json:"is_active"`
}

// ListFilter narrows customer listings.
type ListFilter struct {
	Search string
	Limit  int
	Offset int
}
