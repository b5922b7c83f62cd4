package products

import (
	"time"

	"github.com/gestionpro/gestionpro/internal/ledger"
)

// Product is a catalog entry. Per-branch stock and price figures live in
// the stock ledger; the product row carries list prices used as defaults
// for new branches.
type Product struct {
	ID          string    `json:"id"`
	TenantID    string    `json:"-"`
	SKU         string    `json:"sku"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Category    string    `json:"category,omitempty"`
	Brand       string    `json:"brand,omitempty"`
	Unit        string    `json:"unit,omitempty"`
	CostPrice   float64   `json:"cost_price"`
	SalePrice   float64   `json:"sale_price"`
	ImageURL    string    `json:"image_url,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ProductInput is the create/update payload. Stocks replaces the
// product's per-branch rows wholesale.
type ProductInput struct {
	SKU         string            `json:"sku" validate:"required,min=1,max=64"`
	Name        string            `json:"name" validate:"required,min=2,max=200"`
	Description string            `json:"description" validate:"max=2000"`
	Category    string            `json:"category" validate:"max=120"`
	Brand       string            `json:"brand" validate:"max=120"`
	Unit        string            `json:"unit" validate:"max=20"`
	CostPrice   float64           `json:"cost_price" validate:"gte=0"`
	SalePrice   float64           `json:"sale_price" validate:"gte=0"`
	IsActive    bool              `json:"is_active"`
	Stocks      []ledger.StockRow `json:"stocks" validate:"dive"`
}

// ListFilter narrows product listings.
type ListFilter struct {
	Search   string
	Category string
	Limit    int
	Offset   int
}

// ImportMode controls how a bulk import treats SKUs that already exist.
type ImportMode string

const (
	// ImportOverwrite replaces the existing product and its default-branch
	// stock figure.
	ImportOverwrite ImportMode = "overwrite"
	// ImportSkip leaves existing products untouched.
	ImportSkip ImportMode = "skip"
)

// ImportRow is one line of a bulk import file.
type ImportRow struct {
	SKU       string  `json:"sku"`
	Name      string  `json:"name"`
	Category  string  `json:"category"`
	CostPrice float64 `json:"cost_price"`
	SalePrice float64 `json:"sale_price"`
	Stock     int64   `json:"stock"`
	MinStock  int64   `json:"min_stock"`
}

// ImportRowError reports a row the import could not apply.
type ImportRowError struct {
	Row     int    `json:"row"`
	SKU     string `json:"sku"`
	Message string `json:"message"`
}

// ImportResult summarizes a bulk import run.
type ImportResult struct {
	Created int              `json:"created"`
	Updated int              `json:"updated"`
	Skipped int              `json:"skipped"`
	Errors  []ImportRowError `json:"errors,omitempty"`
}
