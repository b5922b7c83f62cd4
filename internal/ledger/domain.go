package ledger

import (
	"errors"
	"time"
)

// BranchStock is the ledger's atomic unit: one row per (product, branch).
type BranchStock struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"-"`
	ProductID string    `json:"product_id"`
	BranchID  string    `json:"branch_id"`
	Stock     int64     `json:"stock"`
	MinStock  int64     `json:"min_stock"`
	CostPrice float64   `json:"cost_price"`
	SalePrice float64   `json:"sale_price"`
	CreatedAt time.Time `json:"created_at"`
}

// StockRow carries per-branch figures for product create/edit/import flows.
type StockRow struct {
	BranchID  string  `json:"branch_id" validate:"required"`
	Stock     int64   `json:"stock" validate:"gte=0"`
	MinStock  int64   `json:"min_stock" validate:"gte=0"`
	CostPrice float64 `json:"cost_price" validate:"gte=0"`
	SalePrice float64 `json:"sale_price" validate:"gte=0"`
}

// ErrInsufficientStock is returned when a decrement would drive a
// branch's stock below zero. The check-and-decrement is atomic at the
// storage layer; callers may pick another branch or surface the error.
var ErrInsufficientStock = errors.New("ledger: insufficient stock")

// ErrInvalidQuantity indicates a non-positive quantity.
var ErrInvalidQuantity = errors.New("ledger: quantity must be positive")
