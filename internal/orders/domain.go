// Package orders ingests e-commerce orders and turns them into stock
// reservations.
package orders

import (
	"errors"
	"fmt"
	"time"
)

// OrderStatus tracks an ingested order through processing. received is
// the only non-terminal status.
type OrderStatus string

const (
	StatusReceived         OrderStatus = "received"
	StatusProcessed        OrderStatus = "processed"
	StatusStockUnavailable OrderStatus = "stock_unavailable"
	StatusError            OrderStatus = "error"
)

// orderDataVersion is the current order_data payload schema.
const orderDataVersion = 1

// PaymentMethodEcommerce marks reservations created from online orders.
const PaymentMethodEcommerce = "E-commerce"

// OrderItem is one line of an incoming order. ProductID is resolved from
// SKU during processing when the platform only sends SKUs.
type OrderItem struct {
	SKU       string  `json:"sku"`
	ProductID string  `json:"product_id,omitempty"`
	Name      string  `json:"name,omitempty"`
	Quantity  int64   `json:"quantity"`
	UnitPrice float64 `json:"unit_price,omitempty"`
}

// OrderData is the versioned payload stored on each order row.
type OrderData struct {
	Version       int         `json:"version"`
	ExternalRef   string      `json:"external_ref,omitempty"`
	CustomerName  string      `json:"customer_name,omitempty"`
	CustomerEmail string      `json:"customer_email,omitempty"`
	Items         []OrderItem `json:"items"`
}

// Order is an e-commerce order awaiting or past processing.
type Order struct {
	ID           string      `json:"id"`
	TenantID     string      `json:"-"`
	PlatformID   string      `json:"platform_id,omitempty"`
	Status       OrderStatus `json:"status"`
	Data         OrderData   `json:"data"`
	DocumentID   string      `json:"document_id,omitempty"`
	ErrorMessage string      `json:"error_message,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
	ProcessedAt  *time.Time  `json:"processed_at,omitempty"`
}

// ErrStockUnavailable means no eligible branch can cover the order.
var ErrStockUnavailable = errors.New("orders: stock unavailable")

// StockUnavailableError names the product that exhausted every candidate
// branch.
type StockUnavailableError struct {
	ProductID string
}

func (e *StockUnavailableError) Error() string {
	return fmt.Sprintf("orders: no branch can supply product %s", e.ProductID)
}

func (e *StockUnavailableError) Unwrap() error { return ErrStockUnavailable }
