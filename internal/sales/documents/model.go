package documents

import "time"

// DocumentType enumerates commercial document kinds.
type DocumentType string

const (
	// TypeInvoice is a finalized sale participating in accounts receivable.
	TypeInvoice DocumentType = "invoice"
	// TypeQuote is a price offer; it never touches stock.
	TypeQuote DocumentType = "quote"
	// TypeReservation holds inventory without being a finalized sale.
	TypeReservation DocumentType = "reservation"
)

// DocumentStatus tracks the payment lifecycle of a document.
type DocumentStatus string

const (
	StatusPaid          DocumentStatus = "paid"
	StatusPending       DocumentStatus = "pending"
	StatusPartiallyPaid DocumentStatus = "partially_paid"
	StatusCancelled     DocumentStatus = "cancelled"
)

// PaymentMethodOnAccount defers payment to the customer's account;
// invoices created with it start unpaid.
const PaymentMethodOnAccount = "Cuenta corriente"

// WalkInCustomerID is the sentinel id used when no customer is selected.
const WalkInCustomerID = "cf"

// WalkInCustomerName labels the sentinel walk-in customer.
const WalkInCustomerName = "Consumidor Final"

// SaleItem is a line-item snapshot. Values are copied from the catalog at
// sale time so historical documents stay correct when products change.
type SaleItem struct {
	ProductID   string  `json:"product_id"`
	ProductName string  `json:"product_name"`
	Quantity    int64   `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	Subtotal    float64 `json:"subtotal"`
}

// CustomerSnapshot is the denormalized customer stored on a document.
type CustomerSnapshot struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	CUIT  string `json:"cuit,omitempty"`
}

// Document is an immutable record of a commercial transaction. Only
// PaidAmount and Status evolve after creation, under the settlement
// allocator (or reservation cancellation).
type Document struct {
	ID              string           `json:"id"`
	TenantID        string           `json:"-"`
	Type            DocumentType     `json:"type"`
	Customer        CustomerSnapshot `json:"customer"`
	Items           []SaleItem       `json:"items"`
	Subtotal        float64          `json:"subtotal"`
	Tax             float64          `json:"tax"`
	Total           float64          `json:"total"`
	PaidAmount      float64          `json:"paid_amount"`
	Status          DocumentStatus   `json:"status"`
	PaymentMethod   string           `json:"payment_method"`
	PaymentCurrency string           `json:"payment_currency"`
	ExchangeRate    *float64         `json:"exchange_rate,omitempty"`
	BranchID        string           `json:"branch_id"`
	ResponsibleID   string           `json:"responsible_id"`
	CreatedAt       time.Time        `json:"created_at"`
}

// Debt returns the outstanding amount on the document.
func (d Document) Debt() float64 {
	return d.Total - d.PaidAmount
}
