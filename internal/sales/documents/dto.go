package documents

// CreateDocumentInput describes a new sale document request.
type CreateDocumentInput struct {
	Type            DocumentType      `json:"type" validate:"required,oneof=invoice quote reservation"`
	Customer        *CustomerSnapshot `json:"customer"`
	Items           []SaleItem        `json:"items" validate:"required,min=1,dive"`
	Subtotal        float64           `json:"subtotal" validate:"gte=0"`
	Tax             float64           `json:"tax" validate:"gte=0"`
	Total           float64           `json:"total" validate:"gt=0"`
	PaymentMethod   string            `json:"payment_method" validate:"required"`
	PaymentCurrency string            `json:"payment_currency" validate:"required"`
	ExchangeRate    *float64          `json:"exchange_rate"`
	BranchID        string            `json:"branch_id"`
	ResponsibleID   string            `json:"responsible_id"`
}

// ListFilter narrows document listings.
type ListFilter struct {
	Type       DocumentType
	Status     DocumentStatus
	CustomerID string
	Limit      int
	Offset     int
}
