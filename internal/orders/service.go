package orders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gestionpro/gestionpro/internal/masterdata/products"
	"github.com/gestionpro/gestionpro/internal/sales/documents"
	"github.com/gestionpro/gestionpro/internal/shared"
)

// DocumentPort creates the reservation backing a processed order.
type DocumentPort interface {
	Create(ctx context.Context, tenantID string, input documents.CreateDocumentInput) (*documents.Document, error)
}

// ProductPort resolves platform line items against the catalog.
type ProductPort interface {
	Get(ctx context.Context, tenantID, id string) (products.Product, error)
	GetBySKU(ctx context.Context, tenantID, sku string) (products.Product, error)
}

// EnqueuerPort hands freshly received orders to the background worker.
type EnqueuerPort interface {
	EnqueueOrderIngest(ctx context.Context, tenantID, orderID string) error
}

// IdempotencyPort deduplicates webhook deliveries by external reference.
type IdempotencyPort interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key string) error
}

// ReceiveOrderInput is an incoming order from a connected platform.
type ReceiveOrderInput struct {
	PlatformID    string      `json:"platform_id"`
	ExternalRef   string      `json:"external_ref"`
	CustomerName  string      `json:"customer_name"`
	CustomerEmail string      `json:"customer_email" validate:"omitempty,email"`
	Items         []OrderItem `json:"items" validate:"required,min=1"`
}

// Service runs the order ingestion pipeline.
type Service struct {
	logger   *slog.Logger
	repo     RepositoryPort
	resolver *Resolver
	products ProductPort
	docs     DocumentPort
	enqueuer EnqueuerPort
	idem     IdempotencyPort
}

// NewService builds Service. enqueuer may be nil; orders then wait for an
// explicit process call. idem may be nil; duplicate webhook deliveries
// then create duplicate orders.
func NewService(logger *slog.Logger, repo RepositoryPort, resolver *Resolver, products ProductPort, docs DocumentPort, enqueuer EnqueuerPort, idem IdempotencyPort) *Service {
	return &Service{
		logger:   logger,
		repo:     repo,
		resolver: resolver,
		products: products,
		docs:     docs,
		enqueuer: enqueuer,
		idem:     idem,
	}
}

// Receive stores an incoming order as received and queues it for
// processing. A failed enqueue is logged, not fatal: the order row stays
// received and can be processed later.
func (s *Service) Receive(ctx context.Context, tenantID string, input ReceiveOrderInput) (Order, error) {
	if len(input.Items) == 0 {
		return Order{}, errors.New("orders: at least one item required")
	}
	for i, item := range input.Items {
		if item.Quantity <= 0 {
			return Order{}, fmt.Errorf("orders: item %d: quantity must be positive", i)
		}
		if item.SKU == "" && item.ProductID == "" {
			return Order{}, fmt.Errorf("orders: item %d: sku or product_id required", i)
		}
	}

	var idemKey string
	if s.idem != nil && input.ExternalRef != "" {
		idemKey = tenantID + ":" + input.PlatformID + ":" + input.ExternalRef
		if err := s.idem.CheckAndInsert(ctx, idemKey, "orders"); err != nil {
			return Order{}, err
		}
	}

	order, err := s.repo.Insert(ctx, Order{
		TenantID:   tenantID,
		PlatformID: input.PlatformID,
		Status:     StatusReceived,
		Data: OrderData{
			ExternalRef:   input.ExternalRef,
			CustomerName:  input.CustomerName,
			CustomerEmail: input.CustomerEmail,
			Items:         input.Items,
		},
	})
	if err != nil {
		if idemKey != "" {
			_ = s.idem.Delete(ctx, idemKey)
		}
		return Order{}, err
	}

	if s.enqueuer != nil {
		if err := s.enqueuer.EnqueueOrderIngest(ctx, tenantID, order.ID); err != nil {
			s.logger.Error("enqueue order ingest",
				slog.String("order_id", order.ID), slog.Any("error", err))
		}
	}
	return order, nil
}

// Process turns a received order into a stock reservation. The first line
// item picks the branch; every item then ships from that single branch.
// Failure lands the order in a terminal status instead of returning an
// error, so queue retries never reprocess a decided order.
func (s *Service) Process(ctx context.Context, tenantID, orderID string) error {
	order, err := s.repo.Get(ctx, tenantID, orderID)
	if err != nil {
		return err
	}
	if order.Status != StatusReceived {
		return nil
	}

	items, err := s.resolveProducts(ctx, tenantID, order.Data.Items)
	if err != nil {
		return s.fail(ctx, tenantID, orderID, StatusError, err)
	}

	chosen, err := s.resolver.AssignBranch(ctx, tenantID, items[0])
	if err != nil {
		if errors.Is(err, ErrStockUnavailable) {
			return s.fail(ctx, tenantID, orderID, StatusStockUnavailable, err)
		}
		return s.fail(ctx, tenantID, orderID, StatusError, err)
	}

	saleItems, err := s.priceItems(ctx, tenantID, chosen.BranchID, items)
	if err != nil {
		return s.fail(ctx, tenantID, orderID, StatusError, err)
	}

	doc, err := s.docs.Create(ctx, tenantID, documents.CreateDocumentInput{
		Type: documents.TypeReservation,
		Customer: &documents.CustomerSnapshot{
			ID:    documents.WalkInCustomerID,
			Name:  customerName(order.Data),
			Email: order.Data.CustomerEmail,
		},
		Items:           saleItems,
		PaymentMethod:   PaymentMethodEcommerce,
		PaymentCurrency: "ARS",
		BranchID:        chosen.BranchID,
	})
	if err != nil {
		// stock_unavailable is reserved for branch assignment finding no
		// branch at all. Losing a race on a later line item is an error.
		return s.fail(ctx, tenantID, orderID, StatusError, err)
	}

	if err := s.repo.MarkProcessed(ctx, tenantID, orderID, doc.ID); err != nil {
		return err
	}
	s.logger.Info("order processed",
		slog.String("order_id", orderID),
		slog.String("branch_id", chosen.BranchID),
		slog.String("document_id", doc.ID))
	return nil
}

// Get fetches one order.
func (s *Service) Get(ctx context.Context, tenantID, id string) (Order, error) {
	return s.repo.Get(ctx, tenantID, id)
}

// List returns orders, optionally filtered by status.
func (s *Service) List(ctx context.Context, tenantID string, status OrderStatus, limit, offset int) ([]Order, int, error) {
	return s.repo.List(ctx, tenantID, status, limit, offset)
}

func (s *Service) resolveProducts(ctx context.Context, tenantID string, items []OrderItem) ([]OrderItem, error) {
	resolved := make([]OrderItem, len(items))
	for i, item := range items {
		if item.ProductID == "" {
			p, err := s.products.GetBySKU(ctx, tenantID, item.SKU)
			if err != nil {
				if errors.Is(err, shared.ErrNotFound) {
					return nil, fmt.Errorf("orders: unknown sku %s", item.SKU)
				}
				return nil, err
			}
			item.ProductID = p.ID
			if item.Name == "" {
				item.Name = p.Name
			}
		}
		resolved[i] = item
	}
	return resolved, nil
}

// priceItems prices each line at the chosen branch's sale price, falling
// back to the catalog list price when the branch has no row for it.
func (s *Service) priceItems(ctx context.Context, tenantID, branchID string, items []OrderItem) ([]documents.SaleItem, error) {
	result := make([]documents.SaleItem, len(items))
	for i, item := range items {
		price := item.UnitPrice
		candidates, err := s.resolver.availability.Candidates(ctx, tenantID, item.ProductID)
		if err != nil {
			return nil, err
		}
		for _, c := range candidates {
			if c.BranchID == branchID {
				price = c.SalePrice
				break
			}
		}
		if price == 0 {
			// resolveProducts has filled ProductID for sku-only items, so
			// the id lookup covers every line.
			p, err := s.products.Get(ctx, tenantID, item.ProductID)
			if err == nil {
				price = p.SalePrice
			}
		}
		result[i] = documents.SaleItem{
			ProductID:   item.ProductID,
			ProductName: item.Name,
			Quantity:    item.Quantity,
			UnitPrice:   price,
		}
	}
	return result, nil
}

func (s *Service) fail(ctx context.Context, tenantID, orderID string, status OrderStatus, cause error) error {
	s.logger.Warn("order processing failed",
		slog.String("order_id", orderID),
		slog.String("status", string(status)),
		slog.Any("error", cause))
	return s.repo.MarkFailed(ctx, tenantID, orderID, status, cause.Error())
}

func customerName(data OrderData) string {
	if data.CustomerName != "" {
		return data.CustomerName
	}
	return documents.WalkInCustomerName
}
