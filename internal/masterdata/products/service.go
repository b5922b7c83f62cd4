package products

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gestionpro/gestionpro/internal/ledger"
	"github.com/gestionpro/gestionpro/internal/shared"
)

// StockPort is the slice of the stock ledger products write to.
type StockPort interface {
	UpsertForProduct(ctx context.Context, tenantID, productID string, rows []ledger.StockRow) error
	ListForProduct(ctx context.Context, tenantID, productID string) ([]ledger.BranchStock, error)
}

// BranchPort resolves the default branch for bulk imports.
type BranchPort interface {
	DefaultBranch(ctx context.Context, tenantID string) (string, error)
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service manages the product catalog and its stock rows.
type Service struct {
	repo     RepositoryPort
	stock    StockPort
	branches BranchPort
	audit    AuditPort
}

// NewService builds Service.
func NewService(repo RepositoryPort, stock StockPort, branches BranchPort, audit AuditPort) *Service {
	return &Service{repo: repo, stock: stock, branches: branches, audit: audit}
}

func (s *Service) List(ctx context.Context, tenantID string, filter ListFilter) ([]Product, int, error) {
	return s.repo.List(ctx, tenantID, filter)
}

func (s *Service) Get(ctx context.Context, tenantID, id string) (Product, error) {
	return s.repo.Get(ctx, tenantID, id)
}

// GetBySKU looks a product up by its SKU. Order ingestion relies on
// this to resolve platform line items.
func (s *Service) GetBySKU(ctx context.Context, tenantID, sku string) (Product, error) {
	return s.repo.GetBySKU(ctx, tenantID, sku)
}

// Stocks returns the per-branch rows for one product.
func (s *Service) Stocks(ctx context.Context, tenantID, id string) ([]ledger.BranchStock, error) {
	return s.stock.ListForProduct(ctx, tenantID, id)
}

// Create inserts the catalog row, then writes the per-branch stock rows
// through the ledger.
func (s *Service) Create(ctx context.Context, tenantID string, input ProductInput) (Product, error) {
	p, err := s.repo.Create(ctx, fromInput(tenantID, "", input))
	if err != nil {
		return Product{}, err
	}
	if len(input.Stocks) > 0 {
		if err := s.stock.UpsertForProduct(ctx, tenantID, p.ID, input.Stocks); err != nil {
			return Product{}, fmt.Errorf("products: write stock: %w", err)
		}
	}
	s.recordAudit(ctx, tenantID, "products:create", p.ID)
	return p, nil
}

// Update rewrites the catalog row and, when stock rows are supplied,
// overwrites the per-branch figures.
func (s *Service) Update(ctx context.Context, tenantID, id string, input ProductInput) (Product, error) {
	p, err := s.repo.Update(ctx, fromInput(tenantID, id, input))
	if err != nil {
		return Product{}, err
	}
	if len(input.Stocks) > 0 {
		if err := s.stock.UpsertForProduct(ctx, tenantID, id, input.Stocks); err != nil {
			return Product{}, fmt.Errorf("products: write stock: %w", err)
		}
	}
	s.recordAudit(ctx, tenantID, "products:update", id)
	return p, nil
}

// Delete removes the product and all its stock rows.
func (s *Service) Delete(ctx context.Context, tenantID, id string) error {
	if err := s.repo.Delete(ctx, tenantID, id); err != nil {
		return err
	}
	s.recordAudit(ctx, tenantID, "products:delete", id)
	return nil
}

// SetImage records the uploaded image URL on the product.
func (s *Service) SetImage(ctx context.Context, tenantID, id, url string) error {
	return s.repo.SetImageURL(ctx, tenantID, id, url)
}

// Import applies bulk rows keyed by SKU. New SKUs are created; existing
// ones are updated or skipped per mode. Stock lands on branchID, or the
// default branch when empty. Row failures are collected, not fatal.
func (s *Service) Import(ctx context.Context, tenantID string, rows []ImportRow, mode ImportMode, branchID string) (ImportResult, error) {
	if mode != ImportOverwrite && mode != ImportSkip {
		return ImportResult{}, fmt.Errorf("products: unknown import mode %q", mode)
	}
	if branchID == "" {
		var err error
		branchID, err = s.branches.DefaultBranch(ctx, tenantID)
		if err != nil {
			return ImportResult{}, fmt.Errorf("products: resolve import branch: %w", err)
		}
	}

	var result ImportResult
	for i, row := range rows {
		if err := s.importRow(ctx, tenantID, row, mode, branchID, &result); err != nil {
			result.Errors = append(result.Errors, ImportRowError{
				Row:     i + 1,
				SKU:     row.SKU,
				Message: err.Error(),
			})
		}
	}
	s.recordAudit(ctx, tenantID, "products:import", branchID)
	return result, nil
}

func (s *Service) importRow(ctx context.Context, tenantID string, row ImportRow, mode ImportMode, branchID string, result *ImportResult) error {
	sku := strings.TrimSpace(row.SKU)
	if sku == "" {
		return errors.New("sku required")
	}
	if row.Name == "" {
		return errors.New("name required")
	}
	if row.Stock < 0 {
		return errors.New("stock must not be negative")
	}

	stockRow := []ledger.StockRow{{
		BranchID:  branchID,
		Stock:     row.Stock,
		MinStock:  row.MinStock,
		CostPrice: row.CostPrice,
		SalePrice: row.SalePrice,
	}}

	existing, err := s.repo.GetBySKU(ctx, tenantID, sku)
	switch {
	case err == nil:
		if mode == ImportSkip {
			result.Skipped++
			return nil
		}
		existing.Name = row.Name
		existing.Category = row.Category
		existing.CostPrice = row.CostPrice
		existing.SalePrice = row.SalePrice
		if _, err := s.repo.Update(ctx, existing); err != nil {
			return err
		}
		if err := s.stock.UpsertForProduct(ctx, tenantID, existing.ID, stockRow); err != nil {
			return err
		}
		result.Updated++
		return nil
	case errors.Is(err, shared.ErrNotFound):
		p, err := s.repo.Create(ctx, Product{
			TenantID:  tenantID,
			SKU:       sku,
			Name:      row.Name,
			Category:  row.Category,
			CostPrice: row.CostPrice,
			SalePrice: row.SalePrice,
			IsActive:  true,
		})
		if err != nil {
			return err
		}
		if err := s.stock.UpsertForProduct(ctx, tenantID, p.ID, stockRow); err != nil {
			return err
		}
		result.Created++
		return nil
	default:
		return err
	}
}

func fromInput(tenantID, id string, input ProductInput) Product {
	return Product{
		ID:          id,
		TenantID:    tenantID,
		SKU:         strings.TrimSpace(input.SKU),
		Name:        input.Name,
		Description: input.Description,
		Category:    input.Category,
		Brand:       input.Brand,
		Unit:        input.Unit,
		CostPrice:   input.CostPrice,
		SalePrice:   input.SalePrice,
		IsActive:    input.IsActive,
	}
}

func (s *Service) recordAudit(ctx context.Context, tenantID, action, id string) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		TenantID: tenantID,
		ActorID:  shared.UserFromContext(ctx),
		Action:   action,
		Entity:   "product",
		EntityID: id,
	})
}
