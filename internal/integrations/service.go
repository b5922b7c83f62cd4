package integrations

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gestionpro/gestionpro/internal/ledger"
	"github.com/gestionpro/gestionpro/internal/masterdata/products"
)

// StockFigure is one product's published stock and price.
type StockFigure struct {
	SKU       string  `json:"sku"`
	ProductID string  `json:"product_id"`
	Stock     int64   `json:"stock"`
	Price     float64 `json:"price,omitempty"`
}

// StockPort reads stock figures for sync runs.
type StockPort interface {
	ConsolidatedStock(ctx context.Context, tenantID, productID string) (int64, error)
	ListForProduct(ctx context.Context, tenantID, productID string) ([]ledger.BranchStock, error)
}

// ProductPort lists the catalog for sync runs.
type ProductPort interface {
	List(ctx context.Context, tenantID string, filter products.ListFilter) ([]products.Product, int, error)
}

// PublisherPort pushes stock figures to the remote platform. Nil means
// dry-run: figures are computed and logged but not sent.
type PublisherPort interface {
	Publish(ctx context.Context, platform Platform, figures []StockFigure) error
}

// Service manages integration platforms and their sync runs.
type Service struct {
	logger    *slog.Logger
	repo      RepositoryPort
	stock     StockPort
	products  ProductPort
	publisher PublisherPort
}

// NewService builds Service.
func NewService(logger *slog.Logger, repo RepositoryPort, stock StockPort, products ProductPort, publisher PublisherPort) *Service {
	return &Service{
		logger:    logger,
		repo:      repo,
		stock:     stock,
		products:  products,
		publisher: publisher,
	}
}

func (s *Service) List(ctx context.Context, tenantID string) ([]Platform, error) {
	return s.repo.List(ctx, tenantID)
}

func (s *Service) Get(ctx context.Context, tenantID, id string) (Platform, error) {
	return s.repo.Get(ctx, tenantID, id)
}

func (s *Service) Create(ctx context.Context, tenantID string, input PlatformInput) (Platform, error) {
	return s.repo.Create(ctx, Platform{
		TenantID:    tenantID,
		Kind:        input.Kind,
		Name:        input.Name,
		Credentials: input.Credentials,
		SyncConfig:  input.SyncConfig,
		IsActive:    input.IsActive,
	})
}

// Update rewrites the platform. Empty secret fields keep their stored
// values, so clients can echo back masked credentials unchanged.
func (s *Service) Update(ctx context.Context, tenantID, id string, input PlatformInput) (Platform, error) {
	existing, err := s.repo.Get(ctx, tenantID, id)
	if err != nil {
		return Platform{}, err
	}
	creds := input.Credentials
	if creds.APIKey == "" || creds.APIKey == "********" {
		creds.APIKey = existing.Credentials.APIKey
	}
	if creds.APISecret == "" || creds.APISecret == "********" {
		creds.APISecret = existing.Credentials.APISecret
	}
	if creds.AccessToken == "" || creds.AccessToken == "********" {
		creds.AccessToken = existing.Credentials.AccessToken
	}
	return s.repo.Update(ctx, Platform{
		ID:          id,
		TenantID:    tenantID,
		Kind:        input.Kind,
		Name:        input.Name,
		Credentials: creds,
		SyncConfig:  input.SyncConfig,
		IsActive:    input.IsActive,
	})
}

func (s *Service) Delete(ctx context.Context, tenantID, id string) error {
	return s.repo.Delete(ctx, tenantID, id)
}

// SyncLogs returns recent sync runs for one platform.
func (s *Service) SyncLogs(ctx context.Context, tenantID, platformID string, limit int) ([]SyncLog, error) {
	return s.repo.ListSyncLogs(ctx, tenantID, platformID, limit)
}

// Sync computes the stock snapshot for one platform per its sync config
// and publishes it. Every run gets a sync log row, success or failure.
func (s *Service) Sync(ctx context.Context, tenantID, platformID string) (SyncLog, error) {
	platform, err := s.repo.Get(ctx, tenantID, platformID)
	if err != nil {
		return SyncLog{}, err
	}
	if !platform.IsActive {
		return SyncLog{}, fmt.Errorf("integrations: platform %s is inactive", platformID)
	}

	figures, err := s.snapshot(ctx, tenantID, platform)
	if err == nil && s.publisher != nil {
		err = s.publisher.Publish(ctx, platform, figures)
	}

	log := SyncLog{
		TenantID:   tenantID,
		PlatformID: platformID,
		Status:     SyncOK,
		Items:      len(figures),
	}
	if err != nil {
		log.Status = SyncFailed
		log.Message = err.Error()
	}
	if insertErr := s.repo.InsertSyncLog(ctx, log); insertErr != nil {
		s.logger.Error("record sync log", slog.Any("error", insertErr))
	}
	if err != nil {
		return log, fmt.Errorf("integrations: sync %s: %w", platformID, err)
	}
	s.logger.Info("platform synced",
		slog.String("platform_id", platformID),
		slog.Int("items", len(figures)))
	return log, nil
}

func (s *Service) snapshot(ctx context.Context, tenantID string, platform Platform) ([]StockFigure, error) {
	catalog, _, err := s.products.List(ctx, tenantID, products.ListFilter{Limit: 200})
	if err != nil {
		return nil, err
	}

	figures := make([]StockFigure, 0, len(catalog))
	for _, p := range catalog {
		if !p.IsActive {
			continue
		}
		figure := StockFigure{SKU: p.SKU, ProductID: p.ID}
		switch platform.SyncConfig.StockSource {
		case StockBranch:
			rows, err := s.stock.ListForProduct(ctx, tenantID, p.ID)
			if err != nil {
				return nil, err
			}
			for _, row := range rows {
				if row.BranchID == platform.SyncConfig.BranchID {
					figure.Stock = row.Stock
					if platform.SyncConfig.SyncPrices {
						figure.Price = row.SalePrice
					}
					break
				}
			}
		default:
			total, err := s.stock.ConsolidatedStock(ctx, tenantID, p.ID)
			if err != nil {
				return nil, err
			}
			figure.Stock = total
			if platform.SyncConfig.SyncPrices {
				figure.Price = p.SalePrice
			}
		}
		figures = append(figures, figure)
	}
	return figures, nil
}
