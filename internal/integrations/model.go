package integrations

import "time"

// PlatformKind enumerates supported e-commerce platforms.
type PlatformKind string

const (
	KindShopify     PlatformKind = "shopify"
	KindWooCommerce PlatformKind = "woocommerce"
	KindTiendaNube  PlatformKind = "tiendanube"
)

// StockSource controls which stock figure a platform sees.
type StockSource string

const (
	// StockGlobal publishes the consolidated figure across branches.
	StockGlobal StockSource = "global"
	// StockBranch publishes a single branch's figure.
	StockBranch StockSource = "branch"
)

// APICredentials holds the secrets needed to call a platform.
type APICredentials struct {
	StoreURL    string `json:"store_url,omitempty"`
	APIKey      string `json:"api_key,omitempty"`
	APISecret   string `json:"api_secret,omitempty"`
	AccessToken string `json:"access_token,omitempty"`
}

// SyncConfig describes what the platform sync publishes.
type SyncConfig struct {
	StockSource StockSource `json:"stock_source" validate:"required,oneof=global branch"`
	BranchID    string      `json:"branch_id" validate:"required_if=StockSource branch"`
	SyncPrices  bool        `json:"sync_prices"`
}

// Platform is one connected e-commerce integration.
type Platform struct {
	ID          string         `json:"id"`
	TenantID    string         `json:"-"`
	Kind        PlatformKind   `json:"kind"`
	Name        string         `json:"name"`
	Credentials APICredentials `json:"credentials"`
	SyncConfig  SyncConfig     `json:"sync_config"`
	IsActive    bool           `json:"is_active"`
	CreatedAt   time.Time      `json:"created_at"`
}

// PlatformInput is the create/update payload.
type PlatformInput struct {
	Kind        PlatformKind   `json:"kind" validate:"required,oneof=shopify woocommerce tiendanube"`
	Name        string         `json:"name" validate:"required,min=2,max=120"`
	Credentials APICredentials `json:"credentials"`
	SyncConfig  SyncConfig     `json:"sync_config"`
	IsActive    bool           `json:"is_active"`
}

// SyncStatus is the outcome of one sync run.
type SyncStatus string

const (
	SyncOK     SyncStatus = "ok"
	SyncFailed SyncStatus = "failed"
)

// SyncLog records one sync run against a platform.
type SyncLog struct {
	ID         string     `json:"id"`
	TenantID   string     `json:"-"`
	PlatformID string     `json:"platform_id"`
	Status     SyncStatus `json:"status"`
	Message    string     `json:"message,omitempty"`
	Items      int        `json:"items"`
	CreatedAt  time.Time  `json:"created_at"`
}

// Masked returns a copy safe for API responses: secrets reduced to a
// presence marker.
func (c APICredentials) Masked() APICredentials {
	mask := func(s string) string {
		if s == "" {
			return ""
		}
		return "********"
	}
	return APICredentials{
		StoreURL:    c.StoreURL,
		APIKey:      mask(c.APIKey),
		APISecret:   mask(c.APISecret),
		AccessToken: mask(c.AccessToken),
	}
}
