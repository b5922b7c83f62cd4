package ledger

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gestionpro/gestionpro/internal/platform/httpx"
	"github.com/gestionpro/gestionpro/internal/rbac"
	"github.com/gestionpro/gestionpro/internal/shared"
)

// Handler exposes read endpoints over the stock ledger.
type Handler struct {
	logger  *slog.Logger
	service *Service
	rbac    rbac.Middleware
}

// NewHandler builds Handler.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbac}
}

// MountRoutes registers ledger routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny("inventory.view"))
		r.Get("/products/{id}/stock", h.productStock)
		r.Get("/low-stock", h.lowStock)
	})
}

func (h *Handler) productStock(w http.ResponseWriter, r *http.Request) {
	tenantID := shared.TenantFromContext(r.Context())
	productID := chi.URLParam(r, "id")

	stocks, err := h.service.ListForProduct(r.Context(), tenantID, productID)
	if err != nil {
		h.logger.Error("list branch stock", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	consolidated, err := h.service.ConsolidatedStock(r.Context(), tenantID, productID)
	if err != nil {
		h.logger.Error("consolidated stock", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"product_id":   productID,
		"consolidated": consolidated,
		"branches":     stocks,
	})
}

func (h *Handler) lowStock(w http.ResponseWriter, r *http.Request) {
	tenantID := shared.TenantFromContext(r.Context())
	stocks, err := h.service.ListLowStock(r.Context(), tenantID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
			return
		}
		h.logger.Error("list low stock", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": stocks})
}
