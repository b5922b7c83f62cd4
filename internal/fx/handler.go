package fx

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gestionpro/gestionpro/internal/platform/httpx"
)

// Handler exposes the exchange rate endpoint.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers fx routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/rate", h.rate)
}

func (h *Handler) rate(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]any{
		"pair": "USD/ARS",
		"rate": h.service.Rate(r.Context()),
	})
}
