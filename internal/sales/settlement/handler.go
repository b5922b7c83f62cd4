package settlement

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/gestionpro/gestionpro/internal/platform/httpx"
	"github.com/gestionpro/gestionpro/internal/rbac"
	"github.com/gestionpro/gestionpro/internal/shared"
)

// Handler exposes accounts receivable endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	rbac     rbac.Middleware
	validate *validator.Validate
}

// NewHandler builds Handler.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbac, validate: validator.New()}
}

type applyPaymentRequest struct {
	Amount      float64  `json:"amount" validate:"required,gt=0"`
	DocumentIDs []string `json:"document_ids" validate:"required,min=1"`
}

// MountRoutes registers settlement routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny("sales.collect"))
		r.Post("/payments", h.applyPayment)
		r.Get("/customers/{id}/debt", h.customerDebt)
	})
}

func (h *Handler) applyPayment(w http.ResponseWriter, r *http.Request) {
	var req applyPaymentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
		return
	}

	tenantID := shared.TenantFromContext(r.Context())
	result, err := h.service.ApplyPayment(r.Context(), tenantID, req.Amount, req.DocumentIDs)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidAmount), errors.Is(err, ErrNoDocuments):
			httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
		case errors.Is(err, ErrAllocationPartialFailure):
			// Earlier allocations persisted; report them alongside the failure.
			httpx.JSON(w, http.StatusConflict, map[string]any{
				"error":  err.Error(),
				"result": result,
			})
		default:
			h.logger.Error("apply payment", slog.Any("error", err))
			httpx.RespondError(w, err)
		}
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) customerDebt(w http.ResponseWriter, r *http.Request) {
	tenantID := shared.TenantFromContext(r.Context())
	total, docs, err := h.service.CustomerDebt(r.Context(), tenantID, chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
			return
		}
		h.logger.Error("customer debt", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"total_debt": total,
		"documents":  docs,
	})
}
