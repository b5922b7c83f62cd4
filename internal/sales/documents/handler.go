package documents

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/gestionpro/gestionpro/internal/ledger"
	"github.com/gestionpro/gestionpro/internal/platform/httpx"
	"github.com/gestionpro/gestionpro/internal/rbac"
	"github.com/gestionpro/gestionpro/internal/shared"
)

// RatePort supplies the exchange rate for foreign-currency sales.
type RatePort interface {
	Rate(ctx context.Context) float64
}

// Handler exposes sale document endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	rbac     rbac.Middleware
	rates    RatePort
	validate *validator.Validate
	base     string
}

// NewHandler builds Handler. baseCurrency is the tenant ledger currency;
// sales in any other currency get an exchange rate stamped on them.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware, rates RatePort, baseCurrency string) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		rbac:     rbac,
		rates:    rates,
		validate: validator.New(),
		base:     baseCurrency,
	}
}

// MountRoutes registers document routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny("sales.view"))
		r.Get("/documents", h.list)
		r.Get("/documents/{id}", h.get)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny("sales.create"))
		r.Post("/documents", h.create)
		r.Post("/documents/{id}/cancel", h.cancel)
	})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var input CreateDocumentInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	if err := h.validate.Struct(input); err != nil {
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
		return
	}
	if input.PaymentCurrency != h.base && input.ExchangeRate == nil && h.rates != nil {
		rate := h.rates.Rate(r.Context())
		input.ExchangeRate = &rate
	}

	tenantID := shared.TenantFromContext(r.Context())
	if input.ResponsibleID == "" {
		input.ResponsibleID = shared.UserFromContext(r.Context())
	}
	doc, err := h.service.Create(r.Context(), tenantID, input)
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrInsufficientStock):
			httpx.Problem(w, http.StatusConflict, "Insufficient Stock", err.Error())
		case errors.Is(err, shared.ErrNotFound):
			httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
		default:
			h.logger.Error("create document", slog.Any("error", err))
			httpx.RespondError(w, err)
		}
		return
	}
	httpx.JSON(w, http.StatusCreated, doc)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	tenantID := shared.TenantFromContext(r.Context())
	doc, err := h.service.Get(r.Context(), tenantID, chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
			return
		}
		h.logger.Error("get document", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, doc)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	tenantID := shared.TenantFromContext(r.Context())
	q := r.URL.Query()
	page, perPage := shared.ParsePageQuery(q)
	filter := ListFilter{
		Type:       DocumentType(q.Get("type")),
		Status:     DocumentStatus(q.Get("status")),
		CustomerID: q.Get("customer_id"),
		Limit:      perPage,
		Offset:     (page - 1) * perPage,
	}
	docs, total, err := h.service.List(r.Context(), tenantID, filter)
	if err != nil {
		h.logger.Error("list documents", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"items":      docs,
		"pagination": shared.NewPagination(page, perPage, total),
	})
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	tenantID := shared.TenantFromContext(r.Context())
	err := h.service.CancelReservation(r.Context(), tenantID, chi.URLParam(r, "id"))
	if err != nil {
		switch {
		case errors.Is(err, shared.ErrNotFound):
			httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
		case errors.Is(err, ErrNotReservation), errors.Is(err, ErrAlreadyCancelled):
			httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
		default:
			h.logger.Error("cancel reservation", slog.Any("error", err))
			httpx.RespondError(w, err)
		}
		return
	}
	httpx.NoContent(w)
}
