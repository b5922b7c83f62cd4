package integrations

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/gestionpro/gestionpro/internal/platform/httpx"
	"github.com/gestionpro/gestionpro/internal/rbac"
	"github.com/gestionpro/gestionpro/internal/shared"
)

// Handler exposes integration platform endpoints.
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

// MountRoutes registers integration routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny("integrations.manage"))
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
		r.Post("/", h.create)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.delete)
		r.Post("/{id}/sync", h.sync)
		r.Get("/{id}/logs", h.syncLogs)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	tenantID := shared.TenantFromContext(r.Context())
	platforms, err := h.service.List(r.Context(), tenantID)
	if err != nil {
		h.logger.Error("list integrations", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	for i := range platforms {
		platforms[i].Credentials = platforms[i].Credentials.Masked()
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": platforms})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	tenantID := shared.TenantFromContext(r.Context())
	platform, err := h.service.Get(r.Context(), tenantID, chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	platform.Credentials = platform.Credentials.Masked()
	httpx.JSON(w, http.StatusOK, platform)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	input, ok := h.decodeInput(w, r)
	if !ok {
		return
	}
	tenantID := shared.TenantFromContext(r.Context())
	platform, err := h.service.Create(r.Context(), tenantID, input)
	if err != nil {
		h.logger.Error("create integration", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	platform.Credentials = platform.Credentials.Masked()
	httpx.JSON(w, http.StatusCreated, platform)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	input, ok := h.decodeInput(w, r)
	if !ok {
		return
	}
	tenantID := shared.TenantFromContext(r.Context())
	platform, err := h.service.Update(r.Context(), tenantID, chi.URLParam(r, "id"), input)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	platform.Credentials = platform.Credentials.Masked()
	httpx.JSON(w, http.StatusOK, platform)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	tenantID := shared.TenantFromContext(r.Context())
	if err := h.service.Delete(r.Context(), tenantID, chi.URLParam(r, "id")); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) sync(w http.ResponseWriter, r *http.Request) {
	tenantID := shared.TenantFromContext(r.Context())
	log, err := h.service.Sync(r.Context(), tenantID, chi.URLParam(r, "id"))
	if err != nil {
		h.logger.Error("sync platform", slog.Any("error", err))
		if log.Status == SyncFailed {
			httpx.JSON(w, http.StatusBadGateway, log)
			return
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, log)
}

func (h *Handler) syncLogs(w http.ResponseWriter, r *http.Request) {
	tenantID := shared.TenantFromContext(r.Context())
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	logs, err := h.service.SyncLogs(r.Context(), tenantID, chi.URLParam(r, "id"), limit)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": logs})
}

func (h *Handler) decodeInput(w http.ResponseWriter, r *http.Request) (PlatformInput, bool) {
	var input PlatformInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return input, false
	}
	if err := h.validate.Struct(input); err != nil {
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
		return input, false
	}
	return input, true
}
