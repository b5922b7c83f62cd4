package users

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/gestionpro/gestionpro/internal/platform/httpx"
	"github.com/gestionpro/gestionpro/internal/rbac"
	"github.com/gestionpro/gestionpro/internal/shared"
)

const maxAvatarSize = 2 << 20

// UploaderPort stores binary objects and returns their public URL.
type UploaderPort interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader) (string, error)
}

// Handler exposes user management and self-service profile endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	rbac     rbac.Middleware
	uploader UploaderPort
	validate *validator.Validate
}

// NewHandler builds Handler.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware, uploader UploaderPort) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		rbac:     rbac,
		uploader: uploader,
		validate: validator.New(),
	}
}

// MountRoutes registers admin user routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny("users.manage"))
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
		r.Post("/invite", h.invite)
		r.Put("/{id}", h.update)
	})
}

// MountProfileRoutes registers self-service routes; any authenticated
// user may call them.
func (h *Handler) MountProfileRoutes(r chi.Router) {
	r.Get("/", h.ownProfile)
	r.Patch("/config", h.mergeConfig)
	r.Post("/avatar", h.uploadAvatar)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	tenantID := shared.TenantFromContext(r.Context())
	profiles, err := h.service.List(r.Context(), tenantID)
	if err != nil {
		h.logger.Error("list users", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": profiles})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	tenantID := shared.TenantFromContext(r.Context())
	profile, err := h.service.Get(r.Context(), tenantID, chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, profile)
}

func (h *Handler) invite(w http.ResponseWriter, r *http.Request) {
	var input InviteInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	if err := h.validate.Struct(input); err != nil {
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
		return
	}
	tenantID := shared.TenantFromContext(r.Context())
	profile, _, err := h.service.Invite(r.Context(), tenantID, input)
	if err != nil {
		h.logger.Error("invite user", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, profile)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var input UpdateInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	if err := h.validate.Struct(input); err != nil {
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
		return
	}
	tenantID := shared.TenantFromContext(r.Context())
	profile, err := h.service.Update(r.Context(), tenantID, chi.URLParam(r, "id"), input)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, profile)
}

func (h *Handler) ownProfile(w http.ResponseWriter, r *http.Request) {
	tenantID := shared.TenantFromContext(r.Context())
	userID := shared.UserFromContext(r.Context())
	profile, err := h.service.Get(r.Context(), tenantID, userID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, profile)
}

func (h *Handler) mergeConfig(w http.ResponseWriter, r *http.Request) {
	var patch map[string]any
	if err := httpx.DecodeJSON(r, &patch); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	tenantID := shared.TenantFromContext(r.Context())
	userID := shared.UserFromContext(r.Context())
	merged, err := h.service.MergeConfig(r.Context(), tenantID, userID, patch)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"config": merged})
}

func (h *Handler) uploadAvatar(w http.ResponseWriter, r *http.Request) {
	if h.uploader == nil {
		httpx.Problem(w, http.StatusNotImplemented, "Not Implemented", "object storage is not configured")
		return
	}
	if err := r.ParseMultipartForm(maxAvatarSize); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid multipart form")
		return
	}
	file, header, err := r.FormFile("avatar")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "avatar file required")
		return
	}
	defer file.Close()

	tenantID := shared.TenantFromContext(r.Context())
	userID := shared.UserFromContext(r.Context())
	key := fmt.Sprintf("%s/avatars/%s/%s%s", tenantID, userID,
		uuid.NewString(), filepath.Ext(header.Filename))
	url, err := h.uploader.Upload(r.Context(), key,
		header.Header.Get("Content-Type"), io.LimitReader(file, maxAvatarSize))
	if err != nil {
		h.logger.Error("upload avatar", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.SetAvatar(r.Context(), tenantID, userID, url); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"avatar_url": url})
}
