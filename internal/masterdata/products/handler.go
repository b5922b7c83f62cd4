package products

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

const maxImageSize = 5 << 20

// UploaderPort stores binary objects and returns their public URL.
type UploaderPort interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader) (string, error)
}

// Handler exposes product catalog endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	rbac     rbac.Middleware
	uploader UploaderPort
	validate *validator.Validate
}

// NewHandler builds Handler. uploader may be nil; the image endpoint then
// rejects requests.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware, uploader UploaderPort) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		rbac:     rbac,
		uploader: uploader,
		validate: validator.New(),
	}
}

type importRequest struct {
	Rows     []ImportRow `json:"rows" validate:"required,min=1"`
	Mode     ImportMode  `json:"mode" validate:"required,oneof=overwrite skip"`
	BranchID string      `json:"branch_id"`
}

// MountRoutes registers product routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny("masterdata.view"))
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
		r.Get("/{id}/stocks", h.stocks)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny("masterdata.manage"))
		r.Post("/", h.create)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.delete)
		r.Post("/import", h.bulkImport)
		r.Post("/{id}/image", h.uploadImage)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	tenantID := shared.TenantFromContext(r.Context())
	q := r.URL.Query()
	page, perPage := shared.ParsePageQuery(q)
	items, total, err := h.service.List(r.Context(), tenantID, ListFilter{
		Search:   q.Get("search"),
		Category: q.Get("category"),
		Limit:    perPage,
		Offset:   (page - 1) * perPage,
	})
	if err != nil {
		h.logger.Error("list products", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"items":      items,
		"pagination": shared.NewPagination(page, perPage, total),
	})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	tenantID := shared.TenantFromContext(r.Context())
	p, err := h.service.Get(r.Context(), tenantID, chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) stocks(w http.ResponseWriter, r *http.Request) {
	tenantID := shared.TenantFromContext(r.Context())
	rows, err := h.service.Stocks(r.Context(), tenantID, chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": rows})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	input, ok := h.decodeInput(w, r)
	if !ok {
		return
	}
	tenantID := shared.TenantFromContext(r.Context())
	p, err := h.service.Create(r.Context(), tenantID, input)
	if err != nil {
		h.logger.Error("create product", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, p)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	input, ok := h.decodeInput(w, r)
	if !ok {
		return
	}
	tenantID := shared.TenantFromContext(r.Context())
	p, err := h.service.Update(r.Context(), tenantID, chi.URLParam(r, "id"), input)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	tenantID := shared.TenantFromContext(r.Context())
	if err := h.service.Delete(r.Context(), tenantID, chi.URLParam(r, "id")); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) bulkImport(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
		return
	}
	tenantID := shared.TenantFromContext(r.Context())
	result, err := h.service.Import(r.Context(), tenantID, req.Rows, req.Mode, req.BranchID)
	if err != nil {
		h.logger.Error("bulk import", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) uploadImage(w http.ResponseWriter, r *http.Request) {
	if h.uploader == nil {
		httpx.Problem(w, http.StatusNotImplemented, "Not Implemented", "object storage is not configured")
		return
	}
	if err := r.ParseMultipartForm(maxImageSize); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid multipart form")
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "image file required")
		return
	}
	defer file.Close()

	tenantID := shared.TenantFromContext(r.Context())
	productID := chi.URLParam(r, "id")
	if _, err := h.service.Get(r.Context(), tenantID, productID); err != nil {
		httpx.RespondError(w, err)
		return
	}

	key := fmt.Sprintf("%s/products/%s/%s%s", tenantID, productID,
		uuid.NewString(), filepath.Ext(header.Filename))
	url, err := h.uploader.Upload(r.Context(), key,
		header.Header.Get("Content-Type"), io.LimitReader(file, maxImageSize))
	if err != nil {
		h.logger.Error("upload product image", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.SetImage(r.Context(), tenantID, productID, url); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"image_url": url})
}

func (h *Handler) decodeInput(w http.ResponseWriter, r *http.Request) (ProductInput, bool) {
	var input ProductInput
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
