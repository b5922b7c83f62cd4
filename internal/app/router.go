package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/gestionpro/gestionpro/internal/auth"
	"github.com/gestionpro/gestionpro/internal/fx"
	"github.com/gestionpro/gestionpro/internal/integrations"
	"github.com/gestionpro/gestionpro/internal/ledger"
	"github.com/gestionpro/gestionpro/internal/masterdata/branches"
	"github.com/gestionpro/gestionpro/internal/masterdata/customers"
	"github.com/gestionpro/gestionpro/internal/masterdata/products"
	"github.com/gestionpro/gestionpro/internal/masterdata/suppliers"
	"github.com/gestionpro/gestionpro/internal/observability"
	"github.com/gestionpro/gestionpro/internal/orders"
	"github.com/gestionpro/gestionpro/internal/roles"
	"github.com/gestionpro/gestionpro/internal/sales/documents"
	"github.com/gestionpro/gestionpro/internal/sales/settlement"
	"github.com/gestionpro/gestionpro/internal/shared"
	"github.com/gestionpro/gestionpro/internal/users"
	"github.com/gestionpro/gestionpro/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager

	AuthHandler        *auth.Handler
	CustomersHandler   *customers.Handler
	SuppliersHandler   *suppliers.Handler
	ProductsHandler    *products.Handler
	BranchesHandler    *branches.Handler
	LedgerHandler      *ledger.Handler
	DocumentsHandler   *documents.Handler
	SettlementHandler  *settlement.Handler
	OrdersHandler      *orders.Handler
	IntegrationHandler *integrations.Handler
	UsersHandler       *users.Handler
	RolesHandler       *roles.Handler
	FxHandler          *fx.Handler
	JobHandler         *jobs.Handler
	Metrics            *observability.Metrics
}

// NewRouter constructs the chi.Router for the API.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/auth", params.AuthHandler.MountRoutes)

	r.Route("/masterdata", func(r chi.Router) {
		r.Route("/customers", params.CustomersHandler.MountRoutes)
		r.Route("/suppliers", params.SuppliersHandler.MountRoutes)
		r.Route("/products", params.ProductsHandler.MountRoutes)
		r.Route("/branches", params.BranchesHandler.MountRoutes)
	})

	r.Route("/ledger", params.LedgerHandler.MountRoutes)

	r.Route("/sales", func(r chi.Router) {
		params.DocumentsHandler.MountRoutes(r)
		params.SettlementHandler.MountRoutes(r)
	})

	r.Route("/orders", params.OrdersHandler.MountRoutes)
	r.Route("/integrations", params.IntegrationHandler.MountRoutes)

	r.Route("/users", params.UsersHandler.MountRoutes)
	r.Route("/profile", params.UsersHandler.MountProfileRoutes)
	r.Route("/roles", params.RolesHandler.MountRoutes)

	r.Route("/fx", params.FxHandler.MountRoutes)
	r.Route("/jobs", params.JobHandler.MountRoutes)

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
