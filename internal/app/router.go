package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/bistrohq/bistroboard/internal/analysis"
	"github.com/bistrohq/bistroboard/internal/audit"
	"github.com/bistrohq/bistroboard/internal/auth"
	"github.com/bistrohq/bistroboard/internal/budgets"
	"github.com/bistrohq/bistroboard/internal/dashboard"
	"github.com/bistrohq/bistroboard/internal/expenses"
	"github.com/bistrohq/bistroboard/internal/imports"
	"github.com/bistrohq/bistroboard/internal/kpi"
	"github.com/bistrohq/bistroboard/internal/orders"
	"github.com/bistrohq/bistroboard/internal/rbac"
	"github.com/bistrohq/bistroboard/internal/reports"
	"github.com/bistrohq/bistroboard/internal/stores"
	"github.com/bistrohq/bistroboard/internal/users"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger *slog.Logger
	Config *Config

	AuthMiddleware auth.Middleware

	AuthHandler      *auth.Handler
	UsersHandler     *users.Handler
	RolesHandler     *rbac.Handler
	StoresHandler    *stores.Handler
	OrdersHandler    *orders.Handler
	ExpensesHandler  *expenses.Handler
	BudgetsHandler   *budgets.Handler
	KPIHandler       *kpi.Handler
	ReportsHandler   *reports.Handler
	AnalysisHandler  *analysis.Handler
	DashboardHandler *dashboard.Handler
	ImportsHandler   *imports.Handler
	AuditHandler     *audit.Handler
}

// NewRouter constructs the chi router.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger: params.Logger,
		Config: params.Config,
	}) {
		r.Use(mw)
	}
	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", params.AuthHandler.MountRoutes)

		r.Group(func(r chi.Router) {
			r.Use(params.AuthMiddleware.RequireAuth)

			params.UsersHandler.MountRoutes(r)
			params.RolesHandler.MountRoutes(r)
			params.StoresHandler.MountRoutes(r)
			params.ExpensesHandler.MountRoutes(r)
			params.ImportsHandler.MountRoutes(r)
			params.AuditHandler.MountRoutes(r)

			r.Route("/orders", params.OrdersHandler.MountRoutes)
			r.Route("/budgets", params.BudgetsHandler.MountRoutes)
			r.Route("/kpi", params.KPIHandler.MountRoutes)
			r.Route("/reports", params.ReportsHandler.MountRoutes)
			r.Route("/analysis", params.AnalysisHandler.MountRoutes)
			r.Route("/dashboard", params.DashboardHandler.MountRoutes)
		})
	})

	return r
}
