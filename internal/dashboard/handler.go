package dashboard

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bistrohq/bistroboard/internal/platform/httpx"
	"github.com/bistrohq/bistroboard/internal/shared"
)

// PermissionGuard matches rbac.Middleware.RequireAny.
type PermissionGuard func(perms ...string) func(http.Handler) http.Handler

// Handler serves the dashboard overview.
type Handler struct {
	logger  *slog.Logger
	service *Service
	guard   PermissionGuard
}

// NewHandler constructs the handler.
func NewHandler(logger *slog.Logger, service *Service, guard PermissionGuard) *Handler {
	return &Handler{logger: logger, service: service, guard: guard}
}

// MountRoutes registers routes under an authenticated group.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.guard(shared.PermReportsView)).Get("/overview", h.overview)
}

func (h *Handler) overview(w http.ResponseWriter, r *http.Request) {
	// Default window is the trailing 30 days.
	today := time.Now().UTC().Truncate(24 * time.Hour)
	from, err := httpx.QueryDateDefault(r, "date_from", today.AddDate(0, 0, -29))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	to, err := httpx.QueryDateDefault(r, "date_to", today)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if to.Before(from) {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "date_to precedes date_from")
		return
	}
	storeID, err := httpx.QueryInt64Ptr(r, "store_id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	res, err := h.service.Overview(r.Context(), shared.PrincipalFromContext(r.Context()), from, to, storeID)
	if err != nil {
		h.logger.Error("dashboard overview", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, res)
}
