package audit

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bistrohq/bistroboard/internal/platform/httpx"
	"github.com/bistrohq/bistroboard/internal/shared"
)

// PermissionGuard matches rbac.Middleware.RequireAny.
type PermissionGuard func(perms ...string) func(http.Handler) http.Handler

// Handler exposes the audit trail.
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
	r.With(h.guard(shared.PermAuditView)).Get("/audit-logs", h.list)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	f := ListFilters{
		Action:   r.URL.Query().Get("action"),
		Resource: r.URL.Query().Get("resource"),
	}
	var err error
	if f.UserID, err = httpx.QueryInt64Ptr(r, "user_id"); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if raw := r.URL.Query().Get("date_from"); raw != "" {
		d, err := httpx.QueryDate(r, "date_from")
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		f.From = &d
	}
	if raw := r.URL.Query().Get("date_to"); raw != "" {
		d, err := httpx.QueryDate(r, "date_to")
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		f.To = &d
	}
	if f.Page, err = httpx.QueryIntDefault(r, "page", 1); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if f.PerPage, err = httpx.QueryIntDefault(r, "per_page", 50); err != nil {
		httpx.RespondError(w, err)
		return
	}

	items, total, err := h.service.List(r.Context(), f)
	if err != nil {
		h.logger.Error("list audit logs", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.List(w, items, total, f.Page)
}
