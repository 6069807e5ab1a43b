package budgets

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/bistrohq/bistroboard/internal/audit"
	"github.com/bistrohq/bistroboard/internal/platform/httpx"
	"github.com/bistrohq/bistroboard/internal/shared"
)

// PermissionGuard matches rbac.Middleware.RequireAny.
type PermissionGuard func(perms ...string) func(http.Handler) http.Handler

// Handler wires budget endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	auditor *audit.Service
	guard   PermissionGuard
}

// NewHandler constructs the handler.
func NewHandler(logger *slog.Logger, service *Service, auditor *audit.Service, guard PermissionGuard) *Handler {
	return &Handler{logger: logger, service: service, auditor: auditor, guard: guard}
}

// MountRoutes registers routes under an authenticated group.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.guard(shared.PermBudgetsView)).Get("/", h.listMonth)
	r.With(h.guard(shared.PermBudgetsEdit)).Post("/batch", h.batchSave)
	r.With(h.guard(shared.PermBudgetsView)).Get("/analysis", h.analyze)
}

func monthParams(r *http.Request) (storeID int64, year, month int, err error) {
	sid, err := httpx.QueryInt64Ptr(r, "store_id")
	if err != nil {
		return 0, 0, 0, err
	}
	if sid == nil {
		return 0, 0, 0, httpx.ErrValidation
	}
	if year, err = httpx.QueryIntDefault(r, "year", 0); err != nil || year == 0 {
		return 0, 0, 0, httpx.ErrValidation
	}
	if month, err = httpx.QueryIntDefault(r, "month", 0); err != nil || month < 1 || month > 12 {
		return 0, 0, 0, httpx.ErrValidation
	}
	return *sid, year, month, nil
}

func (h *Handler) listMonth(w http.ResponseWriter, r *http.Request) {
	storeID, year, month, err := monthParams(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "store_id, year and month are required")
		return
	}
	principal := shared.PrincipalFromContext(r.Context())
	items, err := h.service.ListMonth(r.Context(), principal, storeID, year, month)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *Handler) batchSave(w http.ResponseWriter, r *http.Request) {
	var input BatchSaveInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := httpx.Validate(input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	principal := shared.PrincipalFromContext(r.Context())
	if err := h.service.BatchSave(r.Context(), principal, input); err != nil {
		h.logger.Error("budget batch save", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	h.auditor.Record(r.Context(), principal, audit.Entry{
		Action:     audit.ActionUpdate,
		Resource:   "budget",
		ResourceID: strconv.FormatInt(input.StoreID, 10),
		Detail:     map[string]any{"year": input.Year, "month": input.Month, "lines": len(input.Items)},
	})
	httpx.JSON(w, http.StatusOK, map[string]any{"saved": len(input.Items)})
}

func (h *Handler) analyze(w http.ResponseWriter, r *http.Request) {
	storeID, year, month, err := monthParams(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "store_id, year and month are required")
		return
	}
	principal := shared.PrincipalFromContext(r.Context())
	a, err := h.service.Analyze(r.Context(), principal, storeID, year, month)
	if err != nil {
		h.logger.Error("budget analysis", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, a)
}
