package kpi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bistrohq/bistroboard/internal/audit"
	"github.com/bistrohq/bistroboard/internal/platform/httpx"
	"github.com/bistrohq/bistroboard/internal/shared"
)

// PermissionGuard matches rbac.Middleware.RequireAny.
type PermissionGuard func(perms ...string) func(http.Handler) http.Handler

// Handler exposes the rebuild and trend endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	trend   *Trend
	auditor *audit.Service
	guard   PermissionGuard
}

// NewHandler constructs the handler.
func NewHandler(logger *slog.Logger, service *Service, trend *Trend, auditor *audit.Service, guard PermissionGuard) *Handler {
	return &Handler{logger: logger, service: service, trend: trend, auditor: auditor, guard: guard}
}

// MountRoutes registers routes. Callers mount this under an
// authenticated router group.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.guard(shared.PermKPIRebuild)).Post("/rebuild", h.rebuild)
	r.With(h.guard(shared.PermReportsView)).Get("/trend", h.dailyTrend)
	r.With(h.guard(shared.PermReportsView)).Get("/stores", h.storeComparison)
}

type rebuildRequest struct {
	DateFrom string `json:"date_from" validate:"required"`
	DateTo   string `json:"date_to" validate:"required"`
	StoreID  *int64 `json:"store_id"`
}

func (h *Handler) rebuild(w http.ResponseWriter, r *http.Request) {
	var req rebuildRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	from, err := time.Parse(time.DateOnly, req.DateFrom)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "date_from must be YYYY-MM-DD")
		return
	}
	to, err := time.Parse(time.DateOnly, req.DateTo)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "date_to must be YYYY-MM-DD")
		return
	}
	if to.Before(from) {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "date_to must not precede date_from")
		return
	}

	principal := shared.PrincipalFromContext(r.Context())
	result, err := h.service.Rebuild(r.Context(), principal, from, to, req.StoreID)
	if err != nil {
		h.logger.Error("kpi rebuild", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	h.auditor.Record(r.Context(), principal, audit.Entry{
		Action:   audit.ActionRebuildKPI,
		Resource: "kpi",
		Detail: map[string]any{
			"date_from": req.DateFrom,
			"date_to":   req.DateTo,
			"store_id":  req.StoreID,
		},
	})
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) dailyTrend(w http.ResponseWriter, r *http.Request) {
	from, err := httpx.QueryDate(r, "date_from")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	to, err := httpx.QueryDate(r, "date_to")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	storeID, err := httpx.QueryInt64Ptr(r, "store_id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	principal := shared.PrincipalFromContext(r.Context())
	points, err := h.trend.DailyTrend(r.Context(), principal, from, to, storeID)
	if err != nil {
		h.logger.Error("kpi daily trend", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": points})
}

func (h *Handler) storeComparison(w http.ResponseWriter, r *http.Request) {
	from, err := httpx.QueryDate(r, "date_from")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	to, err := httpx.QueryDate(r, "date_to")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	principal := shared.PrincipalFromContext(r.Context())
	totals, err := h.trend.StoreComparison(r.Context(), principal, from, to)
	if err != nil {
		h.logger.Error("kpi store comparison", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": totals})
}
