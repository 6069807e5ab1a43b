package orders

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bistrohq/bistroboard/internal/audit"
	"github.com/bistrohq/bistroboard/internal/platform/httpx"
	"github.com/bistrohq/bistroboard/internal/shared"
)

// PermissionGuard matches rbac.Middleware.RequireAny.
type PermissionGuard func(perms ...string) func(http.Handler) http.Handler

// Handler wires order endpoints.
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
	r.With(h.guard(shared.PermOrdersView)).Get("/", h.list)
	r.With(h.guard(shared.PermOrdersView)).Get("/{id}", h.get)
	r.With(h.guard(shared.PermOrdersEdit)).Post("/", h.create)
	r.With(h.guard(shared.PermOrdersEdit)).Put("/{id}/status", h.updateStatus)
	r.With(h.guard(shared.PermOrdersEdit)).Delete("/{id}", h.remove)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	f := ListFilters{
		Channel: r.URL.Query().Get("channel"),
		Status:  r.URL.Query().Get("status"),
		OrderNo: r.URL.Query().Get("order_no"),
	}
	var err error
	if f.StoreID, err = httpx.QueryInt64Ptr(r, "store_id"); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if raw := r.URL.Query().Get("date_from"); raw != "" {
		d, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "date_from must be YYYY-MM-DD")
			return
		}
		f.DateFrom = &d
	}
	if raw := r.URL.Query().Get("date_to"); raw != "" {
		d, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "date_to must be YYYY-MM-DD")
			return
		}
		f.DateTo = &d
	}
	if f.Page, err = httpx.QueryIntDefault(r, "page", 1); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if f.PerPage, err = httpx.QueryIntDefault(r, "per_page", 20); err != nil {
		httpx.RespondError(w, err)
		return
	}

	principal := shared.PrincipalFromContext(r.Context())
	items, page, err := h.service.List(r.Context(), principal, f)
	if err != nil {
		h.logger.Error("list orders", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": items, "pagination": page})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid id")
		return
	}
	o, err := h.service.Get(r.Context(), shared.PrincipalFromContext(r.Context()), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, o)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var input CreateOrderInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := httpx.Validate(input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	principal := shared.PrincipalFromContext(r.Context())
	o, err := h.service.Create(r.Context(), principal, input)
	if err != nil {
		if errors.Is(err, ErrOrderNoTaken) {
			httpx.Problem(w, http.StatusConflict, "Duplicate", err.Error())
			return
		}
		h.logger.Error("create order", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	h.auditor.Record(r.Context(), principal, audit.Entry{
		Action:     audit.ActionCreate,
		Resource:   "order",
		ResourceID: strconv.FormatInt(o.ID, 10),
	})
	httpx.JSON(w, http.StatusCreated, o)
}

type statusRequest struct {
	Status string `json:"status" validate:"required,oneof=draft completed refunded cancelled"`
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid id")
		return
	}
	var req statusRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := httpx.Validate(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	principal := shared.PrincipalFromContext(r.Context())
	o, err := h.service.UpdateStatus(r.Context(), principal, id, req.Status)
	if err != nil {
		if errors.Is(err, ErrBadTransition) {
			httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
			return
		}
		httpx.RespondError(w, err)
		return
	}
	h.auditor.Record(r.Context(), principal, audit.Entry{
		Action:     audit.ActionUpdate,
		Resource:   "order",
		ResourceID: strconv.FormatInt(o.ID, 10),
		Detail:     map[string]any{"status": req.Status},
	})
	httpx.JSON(w, http.StatusOK, o)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid id")
		return
	}
	principal := shared.PrincipalFromContext(r.Context())
	if err := h.service.Delete(r.Context(), principal, id); err != nil {
		if errors.Is(err, ErrNotDraft) {
			httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
			return
		}
		httpx.RespondError(w, err)
		return
	}
	h.auditor.Record(r.Context(), principal, audit.Entry{
		Action:     audit.ActionDelete,
		Resource:   "order",
		ResourceID: strconv.FormatInt(id, 10),
	})
	w.WriteHeader(http.StatusNoContent)
}
