package expenses

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

// Handler wires expense endpoints.
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
	r.Route("/expense-types", func(r chi.Router) {
		r.With(h.guard(shared.PermExpensesView)).Get("/", h.listTypes)
		r.With(h.guard(shared.PermExpensesEdit)).Post("/", h.createType)
		r.With(h.guard(shared.PermExpensesEdit)).Put("/{id}", h.updateType)
		r.With(h.guard(shared.PermExpensesEdit)).Put("/{id}/cost-behavior", h.updateCostBehavior)
	})
	r.Route("/expenses", func(r chi.Router) {
		r.With(h.guard(shared.PermExpensesView)).Get("/", h.listRecords)
		r.With(h.guard(shared.PermExpensesView)).Get("/{id}", h.getRecord)
		r.With(h.guard(shared.PermExpensesEdit)).Post("/", h.createRecord)
		r.With(h.guard(shared.PermExpensesEdit)).Put("/{id}", h.updateRecord)
		r.With(h.guard(shared.PermExpensesEdit)).Put("/{id}/submit", h.transitionTo(StatusSubmitted))
		r.With(h.guard(shared.PermExpensesApprove)).Put("/{id}/approve", h.transitionTo(StatusApproved))
		r.With(h.guard(shared.PermExpensesApprove)).Put("/{id}/reject", h.transitionTo(StatusRejected))
		r.With(h.guard(shared.PermExpensesApprove)).Put("/{id}/pay", h.transitionTo(StatusPaid))
		r.With(h.guard(shared.PermExpensesEdit)).Delete("/{id}", h.deleteRecord)
	})
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func (h *Handler) listTypes(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.ListTypes(r.Context())
	if err != nil {
		h.logger.Error("list expense types", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *Handler) createType(w http.ResponseWriter, r *http.Request) {
	var input CreateTypeInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := httpx.Validate(input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	t, err := h.service.CreateType(r.Context(), input)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.auditor.Record(r.Context(), shared.PrincipalFromContext(r.Context()), audit.Entry{
		Action:     audit.ActionCreate,
		Resource:   "expense_type",
		ResourceID: strconv.FormatInt(t.ID, 10),
	})
	httpx.JSON(w, http.StatusCreated, t)
}

func (h *Handler) updateType(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid id")
		return
	}
	var input UpdateTypeInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := httpx.Validate(input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	t, err := h.service.UpdateType(r.Context(), id, input)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, t)
}

type costBehaviorRequest struct {
	CostBehavior string `json:"cost_behavior" validate:"required,oneof=fixed variable"`
}

func (h *Handler) updateCostBehavior(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid id")
		return
	}
	var req costBehaviorRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := httpx.Validate(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	t, err := h.service.UpdateCostBehavior(r.Context(), id, req.CostBehavior)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.auditor.Record(r.Context(), shared.PrincipalFromContext(r.Context()), audit.Entry{
		Action:     audit.ActionUpdate,
		Resource:   "expense_type",
		ResourceID: strconv.FormatInt(t.ID, 10),
		Detail:     map[string]any{"cost_behavior": req.CostBehavior},
	})
	httpx.JSON(w, http.StatusOK, t)
}

func (h *Handler) listRecords(w http.ResponseWriter, r *http.Request) {
	f := RecordFilters{Status: r.URL.Query().Get("status")}
	var err error
	if f.StoreID, err = httpx.QueryInt64Ptr(r, "store_id"); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if f.ExpenseTypeID, err = httpx.QueryInt64Ptr(r, "expense_type_id"); err != nil {
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
	items, page, err := h.service.ListRecords(r.Context(), principal, f)
	if err != nil {
		h.logger.Error("list expenses", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": items, "pagination": page})
}

func (h *Handler) getRecord(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid id")
		return
	}
	rec, err := h.service.GetRecord(r.Context(), shared.PrincipalFromContext(r.Context()), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, rec)
}

func (h *Handler) createRecord(w http.ResponseWriter, r *http.Request) {
	var input CreateRecordInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := httpx.Validate(input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	principal := shared.PrincipalFromContext(r.Context())
	rec, err := h.service.CreateRecord(r.Context(), principal, input)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.auditor.Record(r.Context(), principal, audit.Entry{
		Action:     audit.ActionCreate,
		Resource:   "expense_record",
		ResourceID: strconv.FormatInt(rec.ID, 10),
	})
	httpx.JSON(w, http.StatusCreated, rec)
}

func (h *Handler) updateRecord(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid id")
		return
	}
	var input UpdateRecordInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := httpx.Validate(input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	principal := shared.PrincipalFromContext(r.Context())
	rec, err := h.service.UpdateRecord(r.Context(), principal, id, input)
	if err != nil {
		if errors.Is(err, ErrNotEditable) {
			httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
			return
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, rec)
}

func (h *Handler) transitionTo(status string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid id")
			return
		}
		principal := shared.PrincipalFromContext(r.Context())
		rec, err := h.service.Transition(r.Context(), principal, id, status)
		if err != nil {
			if errors.Is(err, ErrBadTransition) {
				httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
				return
			}
			httpx.RespondError(w, err)
			return
		}
		action := audit.ActionUpdate
		if status == StatusApproved {
			action = audit.ActionApprove
		}
		h.auditor.Record(r.Context(), principal, audit.Entry{
			Action:     action,
			Resource:   "expense_record",
			ResourceID: strconv.FormatInt(rec.ID, 10),
			Detail:     map[string]any{"status": status},
		})
		httpx.JSON(w, http.StatusOK, rec)
	}
}

func (h *Handler) deleteRecord(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid id")
		return
	}
	principal := shared.PrincipalFromContext(r.Context())
	if err := h.service.DeleteRecord(r.Context(), principal, id); err != nil {
		if errors.Is(err, ErrNotEditable) {
			httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
			return
		}
		httpx.RespondError(w, err)
		return
	}
	h.auditor.Record(r.Context(), principal, audit.Entry{
		Action:     audit.ActionDelete,
		Resource:   "expense_record",
		ResourceID: strconv.FormatInt(id, 10),
	})
	w.WriteHeader(http.StatusNoContent)
}
