package users

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/bistrohq/bistroboard/internal/audit"
	"github.com/bistrohq/bistroboard/internal/platform/httpx"
	"github.com/bistrohq/bistroboard/internal/rbac"
	"github.com/bistrohq/bistroboard/internal/scope"
	"github.com/bistrohq/bistroboard/internal/shared"
)

// PermissionGuard matches rbac.Middleware.RequireAny.
type PermissionGuard func(perms ...string) func(http.Handler) http.Handler

// Handler wires the user administration endpoints, including role
// assignment and store-scope grants.
type Handler struct {
	logger  *slog.Logger
	service *Service
	roles   *rbac.Service
	scopes  *scope.Admin
	auditor *audit.Service
	guard   PermissionGuard
}

// NewHandler constructs the handler.
func NewHandler(logger *slog.Logger, service *Service, roles *rbac.Service, scopes *scope.Admin, auditor *audit.Service, guard PermissionGuard) *Handler {
	return &Handler{logger: logger, service: service, roles: roles, scopes: scopes, auditor: auditor, guard: guard}
}

// MountRoutes registers routes under an authenticated group.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/users", func(r chi.Router) {
		r.With(h.guard(shared.PermUsersView)).Get("/", h.list)
		r.With(h.guard(shared.PermUsersView)).Get("/{id}", h.get)
		r.With(h.guard(shared.PermUsersEdit)).Post("/", h.create)
		r.With(h.guard(shared.PermUsersEdit)).Put("/{id}", h.update)
		r.With(h.guard(shared.PermUsersView)).Get("/{id}/roles", h.listRoles)
		r.With(h.guard(shared.PermUsersEdit)).Post("/{id}/roles", h.assignRole)
		r.With(h.guard(shared.PermUsersEdit)).Delete("/{id}/roles/{roleID}", h.removeRole)
		r.With(h.guard(shared.PermUsersView)).Get("/{id}/stores", h.listStores)
		r.With(h.guard(shared.PermUsersEdit)).Put("/{id}/stores", h.assignStores)
	})
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list users", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid id")
		return
	}
	u, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, u)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var input CreateUserInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := httpx.Validate(input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	u, err := h.service.Create(r.Context(), input)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.auditor.Record(r.Context(), shared.PrincipalFromContext(r.Context()), audit.Entry{
		Action:     audit.ActionCreate,
		Resource:   "user",
		ResourceID: strconv.FormatInt(u.ID, 10),
		Detail:     map[string]any{"username": u.Username},
	})
	httpx.JSON(w, http.StatusCreated, u)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid id")
		return
	}
	var input UpdateUserInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := httpx.Validate(input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	u, err := h.service.Update(r.Context(), id, input)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.auditor.Record(r.Context(), shared.PrincipalFromContext(r.Context()), audit.Entry{
		Action:     audit.ActionUpdate,
		Resource:   "user",
		ResourceID: strconv.FormatInt(u.ID, 10),
	})
	httpx.JSON(w, http.StatusOK, u)
}

func (h *Handler) listRoles(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid id")
		return
	}
	roles, err := h.roles.UserRoles(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": roles})
}

type assignRoleRequest struct {
	RoleID int64 `json:"role_id" validate:"required,gt=0"`
}

func (h *Handler) assignRole(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid id")
		return
	}
	var req assignRoleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := httpx.Validate(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.roles.AssignRole(r.Context(), id, req.RoleID); err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.auditor.Record(r.Context(), shared.PrincipalFromContext(r.Context()), audit.Entry{
		Action:     audit.ActionUpdate,
		Resource:   "user",
		ResourceID: strconv.FormatInt(id, 10),
		Detail:     map[string]any{"role_id": req.RoleID},
	})
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) removeRole(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid id")
		return
	}
	roleID, err := strconv.ParseInt(chi.URLParam(r, "roleID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid role id")
		return
	}
	if err := h.roles.RemoveRole(r.Context(), id, roleID); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listStores(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid id")
		return
	}
	grants, err := h.scopes.ListGrants(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": grants})
}

// An empty store_ids list clears every grant, which leaves the user
// unrestricted.
type assignStoresRequest struct {
	StoreIDs []int64 `json:"store_ids" validate:"dive,gt=0"`
}

func (h *Handler) assignStores(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid id")
		return
	}
	// Ensure the target user exists before replacing grants.
	if _, err := h.service.Get(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req assignStoresRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := httpx.Validate(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.scopes.AssignStores(r.Context(), id, req.StoreIDs); err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.auditor.Record(r.Context(), shared.PrincipalFromContext(r.Context()), audit.Entry{
		Action:     audit.ActionAssignStores,
		Resource:   "user",
		ResourceID: strconv.FormatInt(id, 10),
		Detail:     map[string]any{"store_ids": req.StoreIDs},
	})
	w.WriteHeader(http.StatusNoContent)
}
