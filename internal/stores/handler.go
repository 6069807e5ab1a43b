package stores

import (
	"errors"
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

// Handler wires master-data endpoints.
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
	r.Route("/stores", func(r chi.Router) {
		r.With(h.guard(shared.PermStoresView)).Get("/", h.listStores)
		r.With(h.guard(shared.PermStoresView)).Get("/{id}", h.getStore)
		r.With(h.guard(shared.PermStoresEdit)).Post("/", h.createStore)
		r.With(h.guard(shared.PermStoresEdit)).Put("/{id}", h.updateStore)
	})
	r.Route("/products", func(r chi.Router) {
		r.With(h.guard(shared.PermStoresView)).Get("/", h.listProducts)
		r.With(h.guard(shared.PermStoresView)).Get("/{id}", h.getProduct)
		r.With(h.guard(shared.PermStoresEdit)).Post("/", h.createProduct)
		r.With(h.guard(shared.PermStoresEdit)).Put("/{id}", h.updateProduct)
	})
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func (h *Handler) listStores(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.ListStores(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		h.logger.Error("list stores", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *Handler) getStore(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid id")
		return
	}
	st, err := h.service.GetStore(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, st)
}

func (h *Handler) createStore(w http.ResponseWriter, r *http.Request) {
	var input CreateStoreInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := httpx.Validate(input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	st, err := h.service.CreateStore(r.Context(), input)
	if err != nil {
		if errors.Is(err, ErrCodeTaken) {
			httpx.Problem(w, http.StatusConflict, "Duplicate", err.Error())
			return
		}
		h.logger.Error("create store", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	h.auditor.Record(r.Context(), shared.PrincipalFromContext(r.Context()), audit.Entry{
		Action:     audit.ActionCreate,
		Resource:   "store",
		ResourceID: strconv.FormatInt(st.ID, 10),
	})
	httpx.JSON(w, http.StatusCreated, st)
}

func (h *Handler) updateStore(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid id")
		return
	}
	var input UpdateStoreInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := httpx.Validate(input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	st, err := h.service.UpdateStore(r.Context(), id, input)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.auditor.Record(r.Context(), shared.PrincipalFromContext(r.Context()), audit.Entry{
		Action:     audit.ActionUpdate,
		Resource:   "store",
		ResourceID: strconv.FormatInt(st.ID, 10),
	})
	httpx.JSON(w, http.StatusOK, st)
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "true"
	items, err := h.service.ListProducts(r.Context(), r.URL.Query().Get("category"), activeOnly)
	if err != nil {
		h.logger.Error("list products", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid id")
		return
	}
	p, err := h.service.GetProduct(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var input CreateProductInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := httpx.Validate(input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	p, err := h.service.CreateProduct(r.Context(), input)
	if err != nil {
		if errors.Is(err, ErrCodeTaken) {
			httpx.Problem(w, http.StatusConflict, "Duplicate", err.Error())
			return
		}
		h.logger.Error("create product", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	h.auditor.Record(r.Context(), shared.PrincipalFromContext(r.Context()), audit.Entry{
		Action:     audit.ActionCreate,
		Resource:   "product",
		ResourceID: strconv.FormatInt(p.ID, 10),
	})
	httpx.JSON(w, http.StatusCreated, p)
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid id")
		return
	}
	var input UpdateProductInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := httpx.Validate(input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	p, err := h.service.UpdateProduct(r.Context(), id, input)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.auditor.Record(r.Context(), shared.PrincipalFromContext(r.Context()), audit.Entry{
		Action:     audit.ActionUpdate,
		Resource:   "product",
		ResourceID: strconv.FormatInt(p.ID, 10),
	})
	httpx.JSON(w, http.StatusOK, p)
}
