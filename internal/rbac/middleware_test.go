package rbac

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bistrohq/bistroboard/internal/shared"
)

type stubPerms struct {
	granted []string
}

func (s stubPerms) EffectivePermissions(context.Context, int64) ([]string, error) {
	return s.granted, nil
}

func serve(t *testing.T, mw func(http.Handler) http.Handler, principal *shared.Principal) *httptest.ResponseRecorder {
	t.Helper()
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if principal != nil {
		req = req.WithContext(shared.ContextWithPrincipal(req.Context(), principal))
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestRequireAnyGranted(t *testing.T) {
	m := Middleware{Service: stubPerms{granted: []string{"reports.view"}}}
	rec := serve(t, m.RequireAny("reports.view", "kpi.view"), &shared.Principal{ID: 1})
	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRequireAnyDenied(t *testing.T) {
	m := Middleware{Service: stubPerms{granted: []string{"orders.view"}}}
	rec := serve(t, m.RequireAny("reports.view"), &shared.Principal{ID: 1})
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireAnySuperuserBypass(t *testing.T) {
	m := Middleware{Service: stubPerms{}}
	rec := serve(t, m.RequireAny("reports.view"), &shared.Principal{ID: 1, IsSuperuser: true})
	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRequireAllMissingOne(t *testing.T) {
	m := Middleware{Service: stubPerms{granted: []string{"reports.view"}}}
	rec := serve(t, m.RequireAll("reports.view", "reports.export"), &shared.Principal{ID: 1})
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireAnyNoPrincipal(t *testing.T) {
	m := Middleware{Service: stubPerms{granted: []string{"reports.view"}}}
	rec := serve(t, m.RequireAny("reports.view"), nil)
	require.Equal(t, http.StatusForbidden, rec.Code)
}
