package auth

import (
	"net/http"
	"strings"

	"github.com/bistrohq/bistroboard/internal/platform/httpx"
	"github.com/bistrohq/bistroboard/internal/shared"
)

// Middleware resolves the bearer token into a request principal.
type Middleware struct {
	Tokens *TokenManager
}

// RequireAuth rejects requests without a valid bearer token and stores
// the principal in the request context.
func (m Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || raw == "" {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "missing bearer token")
			return
		}
		principal, err := m.Tokens.Verify(raw)
		if err != nil {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "invalid or expired token")
			return
		}
		next.ServeHTTP(w, r.WithContext(shared.ContextWithPrincipal(r.Context(), principal)))
	})
}
