package shared

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCoreScopesUniqueAndComplete(t *testing.T) {
	scopes := CoreScopes()
	seen := map[string]struct{}{}
	for _, s := range scopes {
		_, dup := seen[s]
		require.False(t, dup, "duplicate permission %s", s)
		seen[s] = struct{}{}
	}
	for _, s := range []string{PermUsersEdit, PermExpensesApprove, PermKPIRebuild, PermImportsRun, PermAuditView} {
		require.Contains(t, scopes, s)
	}
}
