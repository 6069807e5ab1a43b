package shared

// Core platform permissions.
const (
	PermUsersView = "users.view"
	PermUsersEdit = "users.edit"

	PermRolesView = "roles.view"
	PermRolesEdit = "roles.edit"

	PermStoresView = "stores.view"
	PermStoresEdit = "stores.edit"

	PermOrdersView = "orders.view"
	PermOrdersEdit = "orders.edit"

	PermExpensesView    = "expenses.view"
	PermExpensesEdit    = "expenses.edit"
	PermExpensesApprove = "expenses.approve"

	PermBudgetsView = "budgets.view"
	PermBudgetsEdit = "budgets.edit"

	PermReportsView   = "reports.view"
	PermReportsExport = "reports.export"

	PermKPIView    = "kpi.view"
	PermKPIRebuild = "kpi.rebuild"

	PermImportsRun = "imports.run"

	PermAuditView = "audit.view"
)

// CoreScopes lists all permissions seeded into the platform.
func CoreScopes() []string {
	return []string{
		PermUsersView,
		PermUsersEdit,
		PermRolesView,
		PermRolesEdit,
		PermStoresView,
		PermStoresEdit,
		PermOrdersView,
		PermOrdersEdit,
		PermExpensesView,
		PermExpensesEdit,
		PermExpensesApprove,
		PermBudgetsView,
		PermBudgetsEdit,
		PermReportsView,
		PermReportsExport,
		PermKPIView,
		PermKPIRebuild,
		PermImportsRun,
		PermAuditView,
	}
}
