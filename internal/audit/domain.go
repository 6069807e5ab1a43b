package audit

import "time"

// Entry is a single audit log record.
type Entry struct {
	ID         int64          `json:"id"`
	UserID     *int64         `json:"user_id,omitempty"`
	Username   string         `json:"username,omitempty"`
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	ResourceID string         `json:"resource_id,omitempty"`
	Detail     map[string]any `json:"detail,omitempty"`
	IPAddress  string         `json:"ip_address,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// Common actions recorded across the platform.
const (
	ActionLogin        = "login"
	ActionCreate       = "create"
	ActionUpdate       = "update"
	ActionDelete       = "delete"
	ActionApprove      = "approve"
	ActionAssignStores = "assign_stores"
	ActionRebuildKPI   = "rebuild_kpi"
	ActionRunImport    = "run_import"
)

// ListFilters narrows the audit listing.
type ListFilters struct {
	UserID   *int64
	Action   string
	Resource string
	From     *time.Time
	To       *time.Time
	Page     int
	PerPage  int
}
