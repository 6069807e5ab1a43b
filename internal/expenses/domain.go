// Package expenses manages the expense type tree and expense records
// with their approval flow.
package expenses

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Record statuses. Only approved and paid records count as actual cost.
const (
	StatusDraft     = "draft"
	StatusSubmitted = "submitted"
	StatusApproved  = "approved"
	StatusRejected  = "rejected"
	StatusPaid      = "paid"
)

// Cost behaviors used by CVP analysis.
const (
	BehaviorFixed    = "fixed"
	BehaviorVariable = "variable"
)

// ErrBadTransition indicates an illegal approval-flow move.
var ErrBadTransition = errors.New("expenses: illegal status transition")

// ErrNotEditable indicates edits to a record past the draft stage.
var ErrNotEditable = errors.New("expenses: only draft records may be edited")

// Type is one node of the expense type tree.
type Type struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	ParentID     *int64    `json:"parent_id,omitempty"`
	CostBehavior string    `json:"cost_behavior"`
	KPIMapping   string    `json:"kpi_mapping"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Record is one cost entry tied to a store and a type.
type Record struct {
	ID            int64           `json:"id"`
	StoreID       int64           `json:"store_id"`
	ExpenseTypeID int64           `json:"expense_type_id"`
	TypeName      string          `json:"expense_type_name,omitempty"`
	BizDate       time.Time       `json:"biz_date"`
	Amount        decimal.Decimal `json:"amount"`
	Status        string          `json:"status"`
	Remark        string          `json:"remark,omitempty"`
	CreatedBy     int64           `json:"created_by"`
	ApprovedBy    *int64          `json:"approved_by,omitempty"`
	ApprovedAt    *time.Time      `json:"approved_at,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// RecordFilters narrows the record listing.
type RecordFilters struct {
	StoreID       *int64
	ExpenseTypeID *int64
	Status        string
	DateFrom      *time.Time
	DateTo        *time.Time
	Page          int
	PerPage       int
}

// CreateTypeInput carries a new expense type.
type CreateTypeInput struct {
	Name         string `json:"name" validate:"required,max=128"`
	ParentID     *int64 `json:"parent_id"`
	CostBehavior string `json:"cost_behavior" validate:"required,oneof=fixed variable"`
	KPIMapping   string `json:"kpi_mapping" validate:"required,oneof=material labor rent utilities marketing other"`
}

// UpdateTypeInput carries partial type changes.
type UpdateTypeInput struct {
	Name       *string `json:"name" validate:"omitempty,max=128"`
	KPIMapping *string `json:"kpi_mapping" validate:"omitempty,oneof=material labor rent utilities marketing other"`
	IsActive   *bool   `json:"is_active"`
}

// CreateRecordInput carries a new expense record.
type CreateRecordInput struct {
	StoreID       int64           `json:"store_id" validate:"required"`
	ExpenseTypeID int64           `json:"expense_type_id" validate:"required"`
	BizDate       string          `json:"biz_date" validate:"required"`
	Amount        decimal.Decimal `json:"amount"`
	Remark        string          `json:"remark" validate:"max=256"`
}

// UpdateRecordInput carries partial record changes, draft only.
type UpdateRecordInput struct {
	ExpenseTypeID *int64           `json:"expense_type_id"`
	BizDate       *string          `json:"biz_date"`
	Amount        *decimal.Decimal `json:"amount"`
	Remark        *string          `json:"remark" validate:"omitempty,max=256"`
}
