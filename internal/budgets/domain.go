// Package budgets stores monthly expense budgets per store and compares
// them against actual approved spend.
package budgets

import (
	"time"

	"github.com/shopspring/decimal"
)

// Entry is one budgeted amount for (store, year, month, expense type).
type Entry struct {
	ID            int64           `json:"id"`
	StoreID       int64           `json:"store_id"`
	Year          int             `json:"year"`
	Month         int             `json:"month"`
	ExpenseTypeID int64           `json:"expense_type_id"`
	TypeName      string          `json:"expense_type_name,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// BatchItem is one line of a batch save.
type BatchItem struct {
	ExpenseTypeID int64           `json:"expense_type_id" validate:"required"`
	Amount        decimal.Decimal `json:"amount"`
}

// BatchSaveInput carries a full month's budget for one store.
type BatchSaveInput struct {
	StoreID int64       `json:"store_id" validate:"required"`
	Year    int         `json:"year" validate:"required,min=2000,max=2100"`
	Month   int         `json:"month" validate:"required,min=1,max=12"`
	Items   []BatchItem `json:"items" validate:"required,min=1,dive"`
}

// TypeAmount pairs an expense type with an aggregated amount.
type TypeAmount struct {
	Name   string
	Amount decimal.Decimal
}

// VarianceRow is one budget-vs-actual comparison line.
type VarianceRow struct {
	ExpenseTypeID int64           `json:"expense_type_id"`
	TypeName      string          `json:"expense_type_name"`
	Budget        decimal.Decimal `json:"budget"`
	Actual        decimal.Decimal `json:"actual"`
	Variance      decimal.Decimal `json:"variance"`
	VariancePct   decimal.Decimal `json:"variance_pct"`
	OverBudget    bool            `json:"over_budget"`
}

// Analysis is the full month comparison for one store.
type Analysis struct {
	StoreID     int64           `json:"store_id"`
	Year        int             `json:"year"`
	Month       int             `json:"month"`
	TotalBudget decimal.Decimal `json:"total_budget"`
	TotalActual decimal.Decimal `json:"total_actual"`
	Rows        []VarianceRow   `json:"rows"`
}
