package budgets

import (
	"sort"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ComputeVariance merges budget and actual amounts per expense type and
// flags lines whose actual spend exceeds the budget. Types present on
// only one side still produce a row, with the missing side at zero.
// Rows come back ordered by absolute variance, largest first.
func ComputeVariance(budget map[int64]TypeAmount, actual map[int64]TypeAmount) []VarianceRow {
	lookup := make(map[int64]VarianceRow)
	for id, b := range budget {
		lookup[id] = VarianceRow{ExpenseTypeID: id, TypeName: b.Name, Budget: b.Amount}
	}
	for id, a := range actual {
		row := lookup[id]
		row.ExpenseTypeID = id
		if row.TypeName == "" {
			row.TypeName = a.Name
		}
		row.Actual = a.Amount
		lookup[id] = row
	}

	rows := make([]VarianceRow, 0, len(lookup))
	for _, row := range lookup {
		row.Variance = row.Actual.Sub(row.Budget)
		if !row.Budget.IsZero() {
			row.VariancePct = row.Variance.Div(row.Budget.Abs()).Mul(hundred).Round(2)
		}
		row.OverBudget = row.Variance.IsPositive()
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool {
		vi, vj := rows[i].Variance.Abs(), rows[j].Variance.Abs()
		if !vi.Equal(vj) {
			return vi.GreaterThan(vj)
		}
		return rows[i].ExpenseTypeID < rows[j].ExpenseTypeID
	})
	return rows
}
