package budgets

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestComputeVariance(t *testing.T) {
	budget := map[int64]TypeAmount{
		1: {Name: "Ingredients", Amount: dec("10000")},
		2: {Name: "Rent", Amount: dec("8000")},
	}
	actual := map[int64]TypeAmount{
		1: {Name: "Ingredients", Amount: dec("12500")},
		3: {Name: "Repairs", Amount: dec("300")},
	}

	rows := ComputeVariance(budget, actual)
	require.Len(t, rows, 3)

	// Largest absolute variance first: rent is 8000 under budget.
	require.Equal(t, int64(2), rows[0].ExpenseTypeID)
	require.True(t, rows[0].Variance.Equal(dec("-8000")))
	require.False(t, rows[0].OverBudget)
	require.True(t, rows[0].VariancePct.Equal(dec("-100")))

	require.Equal(t, int64(1), rows[1].ExpenseTypeID)
	require.True(t, rows[1].Variance.Equal(dec("2500")))
	require.True(t, rows[1].OverBudget)
	require.True(t, rows[1].VariancePct.Equal(dec("25")))

	// Unbudgeted spend still shows up, with no percentage.
	require.Equal(t, int64(3), rows[2].ExpenseTypeID)
	require.True(t, rows[2].Variance.Equal(dec("300")))
	require.True(t, rows[2].OverBudget)
	require.True(t, rows[2].VariancePct.IsZero())
}

func TestComputeVarianceEmptySides(t *testing.T) {
	require.Empty(t, ComputeVariance(nil, nil))

	rows := ComputeVariance(map[int64]TypeAmount{1: {Name: "Rent", Amount: dec("100")}}, nil)
	require.Len(t, rows, 1)
	require.True(t, rows[0].Actual.IsZero())
	require.False(t, rows[0].OverBudget)
}
