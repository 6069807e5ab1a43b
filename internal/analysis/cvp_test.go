package analysis

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestComputeCVP(t *testing.T) {
	res := ComputeCVP(CostSplit{
		Revenue:      dec("10000"),
		VariableCost: dec("4000"),
		FixedCost:    dec("3000"),
	})

	require.True(t, res.ContributionMargin.Equal(dec("6000")))
	require.True(t, res.ContributionMarginRatio.Equal(dec("0.6")))
	require.True(t, res.BreakEvenRevenue.Equal(dec("5000")))
	require.True(t, res.SafetyMargin.Equal(dec("5000")))
	require.True(t, res.SafetyMarginRatio.Equal(dec("0.5")))
	require.True(t, res.OperatingProfit.Equal(dec("3000")))
	require.True(t, res.OperatingLeverage.Equal(dec("2")))
}

func TestComputeCVPNegativeMargin(t *testing.T) {
	res := ComputeCVP(CostSplit{
		Revenue:      dec("1000"),
		VariableCost: dec("1200"),
		FixedCost:    dec("300"),
	})

	require.True(t, res.ContributionMargin.Equal(dec("-200")))
	require.True(t, res.BreakEvenRevenue.IsZero(), "no break-even exists with a negative margin")
	require.True(t, res.SafetyMargin.IsZero())
}

func TestComputeCVPZeroRevenue(t *testing.T) {
	res := ComputeCVP(CostSplit{FixedCost: dec("500")})
	require.True(t, res.ContributionMarginRatio.IsZero())
	require.True(t, res.OperatingProfit.Equal(dec("-500")))
}

func TestSimulateCVP(t *testing.T) {
	base := CostSplit{
		Revenue:      dec("10000"),
		VariableCost: dec("4000"),
		FixedCost:    dec("3000"),
	}

	res := SimulateCVP(base, SimulationInput{RevenueDeltaPct: dec("10")})
	require.True(t, res.Revenue.Equal(dec("11000")))
	require.True(t, res.OperatingProfit.Equal(dec("4000")))

	res = SimulateCVP(base, SimulationInput{
		RevenueDeltaPct:      dec("10"),
		VariableCostDeltaPct: dec("10"),
	})
	require.True(t, res.VariableCost.Equal(dec("4400")))
	require.True(t, res.ContributionMargin.Equal(dec("6600")))
	require.True(t, res.ContributionMarginRatio.Equal(dec("0.6")), "ratio holds when both scale together")
}
