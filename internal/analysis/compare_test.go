package analysis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	d, _ := time.Parse(time.DateOnly, s)
	return d
}

func TestBasePeriodYoY(t *testing.T) {
	from, to, err := basePeriod(ModeYoY, day("2026-03-01"), day("2026-03-31"))
	require.NoError(t, err)
	require.Equal(t, day("2025-03-01"), from)
	require.Equal(t, day("2025-03-31"), to)
}

func TestBasePeriodMoM(t *testing.T) {
	from, to, err := basePeriod(ModeMoM, day("2024-03-01"), day("2024-03-31"))
	require.NoError(t, err)
	require.Equal(t, day("2024-02-01"), from, "shifted back one calendar month")
	require.Equal(t, day("2024-02-29"), to, "day clamped to the shorter month's end")
}

func TestBasePeriodMoMClampsNonLeapFebruary(t *testing.T) {
	from, to, err := basePeriod(ModeMoM, day("2026-03-15"), day("2026-03-31"))
	require.NoError(t, err)
	require.Equal(t, day("2026-02-15"), from)
	require.Equal(t, day("2026-02-28"), to)
}

func TestBasePeriodYoYClampsLeapDay(t *testing.T) {
	from, to, err := basePeriod(ModeYoY, day("2024-02-01"), day("2024-02-29"))
	require.NoError(t, err)
	require.Equal(t, day("2023-02-01"), from)
	require.Equal(t, day("2023-02-28"), to)
}

func TestBasePeriodUnknownMode(t *testing.T) {
	_, _, err := basePeriod("quarterly", day("2026-03-01"), day("2026-03-31"))
	require.Error(t, err)
}

func TestComputeGrowth(t *testing.T) {
	g := computeGrowth(
		PeriodTotals{Revenue: dec("1200"), Cost: dec("700"), Profit: dec("500"), OrderCount: 110},
		PeriodTotals{Revenue: dec("1000"), Cost: dec("700"), Profit: dec("300"), OrderCount: 100},
	)
	require.True(t, g.Revenue.Equal(dec("20")))
	require.True(t, g.Cost.IsZero())
	require.True(t, g.Profit.Equal(dec("66.67")))
	require.True(t, g.OrderCount.Equal(dec("10")))
}

func TestComputeGrowthZeroBase(t *testing.T) {
	g := computeGrowth(
		PeriodTotals{Revenue: dec("1200")},
		PeriodTotals{},
	)
	require.True(t, g.Revenue.IsZero(), "a zero base yields no rate rather than dividing")
}

func TestComputeGrowthNegativeBase(t *testing.T) {
	// Loss of 100 shrinking to a loss of 50 is a 50% improvement.
	g := computeGrowth(
		PeriodTotals{Profit: dec("-50")},
		PeriodTotals{Profit: dec("-100")},
	)
	require.True(t, g.Profit.Equal(dec("50")))
}
