package reports

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/bistrohq/bistroboard/internal/scope"
	"github.com/bistrohq/bistroboard/internal/shared"
)

type stubSource struct {
	daily   []DailyRow
	byStore []StoreRow
	buckets map[string]BucketRow
}

func (s *stubSource) Daily(context.Context, time.Time, time.Time, *scope.StoreSet) ([]DailyRow, error) {
	return s.daily, nil
}

func (s *stubSource) Monthly(context.Context, int, *scope.StoreSet) ([]MonthlyRow, error) {
	return nil, nil
}

func (s *stubSource) ByStore(context.Context, time.Time, time.Time, *scope.StoreSet) ([]StoreRow, error) {
	return s.byStore, nil
}

func (s *stubSource) Buckets(context.Context, time.Time, time.Time, *scope.StoreSet) (map[string]BucketRow, error) {
	return s.buckets, nil
}

type openScope struct{}

func (openScope) FilterRequestedStore(context.Context, *shared.Principal, *int64) (*scope.StoreSet, error) {
	return nil, nil
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func day(s string) time.Time {
	d, _ := time.Parse(time.DateOnly, s)
	return d
}

func TestDailySummaryDerivesRates(t *testing.T) {
	src := &stubSource{daily: []DailyRow{
		{Date: day("2026-03-01"), Revenue: dec("1000"), Cost: dec("600"), Profit: dec("400"), OrderCount: 10},
		{Date: day("2026-03-02"), Revenue: dec("0"), Cost: dec("50"), Profit: dec("-50"), OrderCount: 0},
	}}
	svc := NewService(src, openScope{})

	s, err := svc.DailySummary(context.Background(), nil, day("2026-03-01"), day("2026-03-02"), nil)
	require.NoError(t, err)
	require.True(t, s.Total.Equal(dec("1000")))
	require.True(t, s.Rows[0].ProfitRate.Equal(dec("0.4")))
	require.True(t, s.Rows[0].AvgOrderValue.Equal(dec("100")))
	require.True(t, s.Rows[1].ProfitRate.IsZero(), "zero revenue never divides")
	require.True(t, s.Rows[1].AvgOrderValue.IsZero())
}

func TestStorePerformanceShares(t *testing.T) {
	src := &stubSource{byStore: []StoreRow{
		{StoreID: 1, Revenue: dec("750"), Profit: dec("150"), OrderCount: 5},
		{StoreID: 2, Revenue: dec("250"), Profit: dec("50"), OrderCount: 2},
	}}
	svc := NewService(src, openScope{})

	s, err := svc.StorePerformance(context.Background(), nil, day("2026-03-01"), day("2026-03-31"))
	require.NoError(t, err)
	require.True(t, s.Rows[0].RevenueShare.Equal(dec("75")))
	require.True(t, s.Rows[1].RevenueShare.Equal(dec("25")))
}

func TestExpenseBreakdownOrderedByAmount(t *testing.T) {
	src := &stubSource{buckets: map[string]BucketRow{
		"material": {Bucket: "material", Amount: dec("600")},
		"labor":    {Bucket: "labor", Amount: dec("300")},
		"rent":     {Bucket: "rent", Amount: dec("100")},
		"other":    {Bucket: "other", Amount: dec("0")},
	}}
	svc := NewService(src, openScope{})

	s, err := svc.ExpenseBreakdown(context.Background(), nil, day("2026-03-01"), day("2026-03-31"), nil)
	require.NoError(t, err)
	require.True(t, s.Total.Equal(dec("1000")))
	require.Equal(t, "material", s.Rows[0].Bucket)
	require.True(t, s.Rows[0].Share.Equal(dec("60")))
	require.Equal(t, "labor", s.Rows[1].Bucket)
	require.True(t, s.Rows[1].Share.Equal(dec("30")))
}
