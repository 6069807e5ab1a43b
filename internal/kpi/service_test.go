package kpi

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/bistrohq/bistroboard/internal/shared"
)

type stubRepo struct {
	stores    []int64
	orders    map[string]OrderStats
	costs     map[string]CostStats
	written   []Snapshot
	ordersErr error
}

func key(storeID int64, d time.Time) string {
	return d.Format(time.DateOnly) + "/" + strconv.FormatInt(storeID, 10)
}

func (s *stubRepo) ActiveStoreIDs(_ context.Context, storeID *int64) ([]int64, error) {
	if storeID == nil {
		return s.stores, nil
	}
	for _, id := range s.stores {
		if id == *storeID {
			return []int64{id}, nil
		}
	}
	return nil, nil
}

func (s *stubRepo) AggregateOrders(_ context.Context, storeID int64, d time.Time) (OrderStats, error) {
	if s.ordersErr != nil {
		return OrderStats{}, s.ordersErr
	}
	return s.orders[key(storeID, d)], nil
}

func (s *stubRepo) AggregateExpenses(_ context.Context, storeID int64, d time.Time) (CostStats, error) {
	return s.costs[key(storeID, d)], nil
}

func (s *stubRepo) UpsertSnapshot(_ context.Context, snap Snapshot) error {
	s.written = append(s.written, snap)
	return nil
}

type allowAllScope struct{}

func (allowAllScope) AssertCanAccessStore(context.Context, *shared.Principal, int64) error {
	return nil
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func day(s string) time.Time {
	d, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestRebuildSingleDay(t *testing.T) {
	d := day("2026-03-15")
	repo := &stubRepo{
		stores: []int64{1},
		orders: map[string]OrderStats{
			key(1, d): {
				GrossRevenue:   dec("150"),
				NetRevenue:     dec("150"),
				OrderCount:     2,
				DineInRevenue:  dec("100"),
				TakeoutRevenue: dec("50"),
			},
		},
		costs: map[string]CostStats{
			key(1, d): {BucketMaterial: dec("30")},
		},
	}
	svc := NewService(repo, allowAllScope{}, nil, nil)

	res, err := svc.Rebuild(context.Background(), nil, d, d, nil)
	require.NoError(t, err)
	require.Equal(t, RebuildResult{DatesAffected: 1, StoresAffected: 1, RowsWritten: 1}, res)

	require.Len(t, repo.written, 1)
	snap := repo.written[0]
	require.True(t, snap.NetRevenue.Equal(dec("150")))
	require.Equal(t, 2, snap.OrderCount)
	require.Equal(t, 2, snap.CustomerCount)
	require.True(t, snap.CostTotal.Equal(dec("30")))
	require.True(t, snap.GrossProfit.Equal(dec("120")))
	require.True(t, snap.OperatingProfit.Equal(dec("120")))
	require.True(t, snap.AvgOrderValue.Equal(dec("75")))
	require.True(t, snap.ProfitRate.Equal(dec("0.8")))
	require.True(t, snap.DineInRevenue.Equal(dec("100")))
	require.True(t, snap.TakeoutRevenue.Equal(dec("50")))
}

func TestRebuildZeroActivityWritesZeroRow(t *testing.T) {
	d := day("2026-03-16")
	repo := &stubRepo{stores: []int64{4}}
	svc := NewService(repo, allowAllScope{}, nil, nil)

	_, err := svc.Rebuild(context.Background(), nil, d, d, nil)
	require.NoError(t, err)
	require.Len(t, repo.written, 1)

	snap := repo.written[0]
	require.True(t, snap.NetRevenue.IsZero())
	require.True(t, snap.AvgOrderValue.IsZero(), "no division by a zero order count")
	require.True(t, snap.ProfitRate.IsZero(), "no division by zero revenue")
	require.Zero(t, snap.OrderCount)
}

func TestRebuildProfitRate(t *testing.T) {
	d := day("2026-03-17")
	repo := &stubRepo{
		stores: []int64{1},
		orders: map[string]OrderStats{
			key(1, d): {NetRevenue: dec("1000"), GrossRevenue: dec("1000"), OrderCount: 10},
		},
		costs: map[string]CostStats{
			key(1, d): {BucketMaterial: dec("400"), BucketLabor: dec("200")},
		},
	}
	svc := NewService(repo, allowAllScope{}, nil, nil)

	_, err := svc.Rebuild(context.Background(), nil, d, d, nil)
	require.NoError(t, err)

	snap := repo.written[0]
	require.True(t, snap.CostTotal.Equal(dec("600")))
	require.True(t, snap.OperatingProfit.Equal(dec("400")))
	require.True(t, snap.ProfitRate.Equal(dec("0.4")))
	require.True(t, snap.GrossProfit.Equal(dec("600")))
}

func TestRebuildRangeCoversEveryPair(t *testing.T) {
	repo := &stubRepo{stores: []int64{1, 2}}
	svc := NewService(repo, allowAllScope{}, nil, nil)

	res, err := svc.Rebuild(context.Background(), nil, day("2026-03-01"), day("2026-03-03"), nil)
	require.NoError(t, err)
	require.Equal(t, 3, res.DatesAffected)
	require.Equal(t, 2, res.StoresAffected)
	require.Equal(t, 6, res.RowsWritten)
	require.Len(t, repo.written, 6)
}

func TestRebuildIdempotent(t *testing.T) {
	d := day("2026-03-15")
	repo := &stubRepo{
		stores: []int64{1},
		orders: map[string]OrderStats{
			key(1, d): {NetRevenue: dec("150"), GrossRevenue: dec("150"), OrderCount: 2},
		},
	}
	svc := NewService(repo, allowAllScope{}, nil, nil)

	_, err := svc.Rebuild(context.Background(), nil, d, d, nil)
	require.NoError(t, err)
	_, err = svc.Rebuild(context.Background(), nil, d, d, nil)
	require.NoError(t, err)

	require.Len(t, repo.written, 2)
	require.Equal(t, repo.written[0], repo.written[1], "same inputs produce the same row")
}

func TestRebuildAbortsOnFirstError(t *testing.T) {
	repo := &stubRepo{stores: []int64{1, 2}, ordersErr: context.DeadlineExceeded}
	svc := NewService(repo, allowAllScope{}, nil, nil)

	_, err := svc.Rebuild(context.Background(), nil, day("2026-03-01"), day("2026-03-02"), nil)
	require.Error(t, err)
	require.Empty(t, repo.written, "no partial rows after the failing pair")
}

func TestRebuildInvalidRange(t *testing.T) {
	svc := NewService(&stubRepo{}, allowAllScope{}, nil, nil)
	_, err := svc.Rebuild(context.Background(), nil, day("2026-03-10"), day("2026-03-01"), nil)
	require.Error(t, err)
}

func TestClampProfitRate(t *testing.T) {
	require.True(t, clampProfitRate(dec("12.5")).Equal(dec("9.9999")))
	require.True(t, clampProfitRate(dec("-42")).Equal(dec("-9.9999")))
	require.True(t, clampProfitRate(dec("0.35")).Equal(dec("0.35")))
}

func TestUnknownBucketDefaultsToZero(t *testing.T) {
	costs := CostStats{BucketMaterial: dec("10")}
	require.True(t, costs.Bucket("depreciation").IsZero())
	require.True(t, costs.Bucket(BucketMaterial).Equal(dec("10")))
}

func TestCalendarDaysInclusive(t *testing.T) {
	days := calendarDays(day("2026-02-27"), day("2026-03-02"))
	require.Len(t, days, 4)
	require.Equal(t, "2026-02-27", days[0].Format(time.DateOnly))
	require.Equal(t, "2026-03-02", days[3].Format(time.DateOnly))
}
