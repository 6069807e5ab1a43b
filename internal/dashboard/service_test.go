package dashboard

import (
	"context"
	"log/slog"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/bistrohq/bistroboard/internal/scope"
	"github.com/bistrohq/bistroboard/internal/shared"
)

type stubSource struct {
	totals      map[string]Totals
	totalsCalls int
	trend       []TrendPoint
	ranking     []StoreRank
	buckets     map[string]decimal.Decimal
	channels    ChannelTotals
}

func windowKey(from, to time.Time) string {
	return from.Format(time.DateOnly) + "/" + to.Format(time.DateOnly)
}

func (s *stubSource) Totals(_ context.Context, from, to time.Time, _ *scope.StoreSet) (Totals, error) {
	s.totalsCalls++
	return s.totals[windowKey(from, to)], nil
}

func (s *stubSource) Trend(context.Context, time.Time, time.Time, *scope.StoreSet) ([]TrendPoint, error) {
	return s.trend, nil
}

func (s *stubSource) StoreRanking(context.Context, time.Time, time.Time, *scope.StoreSet, int) ([]StoreRank, error) {
	return s.ranking, nil
}

func (s *stubSource) CostBuckets(context.Context, time.Time, time.Time, *scope.StoreSet) (map[string]decimal.Decimal, error) {
	if s.buckets == nil {
		return map[string]decimal.Decimal{}, nil
	}
	return s.buckets, nil
}

func (s *stubSource) Channels(context.Context, time.Time, time.Time, *scope.StoreSet) (ChannelTotals, error) {
	return s.channels, nil
}

type allowScope struct{}

func (allowScope) FilterRequestedStore(context.Context, *shared.Principal, *int64) (*scope.StoreSet, error) {
	return nil, nil
}

func newTestService(t *testing.T, source Source) (*Service, *Cache) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	cache := NewCache(client, time.Minute)
	return NewService(slog.New(slog.DiscardHandler), source, allowScope{}, cache), cache
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestOverviewCards(t *testing.T) {
	from := date(2026, time.March, 1)
	to := date(2026, time.March, 31)
	priorFrom := date(2026, time.January, 29)
	priorTo := date(2026, time.February, 28)

	source := &stubSource{
		totals: map[string]Totals{
			windowKey(from, to): {
				Revenue:    decimal.NewFromInt(1200),
				Cost:       decimal.NewFromInt(800),
				Profit:     decimal.NewFromInt(400),
				OrderCount: 60,
			},
			windowKey(priorFrom, priorTo): {
				Revenue:    decimal.NewFromInt(1000),
				Cost:       decimal.NewFromInt(900),
				Profit:     decimal.NewFromInt(100),
				OrderCount: 50,
			},
		},
	}
	svc, _ := newTestService(t, source)

	out, err := svc.Overview(context.Background(), &shared.Principal{ID: 1}, from, to, nil)
	require.NoError(t, err)

	require.True(t, out.Revenue.GrowthPct.Equal(decimal.NewFromInt(20)), "revenue growth %s", out.Revenue.GrowthPct)
	require.True(t, out.Cost.GrowthPct.Equal(decimal.RequireFromString("-11.11")), "cost growth %s", out.Cost.GrowthPct)
	require.True(t, out.Profit.GrowthPct.Equal(decimal.NewFromInt(300)), "profit growth %s", out.Profit.GrowthPct)
	require.True(t, out.OrderCount.Value.Equal(decimal.NewFromInt(60)))
}

func TestOverviewZeroPriorLeavesGrowthZero(t *testing.T) {
	from := date(2026, time.March, 1)
	to := date(2026, time.March, 1)
	source := &stubSource{
		totals: map[string]Totals{
			windowKey(from, to): {Revenue: decimal.NewFromInt(500)},
		},
	}
	svc, _ := newTestService(t, source)

	out, err := svc.Overview(context.Background(), &shared.Principal{ID: 1}, from, to, nil)
	require.NoError(t, err)
	require.True(t, out.Revenue.GrowthPct.IsZero())
	require.True(t, out.Revenue.Prior.IsZero())
}

func TestOverviewShares(t *testing.T) {
	from := date(2026, time.March, 1)
	to := date(2026, time.March, 1)
	source := &stubSource{
		totals: map[string]Totals{},
		buckets: map[string]decimal.Decimal{
			"material": decimal.NewFromInt(300),
			"labor":    decimal.NewFromInt(100),
		},
		channels: ChannelTotals{
			DineIn:  decimal.NewFromInt(750),
			Takeout: decimal.NewFromInt(250),
		},
	}
	svc, _ := newTestService(t, source)

	out, err := svc.Overview(context.Background(), &shared.Principal{ID: 1}, from, to, nil)
	require.NoError(t, err)

	require.Len(t, out.ExpenseStructure, 6)
	require.Equal(t, "material", out.ExpenseStructure[0].Bucket)
	require.True(t, out.ExpenseStructure[0].Share.Equal(decimal.NewFromInt(75)))
	require.True(t, out.ExpenseStructure[1].Share.Equal(decimal.NewFromInt(25)))
	require.True(t, out.ExpenseStructure[2].Share.IsZero())

	require.Len(t, out.Channels, 4)
	require.Equal(t, "dine_in", out.Channels[0].Channel)
	require.True(t, out.Channels[0].Share.Equal(decimal.NewFromInt(75)))
}

func TestOverviewCachesUntilBump(t *testing.T) {
	from := date(2026, time.March, 1)
	to := date(2026, time.March, 7)
	source := &stubSource{totals: map[string]Totals{}}
	svc, cache := newTestService(t, source)
	ctx := context.Background()
	user := &shared.Principal{ID: 1}

	_, err := svc.Overview(ctx, user, from, to, nil)
	require.NoError(t, err)
	first := source.totalsCalls
	require.Equal(t, 2, first)

	_, err = svc.Overview(ctx, user, from, to, nil)
	require.NoError(t, err)
	require.Equal(t, first, source.totalsCalls)

	require.NoError(t, cache.Bump(ctx))
	_, err = svc.Overview(ctx, user, from, to, nil)
	require.NoError(t, err)
	require.Equal(t, first*2, source.totalsCalls)
}

func TestOverviewWithoutCache(t *testing.T) {
	from := date(2026, time.March, 1)
	to := date(2026, time.March, 7)
	source := &stubSource{totals: map[string]Totals{}}
	svc := NewService(slog.New(slog.DiscardHandler), source, allowScope{}, nil)

	_, err := svc.Overview(context.Background(), &shared.Principal{ID: 1}, from, to, nil)
	require.NoError(t, err)
	_, err = svc.Overview(context.Background(), &shared.Principal{ID: 1}, from, to, nil)
	require.NoError(t, err)
	require.Equal(t, 4, source.totalsCalls)
}
