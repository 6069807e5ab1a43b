package dashboard

import (
	"context"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/bistrohq/bistroboard/internal/scope"
	"github.com/bistrohq/bistroboard/internal/shared"
)

var hundred = decimal.NewFromInt(100)

// Source is the snapshot aggregate access the service needs.
type Source interface {
	Totals(ctx context.Context, from, to time.Time, stores *scope.StoreSet) (Totals, error)
	Trend(ctx context.Context, from, to time.Time, stores *scope.StoreSet) ([]TrendPoint, error)
	StoreRanking(ctx context.Context, from, to time.Time, stores *scope.StoreSet, limit int) ([]StoreRank, error)
	CostBuckets(ctx context.Context, from, to time.Time, stores *scope.StoreSet) (map[string]decimal.Decimal, error)
	Channels(ctx context.Context, from, to time.Time, stores *scope.StoreSet) (ChannelTotals, error)
}

// ScopeGuard narrows the requested store to the caller's grants.
type ScopeGuard interface {
	FilterRequestedStore(ctx context.Context, user *shared.Principal, requestedStoreID *int64) (*scope.StoreSet, error)
}

const rankingLimit = 10

// Service assembles the dashboard overview.
type Service struct {
	logger *slog.Logger
	source Source
	scope  ScopeGuard
	cache  *Cache
}

// NewService builds the service. Cache may be nil.
func NewService(logger *slog.Logger, source Source, scopeSvc ScopeGuard, cache *Cache) *Service {
	return &Service{logger: logger, source: source, scope: scopeSvc, cache: cache}
}

// Overview builds the dashboard payload for the window, served from
// cache when a fresh copy exists.
func (s *Service) Overview(ctx context.Context, user *shared.Principal, from, to time.Time, storeID *int64) (Overview, error) {
	stores, err := s.scope.FilterRequestedStore(ctx, user, storeID)
	if err != nil {
		return Overview{}, err
	}

	key, err := s.cache.BuildKey(ctx, "dashboard", "overview",
		from.Format(time.DateOnly), to.Format(time.DateOnly), scopeKey(stores))
	if err != nil {
		s.logger.Warn("dashboard cache key unavailable", "error", err)
		return s.build(ctx, from, to, stores)
	}

	var out Overview
	err = s.cache.FetchJSON(ctx, key, &out, func(ctx context.Context) (any, error) {
		return s.build(ctx, from, to, stores)
	})
	if err != nil {
		return Overview{}, err
	}
	return out, nil
}

func scopeKey(stores *scope.StoreSet) string {
	if stores == nil {
		return "all"
	}
	ids := stores.IDs()
	sorted := make([]int64, len(ids))
	copy(sorted, ids)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	key := ""
	for i, id := range sorted {
		if i > 0 {
			key += ","
		}
		key += strconv.FormatInt(id, 10)
	}
	return key
}

func (s *Service) build(ctx context.Context, from, to time.Time, stores *scope.StoreSet) (Overview, error) {
	// Prior window of equal length ending the day before the current one.
	days := int(to.Sub(from).Hours()/24) + 1
	priorTo := from.AddDate(0, 0, -1)
	priorFrom := priorTo.AddDate(0, 0, -(days - 1))

	var (
		current Totals
		prior   Totals
		trend   []TrendPoint
		ranking []StoreRank
		buckets map[string]decimal.Decimal
		channel ChannelTotals
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		current, err = s.source.Totals(gctx, from, to, stores)
		return err
	})
	g.Go(func() (err error) {
		prior, err = s.source.Totals(gctx, priorFrom, priorTo, stores)
		return err
	})
	g.Go(func() (err error) {
		trend, err = s.source.Trend(gctx, from, to, stores)
		return err
	})
	g.Go(func() (err error) {
		ranking, err = s.source.StoreRanking(gctx, from, to, stores, rankingLimit)
		return err
	})
	g.Go(func() (err error) {
		buckets, err = s.source.CostBuckets(gctx, from, to, stores)
		return err
	})
	g.Go(func() (err error) {
		channel, err = s.source.Channels(gctx, from, to, stores)
		return err
	})
	if err := g.Wait(); err != nil {
		return Overview{}, err
	}

	return Overview{
		DateFrom:         from,
		DateTo:           to,
		Revenue:          makeCard(current.Revenue, prior.Revenue),
		Cost:             makeCard(current.Cost, prior.Cost),
		Profit:           makeCard(current.Profit, prior.Profit),
		OrderCount:       makeCard(decimal.NewFromInt(current.OrderCount), decimal.NewFromInt(prior.OrderCount)),
		Trend:            trend,
		StoreRanking:     ranking,
		ExpenseStructure: costSlices(buckets),
		Channels:         channelSlices(channel),
	}, nil
}

func makeCard(value, prior decimal.Decimal) Card {
	card := Card{Value: value, Prior: prior}
	if !prior.IsZero() {
		card.GrowthPct = value.Sub(prior).DivRound(prior.Abs(), 6).Mul(hundred).Round(2)
	}
	return card
}

var bucketOrder = []string{"material", "labor", "rent", "utilities", "marketing", "other"}

func costSlices(buckets map[string]decimal.Decimal) []CostSlice {
	total := decimal.Zero
	for _, amount := range buckets {
		total = total.Add(amount)
	}
	out := make([]CostSlice, 0, len(bucketOrder))
	for _, bucket := range bucketOrder {
		slice := CostSlice{Bucket: bucket, Amount: buckets[bucket]}
		if total.IsPositive() {
			slice.Share = slice.Amount.DivRound(total, 6).Mul(hundred).Round(2)
		}
		out = append(out, slice)
	}
	return out
}

func channelSlices(t ChannelTotals) []ChannelSlice {
	total := t.DineIn.Add(t.Takeout).Add(t.Delivery).Add(t.Online)
	mk := func(name string, revenue decimal.Decimal) ChannelSlice {
		slice := ChannelSlice{Channel: name, Revenue: revenue}
		if total.IsPositive() {
			slice.Share = revenue.DivRound(total, 6).Mul(hundred).Round(2)
		}
		return slice
	}
	return []ChannelSlice{
		mk("dine_in", t.DineIn),
		mk("takeout", t.Takeout),
		mk("delivery", t.Delivery),
		mk("online", t.Online),
	}
}
