package kpi

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bistrohq/bistroboard/internal/scope"
	"github.com/bistrohq/bistroboard/internal/shared"
)

// profit_rate is stored as NUMERIC(5,4); out-of-range ratios saturate
// instead of failing the row.
var (
	profitRateMax = decimal.RequireFromString("9.9999")
	profitRateMin = profitRateMax.Neg()
)

// Repository is the persistence surface the aggregator needs.
type Repository interface {
	ActiveStoreIDs(ctx context.Context, storeID *int64) ([]int64, error)
	AggregateOrders(ctx context.Context, storeID int64, bizDate time.Time) (OrderStats, error)
	AggregateExpenses(ctx context.Context, storeID int64, bizDate time.Time) (CostStats, error)
	UpsertSnapshot(ctx context.Context, snap Snapshot) error
}

// ScopeChecker validates single-store access; satisfied by *scope.Service.
type ScopeChecker interface {
	AssertCanAccessStore(ctx context.Context, user *shared.Principal, storeID int64) error
}

// CacheBumper invalidates report caches after a rebuild; optional.
type CacheBumper interface {
	Bump(ctx context.Context) error
}

// Service rebuilds the daily KPI snapshot.
type Service struct {
	repo   Repository
	scope  ScopeChecker
	cache  CacheBumper
	logger *slog.Logger
}

// NewService builds the service. cache may be nil.
func NewService(repo Repository, scopeSvc ScopeChecker, cache CacheBumper, logger *slog.Logger) *Service {
	return &Service{repo: repo, scope: scopeSvc, cache: cache, logger: logger}
}

// Rebuild recomputes and upserts every (store, date) pair in the range.
//
// The operation is idempotent: the result is purely a function of the
// day's completed orders and approved/paid expenses, never of the prior
// snapshot contents. The first failing pair aborts the remaining loop;
// there is no partial-success accounting, callers re-run the range.
func (s *Service) Rebuild(ctx context.Context, actor *shared.Principal, from, to time.Time, storeID *int64) (RebuildResult, error) {
	if to.Before(from) {
		return RebuildResult{}, fmt.Errorf("kpi: invalid range %s..%s", from.Format(time.DateOnly), to.Format(time.DateOnly))
	}
	if storeID != nil && actor != nil {
		if err := s.scope.AssertCanAccessStore(ctx, actor, *storeID); err != nil {
			return RebuildResult{}, err
		}
	}

	storeIDs, err := s.repo.ActiveStoreIDs(ctx, storeID)
	if err != nil {
		return RebuildResult{}, err
	}
	if len(storeIDs) == 0 {
		return RebuildResult{}, nil
	}

	dates := calendarDays(from, to)
	written := 0
	for _, sid := range storeIDs {
		for _, day := range dates {
			if err := s.recomputeOne(ctx, sid, day); err != nil {
				return RebuildResult{}, fmt.Errorf("kpi: rebuild store %d date %s: %w", sid, day.Format(time.DateOnly), err)
			}
			written++
		}
	}

	if s.cache != nil {
		if err := s.cache.Bump(ctx); err != nil && s.logger != nil {
			s.logger.Warn("kpi cache bump", slog.Any("error", err))
		}
	}
	if s.logger != nil {
		s.logger.Info("kpi rebuild complete",
			slog.Int("dates", len(dates)),
			slog.Int("stores", len(storeIDs)),
			slog.Int("rows", written))
	}
	return RebuildResult{DatesAffected: len(dates), StoresAffected: len(storeIDs), RowsWritten: written}, nil
}

// recomputeOne rebuilds the snapshot row for one (store, date). Always
// writes, even when every metric is zero, so the snapshot stays dense
// over the rebuilt range.
func (s *Service) recomputeOne(ctx context.Context, storeID int64, bizDate time.Time) error {
	orders, err := s.repo.AggregateOrders(ctx, storeID, bizDate)
	if err != nil {
		return err
	}
	costs, err := s.repo.AggregateExpenses(ctx, storeID, bizDate)
	if err != nil {
		return err
	}
	return s.repo.UpsertSnapshot(ctx, buildSnapshot(storeID, bizDate, orders, costs))
}

// buildSnapshot derives the full row from the two aggregates using
// fixed-point arithmetic throughout.
func buildSnapshot(storeID int64, bizDate time.Time, orders OrderStats, costs CostStats) Snapshot {
	// net_amount already nets out discounts and refunds per order, so the
	// summed column is authoritative rather than re-deriving it here.
	netRevenue := orders.NetRevenue

	costMaterial := costs.Bucket(BucketMaterial)
	costTotal := costMaterial.
		Add(costs.Bucket(BucketLabor)).
		Add(costs.Bucket(BucketRent)).
		Add(costs.Bucket(BucketUtilities)).
		Add(costs.Bucket(BucketMarketing)).
		Add(costs.Bucket(BucketOther))

	grossProfit := netRevenue.Sub(costMaterial)
	operatingProfit := netRevenue.Sub(costTotal)

	profitRate := decimal.Zero
	if netRevenue.IsPositive() {
		profitRate = clampProfitRate(operatingProfit.DivRound(netRevenue, 4))
	}

	avgOrderValue := decimal.Zero
	if orders.OrderCount > 0 {
		avgOrderValue = netRevenue.DivRound(decimal.NewFromInt(int64(orders.OrderCount)), 2)
	}

	return Snapshot{
		BizDate:         bizDate,
		StoreID:         storeID,
		Revenue:         orders.GrossRevenue,
		RefundAmount:    orders.RefundAmount,
		DiscountAmount:  orders.DiscountAmount,
		NetRevenue:      netRevenue,
		CostTotal:       costTotal,
		CostMaterial:    costMaterial,
		CostLabor:       costs.Bucket(BucketLabor),
		CostRent:        costs.Bucket(BucketRent),
		CostUtilities:   costs.Bucket(BucketUtilities),
		CostMarketing:   costs.Bucket(BucketMarketing),
		CostOther:       costs.Bucket(BucketOther),
		GrossProfit:     grossProfit,
		OperatingProfit: operatingProfit,
		ProfitRate:      profitRate,
		OrderCount:      orders.OrderCount,
		// No customer identity dedup exists; footfall is approximated
		// by the completed order count.
		CustomerCount:   orders.OrderCount,
		AvgOrderValue:   avgOrderValue,
		DineInRevenue:   orders.DineInRevenue,
		TakeoutRevenue:  orders.TakeoutRevenue,
		DeliveryRevenue: orders.DeliveryRevenue,
		OnlineRevenue:   orders.OnlineRevenue,
	}
}

func clampProfitRate(rate decimal.Decimal) decimal.Decimal {
	if rate.GreaterThan(profitRateMax) {
		return profitRateMax
	}
	if rate.LessThan(profitRateMin) {
		return profitRateMin
	}
	return rate
}

// calendarDays returns every date in [from, to] inclusive, truncated to
// midnight UTC. Weekends and holidays are not skipped.
func calendarDays(from, to time.Time) []time.Time {
	from = time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	to = time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	var days []time.Time
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// TrendReader serves the snapshot-backed chart queries.
type TrendReader interface {
	DailyTrend(ctx context.Context, from, to time.Time, stores *scope.StoreSet) ([]TrendPoint, error)
	StoreComparison(ctx context.Context, from, to time.Time, stores *scope.StoreSet) ([]StoreTotals, error)
}

// Trend exposes read-only snapshot queries to handlers.
type Trend struct {
	reader TrendReader
	scope  *scope.Service
}

// NewTrend builds the trend query facade.
func NewTrend(reader TrendReader, scopeSvc *scope.Service) *Trend {
	return &Trend{reader: reader, scope: scopeSvc}
}

// DailyTrend returns the per-date revenue/cost/profit series.
func (t *Trend) DailyTrend(ctx context.Context, user *shared.Principal, from, to time.Time, requestedStore *int64) ([]TrendPoint, error) {
	stores, err := t.scope.FilterRequestedStore(ctx, user, requestedStore)
	if err != nil {
		return nil, err
	}
	return t.reader.DailyTrend(ctx, from, to, stores)
}

// StoreComparison returns per-store totals ordered by revenue.
func (t *Trend) StoreComparison(ctx context.Context, user *shared.Principal, from, to time.Time) ([]StoreTotals, error) {
	stores, err := t.scope.FilterRequestedStore(ctx, user, nil)
	if err != nil {
		return nil, err
	}
	return t.reader.StoreComparison(ctx, from, to, stores)
}
