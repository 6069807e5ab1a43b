package reports

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bistrohq/bistroboard/internal/scope"
	"github.com/bistrohq/bistroboard/internal/shared"
)

var hundred = decimal.NewFromInt(100)

// Source is the aggregate query surface; satisfied by *Repository.
type Source interface {
	Daily(ctx context.Context, from, to time.Time, stores *scope.StoreSet) ([]DailyRow, error)
	Monthly(ctx context.Context, year int, stores *scope.StoreSet) ([]MonthlyRow, error)
	ByStore(ctx context.Context, from, to time.Time, stores *scope.StoreSet) ([]StoreRow, error)
	Buckets(ctx context.Context, from, to time.Time, stores *scope.StoreSet) (map[string]BucketRow, error)
}

// ScopeGuard is the data-scope surface; satisfied by *scope.Service.
type ScopeGuard interface {
	FilterRequestedStore(ctx context.Context, user *shared.Principal, requested *int64) (*scope.StoreSet, error)
}

// Service shapes the summary reports. The database returns pre-grouped
// sums; this layer only derives ratios and shares.
type Service struct {
	source Source
	scope  ScopeGuard
}

// NewService builds the service.
func NewService(source Source, scopeSvc ScopeGuard) *Service {
	return &Service{source: source, scope: scopeSvc}
}

// DailySummary returns per-date figures with derived rates.
func (s *Service) DailySummary(ctx context.Context, user *shared.Principal, from, to time.Time, storeID *int64) (Summary[DailyRow], error) {
	stores, err := s.scope.FilterRequestedStore(ctx, user, storeID)
	if err != nil {
		return Summary[DailyRow]{}, err
	}
	rows, err := s.source.Daily(ctx, from, to, stores)
	if err != nil {
		return Summary[DailyRow]{}, err
	}
	total := decimal.Zero
	for i := range rows {
		rows[i].ProfitRate = ratio(rows[i].Profit, rows[i].Revenue)
		if rows[i].OrderCount > 0 {
			rows[i].AvgOrderValue = rows[i].Revenue.DivRound(decimal.NewFromInt(int64(rows[i].OrderCount)), 2)
		}
		total = total.Add(rows[i].Revenue)
	}
	return Summary[DailyRow]{DateFrom: from, DateTo: to, Total: total, Rows: rows}, nil
}

// MonthlySummary returns per-month figures for one year.
func (s *Service) MonthlySummary(ctx context.Context, user *shared.Principal, year int, storeID *int64) (Summary[MonthlyRow], error) {
	stores, err := s.scope.FilterRequestedStore(ctx, user, storeID)
	if err != nil {
		return Summary[MonthlyRow]{}, err
	}
	rows, err := s.source.Monthly(ctx, year, stores)
	if err != nil {
		return Summary[MonthlyRow]{}, err
	}
	total := decimal.Zero
	for i := range rows {
		rows[i].ProfitRate = ratio(rows[i].Profit, rows[i].Revenue)
		total = total.Add(rows[i].Revenue)
	}
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
	return Summary[MonthlyRow]{DateFrom: from, DateTo: to, Total: total, Rows: rows}, nil
}

// StorePerformance returns per-store figures with revenue share of the
// visible total.
func (s *Service) StorePerformance(ctx context.Context, user *shared.Principal, from, to time.Time) (Summary[StoreRow], error) {
	stores, err := s.scope.FilterRequestedStore(ctx, user, nil)
	if err != nil {
		return Summary[StoreRow]{}, err
	}
	rows, err := s.source.ByStore(ctx, from, to, stores)
	if err != nil {
		return Summary[StoreRow]{}, err
	}
	total := decimal.Zero
	for _, row := range rows {
		total = total.Add(row.Revenue)
	}
	for i := range rows {
		rows[i].ProfitRate = ratio(rows[i].Profit, rows[i].Revenue)
		if rows[i].OrderCount > 0 {
			rows[i].AvgOrderValue = rows[i].Revenue.DivRound(decimal.NewFromInt(int64(rows[i].OrderCount)), 2)
		}
		rows[i].RevenueShare = share(rows[i].Revenue, total)
	}
	return Summary[StoreRow]{DateFrom: from, DateTo: to, Total: total, Rows: rows}, nil
}

// ExpenseBreakdown returns cost bucket totals with their share of the
// overall cost, largest first.
func (s *Service) ExpenseBreakdown(ctx context.Context, user *shared.Principal, from, to time.Time, storeID *int64) (Summary[BucketRow], error) {
	stores, err := s.scope.FilterRequestedStore(ctx, user, storeID)
	if err != nil {
		return Summary[BucketRow]{}, err
	}
	buckets, err := s.source.Buckets(ctx, from, to, stores)
	if err != nil {
		return Summary[BucketRow]{}, err
	}
	total := decimal.Zero
	for _, b := range buckets {
		total = total.Add(b.Amount)
	}
	rows := make([]BucketRow, 0, len(buckets))
	for _, b := range buckets {
		b.Share = share(b.Amount, total)
		rows = append(rows, b)
	}
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].Amount.Equal(rows[j].Amount) {
			return rows[i].Amount.GreaterThan(rows[j].Amount)
		}
		return rows[i].Bucket < rows[j].Bucket
	})
	return Summary[BucketRow]{DateFrom: from, DateTo: to, Total: total, Rows: rows}, nil
}

func ratio(num, den decimal.Decimal) decimal.Decimal {
	if !den.IsPositive() {
		return decimal.Zero
	}
	return num.DivRound(den, 4)
}

func share(part, total decimal.Decimal) decimal.Decimal {
	if !total.IsPositive() {
		return decimal.Zero
	}
	return part.Div(total).Mul(hundred).Round(2)
}
