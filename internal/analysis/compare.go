package analysis

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bistrohq/bistroboard/internal/scope"
	"github.com/bistrohq/bistroboard/internal/shared"
)

// Comparison modes.
const (
	ModeYoY    = "yoy"
	ModeMoM    = "mom"
	ModeCustom = "custom"
)

// PeriodTotals is the aggregate of one period.
type PeriodTotals struct {
	DateFrom   time.Time       `json:"date_from"`
	DateTo     time.Time       `json:"date_to"`
	Revenue    decimal.Decimal `json:"revenue"`
	Cost       decimal.Decimal `json:"cost"`
	Profit     decimal.Decimal `json:"profit"`
	OrderCount int             `json:"order_count"`
}

// GrowthRates holds period-over-period growth percentages.
type GrowthRates struct {
	Revenue    decimal.Decimal `json:"revenue"`
	Cost       decimal.Decimal `json:"cost"`
	Profit     decimal.Decimal `json:"profit"`
	OrderCount decimal.Decimal `json:"order_count"`
}

// ComparisonResult pairs the current and base periods.
type ComparisonResult struct {
	Mode    string       `json:"mode"`
	Current PeriodTotals `json:"current"`
	Base    PeriodTotals `json:"base"`
	Growth  GrowthRates  `json:"growth"`
}

// basePeriod derives the comparison window for a mode. YoY shifts the
// range back one year, MoM back one calendar month, both clamping to
// the shorter month's end (Mar 31 compares against Feb 28 or 29).
func basePeriod(mode string, from, to time.Time) (time.Time, time.Time, error) {
	switch mode {
	case ModeYoY:
		return shiftMonths(from, -12), shiftMonths(to, -12), nil
	case ModeMoM:
		return shiftMonths(from, -1), shiftMonths(to, -1), nil
	default:
		return time.Time{}, time.Time{}, fmt.Errorf("analysis: unknown comparison mode %q", mode)
	}
}

// shiftMonths moves t by n calendar months, clamping the day to the
// last day of the target month. AddDate alone normalizes overflow
// (Mar 31 minus one month would become Mar 2 or 3).
func shiftMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m, 1, 0, 0, 0, 0, t.Location()).AddDate(0, n, 0)
	if last := first.AddDate(0, 1, -1).Day(); d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, 0, 0, 0, 0, t.Location())
}

// growthPct returns (current-base)/|base| * 100, zero when base is zero.
func growthPct(current, base decimal.Decimal) decimal.Decimal {
	if base.IsZero() {
		return decimal.Zero
	}
	return current.Sub(base).Div(base.Abs()).Mul(hundred).Round(2)
}

// computeGrowth derives all growth rates between two periods.
func computeGrowth(current, base PeriodTotals) GrowthRates {
	return GrowthRates{
		Revenue:    growthPct(current.Revenue, base.Revenue),
		Cost:       growthPct(current.Cost, base.Cost),
		Profit:     growthPct(current.Profit, base.Profit),
		OrderCount: growthPct(decimal.NewFromInt(int64(current.OrderCount)), decimal.NewFromInt(int64(base.OrderCount))),
	}
}

// TotalsSource loads one period's aggregate; satisfied by *Repository.
type TotalsSource interface {
	PeriodTotals(ctx context.Context, from, to time.Time, stores *scope.StoreSet) (PeriodTotals, error)
}

// CompareService runs period-over-period comparisons.
type CompareService struct {
	source TotalsSource
	scope  ScopeGuard
}

// NewCompareService builds the service.
func NewCompareService(source TotalsSource, scopeSvc ScopeGuard) *CompareService {
	return &CompareService{source: source, scope: scopeSvc}
}

// Compare aggregates the current window and its derived base window.
func (s *CompareService) Compare(ctx context.Context, user *shared.Principal, mode string, from, to time.Time, storeID *int64) (ComparisonResult, error) {
	baseFrom, baseTo, err := basePeriod(mode, from, to)
	if err != nil {
		return ComparisonResult{}, err
	}
	return s.compare(ctx, user, mode, from, to, baseFrom, baseTo, storeID)
}

// CompareCustom aggregates two explicit windows.
func (s *CompareService) CompareCustom(ctx context.Context, user *shared.Principal, from, to, baseFrom, baseTo time.Time, storeID *int64) (ComparisonResult, error) {
	return s.compare(ctx, user, ModeCustom, from, to, baseFrom, baseTo, storeID)
}

func (s *CompareService) compare(ctx context.Context, user *shared.Principal, mode string, from, to, baseFrom, baseTo time.Time, storeID *int64) (ComparisonResult, error) {
	stores, err := s.scope.FilterRequestedStore(ctx, user, storeID)
	if err != nil {
		return ComparisonResult{}, err
	}
	current, err := s.source.PeriodTotals(ctx, from, to, stores)
	if err != nil {
		return ComparisonResult{}, err
	}
	base, err := s.source.PeriodTotals(ctx, baseFrom, baseTo, stores)
	if err != nil {
		return ComparisonResult{}, err
	}
	current.DateFrom, current.DateTo = from, to
	base.DateFrom, base.DateTo = baseFrom, baseTo
	return ComparisonResult{
		Mode:    mode,
		Current: current,
		Base:    base,
		Growth:  computeGrowth(current, base),
	}, nil
}
