// Package analysis holds the analytical services: cost-volume-profit,
// product ABC classification, and period comparison.
package analysis

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bistrohq/bistroboard/internal/scope"
	"github.com/bistrohq/bistroboard/internal/shared"
)

var hundred = decimal.NewFromInt(100)

// CostSplit is the fixed/variable cost split for a period. Variable
// cost already includes material cost from the snapshot.
type CostSplit struct {
	Revenue      decimal.Decimal
	VariableCost decimal.Decimal
	FixedCost    decimal.Decimal
}

// CVPResult is the cost-volume-profit breakdown for a period.
type CVPResult struct {
	DateFrom time.Time `json:"date_from"`
	DateTo   time.Time `json:"date_to"`

	Revenue      decimal.Decimal `json:"revenue"`
	VariableCost decimal.Decimal `json:"variable_cost"`
	FixedCost    decimal.Decimal `json:"fixed_cost"`

	ContributionMargin      decimal.Decimal `json:"contribution_margin"`
	ContributionMarginRatio decimal.Decimal `json:"contribution_margin_ratio"`
	BreakEvenRevenue        decimal.Decimal `json:"break_even_revenue"`
	SafetyMargin            decimal.Decimal `json:"safety_margin"`
	SafetyMarginRatio       decimal.Decimal `json:"safety_margin_ratio"`
	OperatingProfit         decimal.Decimal `json:"operating_profit"`
	OperatingLeverage       decimal.Decimal `json:"operating_leverage"`
}

// SimulationInput is one what-if adjustment, in percent deltas.
type SimulationInput struct {
	RevenueDeltaPct      decimal.Decimal `json:"revenue_delta_pct"`
	VariableCostDeltaPct decimal.Decimal `json:"variable_cost_delta_pct"`
	FixedCostDeltaPct    decimal.Decimal `json:"fixed_cost_delta_pct"`
}

// ComputeCVP derives the full cost-volume-profit breakdown from an
// aggregated revenue/cost split.
func ComputeCVP(split CostSplit) CVPResult {
	cm := split.Revenue.Sub(split.VariableCost)
	res := CVPResult{
		Revenue:            split.Revenue,
		VariableCost:       split.VariableCost,
		FixedCost:          split.FixedCost,
		ContributionMargin: cm,
		OperatingProfit:    cm.Sub(split.FixedCost),
	}
	if split.Revenue.IsPositive() {
		res.ContributionMarginRatio = cm.DivRound(split.Revenue, 4)
	}
	// Break-even revenue = fixed cost / contribution margin ratio. With
	// a non-positive margin the business cannot break even at any
	// volume, so the field stays zero.
	if res.ContributionMarginRatio.IsPositive() {
		res.BreakEvenRevenue = split.FixedCost.DivRound(res.ContributionMarginRatio, 2)
	}
	if res.BreakEvenRevenue.IsPositive() && split.Revenue.IsPositive() {
		res.SafetyMargin = split.Revenue.Sub(res.BreakEvenRevenue)
		res.SafetyMarginRatio = res.SafetyMargin.DivRound(split.Revenue, 4)
	}
	if !res.OperatingProfit.IsZero() {
		res.OperatingLeverage = cm.DivRound(res.OperatingProfit, 4)
	}
	return res
}

// SimulateCVP applies percent deltas to the split and recomputes.
func SimulateCVP(split CostSplit, in SimulationInput) CVPResult {
	adjusted := CostSplit{
		Revenue:      applyDelta(split.Revenue, in.RevenueDeltaPct),
		VariableCost: applyDelta(split.VariableCost, in.VariableCostDeltaPct),
		FixedCost:    applyDelta(split.FixedCost, in.FixedCostDeltaPct),
	}
	return ComputeCVP(adjusted)
}

func applyDelta(v, pct decimal.Decimal) decimal.Decimal {
	return v.Add(v.Mul(pct).Div(hundred)).Round(2)
}

// CostSplitSource loads the aggregated split; satisfied by *Repository.
type CostSplitSource interface {
	CostSplit(ctx context.Context, from, to time.Time, stores *scope.StoreSet) (CostSplit, error)
}

// ScopeGuard is the data-scope surface; satisfied by *scope.Service.
type ScopeGuard interface {
	FilterRequestedStore(ctx context.Context, user *shared.Principal, requested *int64) (*scope.StoreSet, error)
}

// CVPService runs cost-volume-profit analysis over a period.
type CVPService struct {
	source CostSplitSource
	scope  ScopeGuard
}

// NewCVPService builds the service.
func NewCVPService(source CostSplitSource, scopeSvc ScopeGuard) *CVPService {
	return &CVPService{source: source, scope: scopeSvc}
}

// Analyze computes the CVP breakdown for the period.
func (s *CVPService) Analyze(ctx context.Context, user *shared.Principal, from, to time.Time, storeID *int64) (CVPResult, error) {
	stores, err := s.scope.FilterRequestedStore(ctx, user, storeID)
	if err != nil {
		return CVPResult{}, err
	}
	split, err := s.source.CostSplit(ctx, from, to, stores)
	if err != nil {
		return CVPResult{}, err
	}
	res := ComputeCVP(split)
	res.DateFrom, res.DateTo = from, to
	return res, nil
}

// Simulate computes the CVP breakdown under a what-if adjustment.
func (s *CVPService) Simulate(ctx context.Context, user *shared.Principal, from, to time.Time, storeID *int64, in SimulationInput) (CVPResult, error) {
	stores, err := s.scope.FilterRequestedStore(ctx, user, storeID)
	if err != nil {
		return CVPResult{}, err
	}
	split, err := s.source.CostSplit(ctx, from, to, stores)
	if err != nil {
		return CVPResult{}, err
	}
	res := SimulateCVP(split, in)
	res.DateFrom, res.DateTo = from, to
	return res, nil
}
