package analysis

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bistrohq/bistroboard/internal/scope"
	"github.com/bistrohq/bistroboard/internal/shared"
)

// ABC cumulative revenue share thresholds.
var (
	classAThreshold = decimal.RequireFromString("70")
	classBThreshold = decimal.RequireFromString("90")
)

// ProductSales is one product's aggregated sales over a period.
type ProductSales struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"product_name"`
	Category  string          `json:"category,omitempty"`
	Quantity  int             `json:"quantity"`
	Revenue   decimal.Decimal `json:"revenue"`
}

// ABCRow extends ProductSales with ranking and classification.
type ABCRow struct {
	ProductSales
	Rank            int             `json:"rank"`
	RevenueShare    decimal.Decimal `json:"revenue_share"`
	CumulativeShare decimal.Decimal `json:"cumulative_share"`
	Class           string          `json:"class"`
}

// CategoryRow is one category of the distribution.
type CategoryRow struct {
	Category string          `json:"category"`
	Revenue  decimal.Decimal `json:"revenue"`
	Share    decimal.Decimal `json:"share"`
}

// ABCResult is the complete product analysis for a period.
type ABCResult struct {
	DateFrom     time.Time       `json:"date_from"`
	DateTo       time.Time       `json:"date_to"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
	Products     []ABCRow        `json:"products"`
	Categories   []CategoryRow   `json:"categories"`
}

// ClassifyABC ranks products by revenue descending and buckets them by
// cumulative revenue share: 70% and under is A, 90% and under is B,
// the tail is C.
func ClassifyABC(sales []ProductSales) []ABCRow {
	sorted := make([]ProductSales, len(sales))
	copy(sorted, sales)
	sort.Slice(sorted, func(i, j int) bool {
		if !sorted[i].Revenue.Equal(sorted[j].Revenue) {
			return sorted[i].Revenue.GreaterThan(sorted[j].Revenue)
		}
		return sorted[i].ProductID < sorted[j].ProductID
	})

	total := decimal.Zero
	for _, p := range sorted {
		total = total.Add(p.Revenue)
	}

	rows := make([]ABCRow, 0, len(sorted))
	cumulative := decimal.Zero
	for i, p := range sorted {
		row := ABCRow{ProductSales: p, Rank: i + 1}
		if total.IsPositive() {
			row.RevenueShare = p.Revenue.Div(total).Mul(hundred).Round(2)
			cumulative = cumulative.Add(p.Revenue)
			row.CumulativeShare = cumulative.Div(total).Mul(hundred).Round(2)
		}
		switch {
		case row.CumulativeShare.LessThanOrEqual(classAThreshold):
			row.Class = "A"
		case row.CumulativeShare.LessThanOrEqual(classBThreshold):
			row.Class = "B"
		default:
			row.Class = "C"
		}
		rows = append(rows, row)
	}
	return rows
}

// categoryDistribution groups sales by category with revenue shares.
func categoryDistribution(sales []ProductSales) []CategoryRow {
	total := decimal.Zero
	byCategory := make(map[string]decimal.Decimal)
	for _, p := range sales {
		cat := p.Category
		if cat == "" {
			cat = "uncategorized"
		}
		byCategory[cat] = byCategory[cat].Add(p.Revenue)
		total = total.Add(p.Revenue)
	}
	rows := make([]CategoryRow, 0, len(byCategory))
	for cat, rev := range byCategory {
		row := CategoryRow{Category: cat, Revenue: rev}
		if total.IsPositive() {
			row.Share = rev.Div(total).Mul(hundred).Round(2)
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].Revenue.Equal(rows[j].Revenue) {
			return rows[i].Revenue.GreaterThan(rows[j].Revenue)
		}
		return rows[i].Category < rows[j].Category
	})
	return rows
}

// ProductSalesSource loads per-product sales; satisfied by *Repository.
type ProductSalesSource interface {
	ProductSales(ctx context.Context, from, to time.Time, stores *scope.StoreSet) ([]ProductSales, error)
}

// ABCService runs the product ranking and classification.
type ABCService struct {
	source ProductSalesSource
	scope  ScopeGuard
}

// NewABCService builds the service.
func NewABCService(source ProductSalesSource, scopeSvc ScopeGuard) *ABCService {
	return &ABCService{source: source, scope: scopeSvc}
}

// Analyze ranks and classifies products sold in the period.
func (s *ABCService) Analyze(ctx context.Context, user *shared.Principal, from, to time.Time, storeID *int64) (ABCResult, error) {
	stores, err := s.scope.FilterRequestedStore(ctx, user, storeID)
	if err != nil {
		return ABCResult{}, err
	}
	sales, err := s.source.ProductSales(ctx, from, to, stores)
	if err != nil {
		return ABCResult{}, err
	}
	total := decimal.Zero
	for _, p := range sales {
		total = total.Add(p.Revenue)
	}
	return ABCResult{
		DateFrom:     from,
		DateTo:       to,
		TotalRevenue: total,
		Products:     ClassifyABC(sales),
		Categories:   categoryDistribution(sales),
	}, nil
}
