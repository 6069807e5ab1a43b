// Package reports serves the read-only summary reports over the daily
// KPI snapshot, plus Excel export of each.
package reports

import (
	"time"

	"github.com/shopspring/decimal"
)

// DailyRow is one date of the daily summary.
type DailyRow struct {
	Date          time.Time       `json:"date"`
	Revenue       decimal.Decimal `json:"revenue"`
	Cost          decimal.Decimal `json:"cost"`
	Profit        decimal.Decimal `json:"profit"`
	ProfitRate    decimal.Decimal `json:"profit_rate"`
	OrderCount    int             `json:"order_count"`
	AvgOrderValue decimal.Decimal `json:"avg_order_value"`
}

// MonthlyRow is one month of the monthly summary.
type MonthlyRow struct {
	Year       int             `json:"year"`
	Month      int             `json:"month"`
	Revenue    decimal.Decimal `json:"revenue"`
	Cost       decimal.Decimal `json:"cost"`
	Profit     decimal.Decimal `json:"profit"`
	ProfitRate decimal.Decimal `json:"profit_rate"`
	OrderCount int             `json:"order_count"`
}

// StoreRow is one store of the performance report.
type StoreRow struct {
	StoreID       int64           `json:"store_id"`
	StoreCode     string          `json:"store_code"`
	StoreName     string          `json:"store_name"`
	Revenue       decimal.Decimal `json:"revenue"`
	Cost          decimal.Decimal `json:"cost"`
	Profit        decimal.Decimal `json:"profit"`
	ProfitRate    decimal.Decimal `json:"profit_rate"`
	OrderCount    int             `json:"order_count"`
	AvgOrderValue decimal.Decimal `json:"avg_order_value"`
	RevenueShare  decimal.Decimal `json:"revenue_share"`
}

// BucketRow is one cost bucket of the expense breakdown.
type BucketRow struct {
	Bucket string          `json:"bucket"`
	Amount decimal.Decimal `json:"amount"`
	Share  decimal.Decimal `json:"share"`
}

// Summary wraps a report with its totals.
type Summary[T any] struct {
	DateFrom time.Time       `json:"date_from"`
	DateTo   time.Time       `json:"date_to"`
	Total    decimal.Decimal `json:"total_revenue"`
	Rows     []T             `json:"rows"`
}
