// Package kpi recomputes the daily per-store KPI snapshot from raw
// orders and expenses. The snapshot is derived state: this package is
// its sole writer, every report is a pure reader.
package kpi

import (
	"time"

	"github.com/shopspring/decimal"
)

// Cost buckets an expense type can map into. Anything unmapped
// accumulates into BucketOther.
const (
	BucketMaterial  = "material"
	BucketLabor     = "labor"
	BucketRent      = "rent"
	BucketUtilities = "utilities"
	BucketMarketing = "marketing"
	BucketOther     = "other"
)

// Order channels tracked in the snapshot's revenue split.
const (
	ChannelDineIn   = "dine_in"
	ChannelTakeout  = "takeout"
	ChannelDelivery = "delivery"
	ChannelOnline   = "online"
)

// Snapshot is one kpi_daily_store row, unique on (biz_date, store_id).
type Snapshot struct {
	BizDate time.Time `json:"biz_date"`
	StoreID int64     `json:"store_id"`

	Revenue        decimal.Decimal `json:"revenue"`
	RefundAmount   decimal.Decimal `json:"refund_amount"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	NetRevenue     decimal.Decimal `json:"net_revenue"`

	CostTotal     decimal.Decimal `json:"cost_total"`
	CostMaterial  decimal.Decimal `json:"cost_material"`
	CostLabor     decimal.Decimal `json:"cost_labor"`
	CostRent      decimal.Decimal `json:"cost_rent"`
	CostUtilities decimal.Decimal `json:"cost_utilities"`
	CostMarketing decimal.Decimal `json:"cost_marketing"`
	CostOther     decimal.Decimal `json:"cost_other"`

	GrossProfit     decimal.Decimal `json:"gross_profit"`
	OperatingProfit decimal.Decimal `json:"operating_profit"`
	ProfitRate      decimal.Decimal `json:"profit_rate"`

	OrderCount    int             `json:"order_count"`
	CustomerCount int             `json:"customer_count"`
	AvgOrderValue decimal.Decimal `json:"avg_order_value"`

	DineInRevenue   decimal.Decimal `json:"dine_in_revenue"`
	TakeoutRevenue  decimal.Decimal `json:"takeout_revenue"`
	DeliveryRevenue decimal.Decimal `json:"delivery_revenue"`
	OnlineRevenue   decimal.Decimal `json:"online_revenue"`
}

// OrderStats is the single-pass aggregate over completed orders for one
// (store, date).
type OrderStats struct {
	GrossRevenue    decimal.Decimal
	DiscountAmount  decimal.Decimal
	RefundAmount    decimal.Decimal
	NetRevenue      decimal.Decimal
	OrderCount      int
	DineInRevenue   decimal.Decimal
	TakeoutRevenue  decimal.Decimal
	DeliveryRevenue decimal.Decimal
	OnlineRevenue   decimal.Decimal
}

// CostStats maps cost bucket name to the summed approved/paid expense
// amount for one (store, date).
type CostStats map[string]decimal.Decimal

// Bucket returns the amount for a bucket, zero when absent.
func (c CostStats) Bucket(name string) decimal.Decimal {
	if v, ok := c[name]; ok {
		return v
	}
	return decimal.Zero
}

// RebuildResult reports what a rebuild touched.
type RebuildResult struct {
	DatesAffected  int `json:"dates_affected"`
	StoresAffected int `json:"stores_affected"`
	RowsWritten    int `json:"rows_written"`
}

// TrendPoint is one date of the aggregated daily trend.
type TrendPoint struct {
	Date       time.Time       `json:"date"`
	Revenue    decimal.Decimal `json:"revenue"`
	Cost       decimal.Decimal `json:"cost"`
	Profit     decimal.Decimal `json:"profit"`
	OrderCount int             `json:"order_count"`
}

// StoreTotals is one store's aggregate over a date range.
type StoreTotals struct {
	StoreID    int64           `json:"store_id"`
	StoreCode  string          `json:"store_code"`
	StoreName  string          `json:"store_name"`
	Revenue    decimal.Decimal `json:"revenue"`
	Cost       decimal.Decimal `json:"cost"`
	Profit     decimal.Decimal `json:"profit"`
	ProfitRate decimal.Decimal `json:"profit_rate"`
}
