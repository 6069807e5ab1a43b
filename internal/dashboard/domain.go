// Package dashboard aggregates the overview screen: summary cards,
// trend, store ranking, expense structure and channel distribution.
package dashboard

import (
	"time"

	"github.com/shopspring/decimal"
)

// Card is one headline figure with growth against the prior period.
type Card struct {
	Value     decimal.Decimal `json:"value"`
	Prior     decimal.Decimal `json:"prior"`
	GrowthPct decimal.Decimal `json:"growth_pct"`
}

// TrendPoint is one date of the overview trend.
type TrendPoint struct {
	Date    time.Time       `json:"date"`
	Revenue decimal.Decimal `json:"revenue"`
	Profit  decimal.Decimal `json:"profit"`
}

// StoreRank is one store of the revenue ranking.
type StoreRank struct {
	StoreID   int64           `json:"store_id"`
	StoreName string          `json:"store_name"`
	Revenue   decimal.Decimal `json:"revenue"`
	Profit    decimal.Decimal `json:"profit"`
}

// CostSlice is one cost bucket of the expense structure.
type CostSlice struct {
	Bucket string          `json:"bucket"`
	Amount decimal.Decimal `json:"amount"`
	Share  decimal.Decimal `json:"share"`
}

// ChannelSlice is one order channel of the revenue distribution.
type ChannelSlice struct {
	Channel string          `json:"channel"`
	Revenue decimal.Decimal `json:"revenue"`
	Share   decimal.Decimal `json:"share"`
}

// Totals is the flat aggregate of one period.
type Totals struct {
	Revenue    decimal.Decimal
	Cost       decimal.Decimal
	Profit     decimal.Decimal
	OrderCount int64
}

// ChannelTotals is the per-channel revenue aggregate of one period.
type ChannelTotals struct {
	DineIn   decimal.Decimal
	Takeout  decimal.Decimal
	Delivery decimal.Decimal
	Online   decimal.Decimal
}

// Overview is the full dashboard payload.
type Overview struct {
	DateFrom time.Time `json:"date_from"`
	DateTo   time.Time `json:"date_to"`

	Revenue    Card `json:"revenue"`
	Cost       Card `json:"cost"`
	Profit     Card `json:"profit"`
	OrderCount Card `json:"order_count"`

	Trend            []TrendPoint   `json:"trend"`
	StoreRanking     []StoreRank    `json:"store_ranking"`
	ExpenseStructure []CostSlice    `json:"expense_structure"`
	Channels         []ChannelSlice `json:"channels"`
}
