package dashboard

import (
	"context"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/bistrohq/bistroboard/internal/scope"
)

// Repository issues the snapshot aggregates behind the overview.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func appendStoreClause(query string, stores *scope.StoreSet, args []any, column string) (string, []any) {
	if stores == nil {
		return query, args
	}
	args = append(args, stores.IDs())
	return query + " AND " + column + " = ANY($" + strconv.Itoa(len(args)) + ")", args
}

// Totals aggregates one window.
func (r *Repository) Totals(ctx context.Context, from, to time.Time, stores *scope.StoreSet) (Totals, error) {
	query := `
		SELECT COALESCE(SUM(net_revenue), 0), COALESCE(SUM(cost_total), 0), COALESCE(SUM(operating_profit), 0), COALESCE(SUM(order_count), 0)
		FROM kpi_daily_store
		WHERE biz_date >= $1 AND biz_date <= $2`
	args := []any{from, to}
	query, args = appendStoreClause(query, stores, args, "store_id")

	var t Totals
	err := r.pool.QueryRow(ctx, query, args...).Scan(&t.Revenue, &t.Cost, &t.Profit, &t.OrderCount)
	return t, err
}

// Trend returns the per-date revenue/profit series.
func (r *Repository) Trend(ctx context.Context, from, to time.Time, stores *scope.StoreSet) ([]TrendPoint, error) {
	query := `
		SELECT biz_date, SUM(net_revenue), SUM(operating_profit)
		FROM kpi_daily_store
		WHERE biz_date >= $1 AND biz_date <= $2`
	args := []any{from, to}
	query, args = appendStoreClause(query, stores, args, "store_id")
	query += ` GROUP BY biz_date ORDER BY biz_date`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []TrendPoint
	for rows.Next() {
		var p TrendPoint
		if err := rows.Scan(&p.Date, &p.Revenue, &p.Profit); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// StoreRanking returns the top stores by revenue.
func (r *Repository) StoreRanking(ctx context.Context, from, to time.Time, stores *scope.StoreSet, limit int) ([]StoreRank, error) {
	query := `
		SELECT k.store_id, s.name, SUM(k.net_revenue), SUM(k.operating_profit)
		FROM kpi_daily_store k
		JOIN store s ON s.id = k.store_id
		WHERE k.biz_date >= $1 AND k.biz_date <= $2`
	args := []any{from, to}
	query, args = appendStoreClause(query, stores, args, "k.store_id")
	args = append(args, limit)
	query += ` GROUP BY k.store_id, s.name ORDER BY SUM(k.net_revenue) DESC LIMIT $` + strconv.Itoa(len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []StoreRank
	for rows.Next() {
		var sr StoreRank
		if err := rows.Scan(&sr.StoreID, &sr.StoreName, &sr.Revenue, &sr.Profit); err != nil {
			return nil, err
		}
		out = append(out, sr)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// CostBuckets returns the summed cost buckets as a bucket-name map.
func (r *Repository) CostBuckets(ctx context.Context, from, to time.Time, stores *scope.StoreSet) (map[string]decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(cost_material), 0), COALESCE(SUM(cost_labor), 0), COALESCE(SUM(cost_rent), 0),
		       COALESCE(SUM(cost_utilities), 0), COALESCE(SUM(cost_marketing), 0), COALESCE(SUM(cost_other), 0)
		FROM kpi_daily_store
		WHERE biz_date >= $1 AND biz_date <= $2`
	args := []any{from, to}
	query, args = appendStoreClause(query, stores, args, "store_id")

	var material, labor, rent, utilities, marketing, other decimal.Decimal
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&material, &labor, &rent, &utilities, &marketing, &other); err != nil {
		return nil, err
	}
	return map[string]decimal.Decimal{
		"material":  material,
		"labor":     labor,
		"rent":      rent,
		"utilities": utilities,
		"marketing": marketing,
		"other":     other,
	}, nil
}

// Channels returns the per-channel revenue aggregate.
func (r *Repository) Channels(ctx context.Context, from, to time.Time, stores *scope.StoreSet) (ChannelTotals, error) {
	query := `
		SELECT COALESCE(SUM(dine_in_revenue), 0), COALESCE(SUM(takeout_revenue), 0),
		       COALESCE(SUM(delivery_revenue), 0), COALESCE(SUM(online_revenue), 0)
		FROM kpi_daily_store
		WHERE biz_date >= $1 AND biz_date <= $2`
	args := []any{from, to}
	query, args = appendStoreClause(query, stores, args, "store_id")

	var t ChannelTotals
	err := r.pool.QueryRow(ctx, query, args...).Scan(&t.DineIn, &t.Takeout, &t.Delivery, &t.Online)
	return t, err
}
