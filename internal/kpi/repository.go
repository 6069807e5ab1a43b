package kpi

import (
	"context"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/bistrohq/bistroboard/internal/scope"
)

// PGRepository provides PostgreSQL backed persistence.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// ActiveStoreIDs returns active store ids, optionally narrowed to one.
func (r *PGRepository) ActiveStoreIDs(ctx context.Context, storeID *int64) ([]int64, error) {
	query := `SELECT id FROM store WHERE status = 'active'`
	args := []any{}
	if storeID != nil {
		query += ` AND id = $1`
		args = append(args, *storeID)
	}
	query += ` ORDER BY id`
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

// AggregateOrders sums completed orders for one (store, date) in a
// single pass, with the channel split computed via filtered sums.
func (r *PGRepository) AggregateOrders(ctx context.Context, storeID int64, bizDate time.Time) (OrderStats, error) {
	const query = `
		SELECT
			COALESCE(SUM(gross_amount) FILTER (WHERE status = 'completed'), 0),
			COALESCE(SUM(discount_amount) FILTER (WHERE status = 'completed'), 0),
			COALESCE(SUM(net_amount) FILTER (WHERE status = 'refunded'), 0),
			COALESCE(SUM(net_amount) FILTER (WHERE status = 'completed'), 0),
			COUNT(*) FILTER (WHERE status = 'completed'),
			COALESCE(SUM(net_amount) FILTER (WHERE status = 'completed' AND channel = 'dine_in'), 0),
			COALESCE(SUM(net_amount) FILTER (WHERE status = 'completed' AND channel = 'takeout'), 0),
			COALESCE(SUM(net_amount) FILTER (WHERE status = 'completed' AND channel = 'delivery'), 0),
			COALESCE(SUM(net_amount) FILTER (WHERE status = 'completed' AND channel = 'online'), 0)
		FROM order_header
		WHERE store_id = $1 AND biz_date = $2`
	var stats OrderStats
	err := r.pool.QueryRow(ctx, query, storeID, bizDate).Scan(
		&stats.GrossRevenue,
		&stats.DiscountAmount,
		&stats.RefundAmount,
		&stats.NetRevenue,
		&stats.OrderCount,
		&stats.DineInRevenue,
		&stats.TakeoutRevenue,
		&stats.DeliveryRevenue,
		&stats.OnlineRevenue,
	)
	return stats, err
}

// AggregateExpenses sums approved/paid expenses for one (store, date)
// grouped by the expense type's cost bucket mapping.
func (r *PGRepository) AggregateExpenses(ctx context.Context, storeID int64, bizDate time.Time) (CostStats, error) {
	const query = `
		SELECT et.kpi_mapping, SUM(er.amount)
		FROM expense_record er
		JOIN expense_type et ON et.id = er.expense_type_id
		WHERE er.store_id = $1
		  AND er.biz_date = $2
		  AND er.status IN ('approved', 'paid')
		  AND NOT er.is_deleted
		GROUP BY et.kpi_mapping`
	rows, err := r.pool.Query(ctx, query, storeID, bizDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	costs := CostStats{}
	known := map[string]struct{}{
		BucketMaterial: {}, BucketLabor: {}, BucketRent: {},
		BucketUtilities: {}, BucketMarketing: {}, BucketOther: {},
	}
	for rows.Next() {
		var bucket string
		var amount decimal.Decimal
		if err := rows.Scan(&bucket, &amount); err != nil {
			return nil, err
		}
		if _, ok := known[bucket]; !ok {
			bucket = BucketOther
		}
		costs[bucket] = costs[bucket].Add(amount)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return costs, nil
}

// UpsertSnapshot writes the full row, replacing every field of any
// existing (biz_date, store_id) row. The unique constraint is the only
// concurrency guard; overlapping rebuilds are last-writer-wins.
func (r *PGRepository) UpsertSnapshot(ctx context.Context, snap Snapshot) error {
	const query = `
		INSERT INTO kpi_daily_store (
			biz_date, store_id,
			revenue, refund_amount, discount_amount, net_revenue,
			cost_total, cost_material, cost_labor, cost_rent, cost_utilities, cost_marketing, cost_other,
			gross_profit, operating_profit, profit_rate,
			order_count, customer_count, avg_order_value,
			dine_in_revenue, takeout_revenue, delivery_revenue, online_revenue,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
			$14, $15, $16, $17, $18, $19, $20, $21, $22, $23, NOW(), NOW()
		)
		ON CONFLICT (biz_date, store_id) DO UPDATE SET
			revenue = EXCLUDED.revenue,
			refund_amount = EXCLUDED.refund_amount,
			discount_amount = EXCLUDED.discount_amount,
			net_revenue = EXCLUDED.net_revenue,
			cost_total = EXCLUDED.cost_total,
			cost_material = EXCLUDED.cost_material,
			cost_labor = EXCLUDED.cost_labor,
			cost_rent = EXCLUDED.cost_rent,
			cost_utilities = EXCLUDED.cost_utilities,
			cost_marketing = EXCLUDED.cost_marketing,
			cost_other = EXCLUDED.cost_other,
			gross_profit = EXCLUDED.gross_profit,
			operating_profit = EXCLUDED.operating_profit,
			profit_rate = EXCLUDED.profit_rate,
			order_count = EXCLUDED.order_count,
			customer_count = EXCLUDED.customer_count,
			avg_order_value = EXCLUDED.avg_order_value,
			dine_in_revenue = EXCLUDED.dine_in_revenue,
			takeout_revenue = EXCLUDED.takeout_revenue,
			delivery_revenue = EXCLUDED.delivery_revenue,
			online_revenue = EXCLUDED.online_revenue,
			updated_at = NOW()`
	_, err := r.pool.Exec(ctx, query,
		snap.BizDate, snap.StoreID,
		snap.Revenue, snap.RefundAmount, snap.DiscountAmount, snap.NetRevenue,
		snap.CostTotal, snap.CostMaterial, snap.CostLabor, snap.CostRent, snap.CostUtilities, snap.CostMarketing, snap.CostOther,
		snap.GrossProfit, snap.OperatingProfit, snap.ProfitRate,
		snap.OrderCount, snap.CustomerCount, snap.AvgOrderValue,
		snap.DineInRevenue, snap.TakeoutRevenue, snap.DeliveryRevenue, snap.OnlineRevenue,
	)
	return err
}

// storeFilter appends an optional store_id IN (...) clause for a
// resolved scope. A nil set adds no clause.
func storeFilter(query string, stores *scope.StoreSet, args []any) (string, []any) {
	if stores == nil {
		return query, args
	}
	args = append(args, stores.IDs())
	return query + " AND store_id = ANY($" + strconv.Itoa(len(args)) + ")", args
}

// DailyTrend aggregates the snapshot by date for line charts.
func (r *PGRepository) DailyTrend(ctx context.Context, from, to time.Time, stores *scope.StoreSet) ([]TrendPoint, error) {
	query := `
		SELECT biz_date, SUM(net_revenue), SUM(cost_total), SUM(operating_profit), SUM(order_count)
		FROM kpi_daily_store
		WHERE biz_date >= $1 AND biz_date <= $2`
	args := []any{from, to}
	query, args = storeFilter(query, stores, args)
	query += ` GROUP BY biz_date ORDER BY biz_date`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var points []TrendPoint
	for rows.Next() {
		var p TrendPoint
		if err := rows.Scan(&p.Date, &p.Revenue, &p.Cost, &p.Profit, &p.OrderCount); err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return points, nil
}

// StoreComparison aggregates the snapshot by store for bar charts,
// ordered by revenue descending.
func (r *PGRepository) StoreComparison(ctx context.Context, from, to time.Time, stores *scope.StoreSet) ([]StoreTotals, error) {
	query := `
		SELECT k.store_id, s.code, s.name, SUM(k.net_revenue), SUM(k.cost_total), SUM(k.operating_profit)
		FROM kpi_daily_store k
		JOIN store s ON s.id = k.store_id
		WHERE k.biz_date >= $1 AND k.biz_date <= $2`
	args := []any{from, to}
	if stores != nil {
		args = append(args, stores.IDs())
		query += ` AND k.store_id = ANY($3)`
	}
	query += ` GROUP BY k.store_id, s.code, s.name ORDER BY SUM(k.net_revenue) DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var totals []StoreTotals
	for rows.Next() {
		var t StoreTotals
		if err := rows.Scan(&t.StoreID, &t.StoreCode, &t.StoreName, &t.Revenue, &t.Cost, &t.Profit); err != nil {
			return nil, err
		}
		if t.Revenue.IsPositive() {
			t.ProfitRate = t.Profit.DivRound(t.Revenue, 4)
		}
		totals = append(totals, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return totals, nil
}
