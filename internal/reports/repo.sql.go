package reports

import (
	"context"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/bistrohq/bistroboard/internal/scope"
)

// Repository issues the grouped aggregate queries over the snapshot.
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

// Daily returns per-date sums over the snapshot.
func (r *Repository) Daily(ctx context.Context, from, to time.Time, stores *scope.StoreSet) ([]DailyRow, error) {
	query := `
		SELECT biz_date, SUM(net_revenue), SUM(cost_total), SUM(operating_profit), SUM(order_count)
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
	var out []DailyRow
	for rows.Next() {
		var row DailyRow
		if err := rows.Scan(&row.Date, &row.Revenue, &row.Cost, &row.Profit, &row.OrderCount); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Monthly returns per-month sums over the snapshot for one year.
func (r *Repository) Monthly(ctx context.Context, year int, stores *scope.StoreSet) ([]MonthlyRow, error) {
	query := `
		SELECT EXTRACT(MONTH FROM biz_date)::int, SUM(net_revenue), SUM(cost_total), SUM(operating_profit), SUM(order_count)
		FROM kpi_daily_store
		WHERE EXTRACT(YEAR FROM biz_date) = $1`
	args := []any{year}
	query, args = appendStoreClause(query, stores, args, "store_id")
	query += ` GROUP BY 1 ORDER BY 1`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []MonthlyRow
	for rows.Next() {
		row := MonthlyRow{Year: year}
		if err := rows.Scan(&row.Month, &row.Revenue, &row.Cost, &row.Profit, &row.OrderCount); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ByStore returns per-store sums over the snapshot, revenue descending.
func (r *Repository) ByStore(ctx context.Context, from, to time.Time, stores *scope.StoreSet) ([]StoreRow, error) {
	query := `
		SELECT k.store_id, s.code, s.name, SUM(k.net_revenue), SUM(k.cost_total), SUM(k.operating_profit), SUM(k.order_count)
		FROM kpi_daily_store k
		JOIN store s ON s.id = k.store_id
		WHERE k.biz_date >= $1 AND k.biz_date <= $2`
	args := []any{from, to}
	query, args = appendStoreClause(query, stores, args, "k.store_id")
	query += ` GROUP BY k.store_id, s.code, s.name ORDER BY SUM(k.net_revenue) DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []StoreRow
	for rows.Next() {
		var row StoreRow
		if err := rows.Scan(&row.StoreID, &row.StoreCode, &row.StoreName,
			&row.Revenue, &row.Cost, &row.Profit, &row.OrderCount); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Buckets returns the summed cost buckets over the snapshot.
func (r *Repository) Buckets(ctx context.Context, from, to time.Time, stores *scope.StoreSet) (map[string]BucketRow, error) {
	query := `
		SELECT SUM(cost_material), SUM(cost_labor), SUM(cost_rent), SUM(cost_utilities), SUM(cost_marketing), SUM(cost_other)
		FROM kpi_daily_store
		WHERE biz_date >= $1 AND biz_date <= $2`
	args := []any{from, to}
	query, args = appendStoreClause(query, stores, args, "store_id")

	var material, labor, rent, utilities, marketing, other decimal.NullDecimal
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&material, &labor, &rent, &utilities, &marketing, &other); err != nil {
		return nil, err
	}
	return map[string]BucketRow{
		"material":  {Bucket: "material", Amount: material.Decimal},
		"labor":     {Bucket: "labor", Amount: labor.Decimal},
		"rent":      {Bucket: "rent", Amount: rent.Decimal},
		"utilities": {Bucket: "utilities", Amount: utilities.Decimal},
		"marketing": {Bucket: "marketing", Amount: marketing.Decimal},
		"other":     {Bucket: "other", Amount: other.Decimal},
	}, nil
}
