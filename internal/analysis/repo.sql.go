package analysis

import (
	"context"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/bistrohq/bistroboard/internal/scope"
)

// Repository issues the aggregate queries behind the analyses.
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

// CostSplit aggregates the period's revenue and fixed/variable cost
// split. Material cost comes from the snapshot and is variable by
// definition; the remaining spend splits on each expense type's
// cost_behavior, with material-mapped types excluded to avoid counting
// them twice.
func (r *Repository) CostSplit(ctx context.Context, from, to time.Time, stores *scope.StoreSet) (CostSplit, error) {
	snapQuery := `
		SELECT COALESCE(SUM(net_revenue), 0), COALESCE(SUM(cost_material), 0)
		FROM kpi_daily_store
		WHERE biz_date >= $1 AND biz_date <= $2`
	snapArgs := []any{from, to}
	snapQuery, snapArgs = appendStoreClause(snapQuery, stores, snapArgs, "store_id")

	var split CostSplit
	var material decimal.Decimal
	if err := r.pool.QueryRow(ctx, snapQuery, snapArgs...).Scan(&split.Revenue, &material); err != nil {
		return CostSplit{}, err
	}

	expQuery := `
		SELECT
			COALESCE(SUM(er.amount) FILTER (WHERE et.cost_behavior = 'variable'), 0),
			COALESCE(SUM(er.amount) FILTER (WHERE et.cost_behavior = 'fixed'), 0)
		FROM expense_record er
		JOIN expense_type et ON et.id = er.expense_type_id
		WHERE er.biz_date >= $1 AND er.biz_date <= $2
		  AND er.status IN ('approved', 'paid')
		  AND NOT er.is_deleted
		  AND et.kpi_mapping <> 'material'`
	expArgs := []any{from, to}
	expQuery, expArgs = appendStoreClause(expQuery, stores, expArgs, "er.store_id")

	var variable, fixed decimal.Decimal
	if err := r.pool.QueryRow(ctx, expQuery, expArgs...).Scan(&variable, &fixed); err != nil {
		return CostSplit{}, err
	}

	split.VariableCost = material.Add(variable)
	split.FixedCost = fixed
	return split, nil
}

// ProductSales aggregates completed order lines per product.
func (r *Repository) ProductSales(ctx context.Context, from, to time.Time, stores *scope.StoreSet) ([]ProductSales, error) {
	query := `
		SELECT oi.product_id, MAX(oi.product_name), COALESCE(MAX(p.category), ''), SUM(oi.quantity), SUM(oi.amount)
		FROM order_item oi
		JOIN order_header oh ON oh.id = oi.order_id
		LEFT JOIN product p ON p.id = oi.product_id
		WHERE oh.status = 'completed'
		  AND oh.biz_date >= $1 AND oh.biz_date <= $2`
	args := []any{from, to}
	query, args = appendStoreClause(query, stores, args, "oh.store_id")
	query += ` GROUP BY oi.product_id ORDER BY SUM(oi.amount) DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ProductSales
	for rows.Next() {
		var p ProductSales
		if err := rows.Scan(&p.ProductID, &p.Name, &p.Category, &p.Quantity, &p.Revenue); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// PeriodTotals aggregates the snapshot over one window.
func (r *Repository) PeriodTotals(ctx context.Context, from, to time.Time, stores *scope.StoreSet) (PeriodTotals, error) {
	query := `
		SELECT COALESCE(SUM(net_revenue), 0), COALESCE(SUM(cost_total), 0), COALESCE(SUM(operating_profit), 0), COALESCE(SUM(order_count), 0)
		FROM kpi_daily_store
		WHERE biz_date >= $1 AND biz_date <= $2`
	args := []any{from, to}
	query, args = appendStoreClause(query, stores, args, "store_id")

	var t PeriodTotals
	err := r.pool.QueryRow(ctx, query, args...).Scan(&t.Revenue, &t.Cost, &t.Profit, &t.OrderCount)
	return t, err
}
