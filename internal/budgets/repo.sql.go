package budgets

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/bistrohq/bistroboard/internal/platform/db"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListMonth returns every budget entry for (store, year, month).
func (r *Repository) ListMonth(ctx context.Context, storeID int64, year, month int) ([]Entry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT b.id, b.store_id, b.year, b.month, b.expense_type_id, et.name, b.amount, b.created_at, b.updated_at
		 FROM budget b JOIN expense_type et ON et.id = b.expense_type_id
		 WHERE b.store_id = $1 AND b.year = $2 AND b.month = $3
		 ORDER BY b.expense_type_id`,
		storeID, year, month)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.StoreID, &e.Year, &e.Month, &e.ExpenseTypeID,
			&e.TypeName, &e.Amount, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ReplaceMonth upserts the given items for (store, year, month) in one
// transaction, keyed on the (store_id, year, month, expense_type_id)
// uniqueness constraint.
func (r *Repository) ReplaceMonth(ctx context.Context, storeID int64, year, month int, items []BatchItem) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		for _, it := range items {
			if _, err := tx.Exec(ctx,
				`INSERT INTO budget (store_id, year, month, expense_type_id, amount, created_at, updated_at)
				 VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
				 ON CONFLICT (store_id, year, month, expense_type_id)
				 DO UPDATE SET amount = EXCLUDED.amount, updated_at = NOW()`,
				storeID, year, month, it.ExpenseTypeID, it.Amount); err != nil {
				return err
			}
		}
		return nil
	})
}

// BudgetByType returns the budgeted amount per expense type for the month.
func (r *Repository) BudgetByType(ctx context.Context, storeID int64, year, month int) (map[int64]TypeAmount, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT b.expense_type_id, et.name, b.amount
		 FROM budget b JOIN expense_type et ON et.id = b.expense_type_id
		 WHERE b.store_id = $1 AND b.year = $2 AND b.month = $3`,
		storeID, year, month)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTypeAmounts(rows)
}

// ActualByType returns the approved/paid spend per expense type for the
// month.
func (r *Repository) ActualByType(ctx context.Context, storeID int64, year, month int) (map[int64]TypeAmount, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT er.expense_type_id, et.name, SUM(er.amount)
		 FROM expense_record er JOIN expense_type et ON et.id = er.expense_type_id
		 WHERE er.store_id = $1
		   AND EXTRACT(YEAR FROM er.biz_date) = $2
		   AND EXTRACT(MONTH FROM er.biz_date) = $3
		   AND er.status IN ('approved', 'paid')
		   AND NOT er.is_deleted
		 GROUP BY er.expense_type_id, et.name`,
		storeID, year, month)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTypeAmounts(rows)
}

func collectTypeAmounts(rows pgx.Rows) (map[int64]TypeAmount, error) {
	out := make(map[int64]TypeAmount)
	for rows.Next() {
		var id int64
		var name string
		var amount decimal.Decimal
		if err := rows.Scan(&id, &name, &amount); err != nil {
			return nil, err
		}
		out[id] = TypeAmount{Name: name, Amount: amount}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
