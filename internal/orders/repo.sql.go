package orders

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bistrohq/bistroboard/internal/platform/db"
	"github.com/bistrohq/bistroboard/internal/scope"
	"github.com/bistrohq/bistroboard/internal/shared"
)

// ErrOrderNoTaken indicates a duplicate order number within a store.
var ErrOrderNoTaken = errors.New("orders: order number already taken")

const orderColumns = `id, order_no, store_id, biz_date, channel, status, gross_amount, discount_amount, net_amount, remark, created_at, updated_at`

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanOrder(row pgx.Row) (Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.OrderNo, &o.StoreID, &o.BizDate, &o.Channel, &o.Status,
		&o.GrossAmount, &o.DiscountAmount, &o.NetAmount, &o.Remark, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}

// List returns a filtered, paginated page plus the total row count.
// A nil stores set applies no store restriction.
func (r *Repository) List(ctx context.Context, f ListFilters, stores *scope.StoreSet) ([]Order, int, error) {
	where := ` WHERE 1=1`
	args := []any{}
	next := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}
	if stores != nil {
		where += ` AND store_id = ANY(` + next(stores.IDs()) + `)`
	}
	if f.StoreID != nil {
		where += ` AND store_id = ` + next(*f.StoreID)
	}
	if f.Channel != "" {
		where += ` AND channel = ` + next(f.Channel)
	}
	if f.Status != "" {
		where += ` AND status = ` + next(f.Status)
	}
	if f.OrderNo != "" {
		where += ` AND order_no ILIKE ` + next("%"+f.OrderNo+"%")
	}
	if f.DateFrom != nil {
		where += ` AND biz_date >= ` + next(*f.DateFrom)
	}
	if f.DateTo != nil {
		where += ` AND biz_date <= ` + next(*f.DateTo)
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM order_header`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	page := shared.NewPagination(f.Page, f.PerPage, total)
	query := `SELECT ` + orderColumns + ` FROM order_header` + where +
		` ORDER BY biz_date DESC, id DESC LIMIT ` + next(page.PerPage) + ` OFFSET ` + next(page.Offset())
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var out []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// Get fetches one order with its items.
func (r *Repository) Get(ctx context.Context, id int64) (Order, error) {
	o, err := scanOrder(r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM order_header WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, shared.ErrNotFound
	}
	if err != nil {
		return Order{}, err
	}
	items, err := r.itemsFor(ctx, o.ID)
	if err != nil {
		return Order{}, err
	}
	o.Items = items
	return o, nil
}

func (r *Repository) itemsFor(ctx context.Context, orderID int64) ([]Item, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, order_id, product_id, product_name, quantity, unit_price, amount
		 FROM order_item WHERE order_id = $1 ORDER BY id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Name, &it.Quantity, &it.UnitPrice, &it.Amount); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// Insert writes the header and items in one transaction.
func (r *Repository) Insert(ctx context.Context, o Order) (Order, error) {
	var created Order
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx,
			`INSERT INTO order_header (order_no, store_id, biz_date, channel, status, gross_amount, discount_amount, net_amount, remark, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
			 RETURNING `+orderColumns,
			o.OrderNo, o.StoreID, o.BizDate, o.Channel, o.Status,
			o.GrossAmount, o.DiscountAmount, o.NetAmount, o.Remark)
		var err error
		created, err = scanOrder(row)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				return ErrOrderNoTaken
			}
			return err
		}
		for _, it := range o.Items {
			if err := tx.QueryRow(ctx,
				`INSERT INTO order_item (order_id, product_id, product_name, quantity, unit_price, amount)
				 VALUES ($1, $2, $3, $4, $5, $6)
				 RETURNING id`,
				created.ID, it.ProductID, it.Name, it.Quantity, it.UnitPrice, it.Amount,
			).Scan(&it.ID); err != nil {
				return err
			}
			it.OrderID = created.ID
			created.Items = append(created.Items, it)
		}
		return nil
	})
	if err != nil {
		return Order{}, err
	}
	return created, nil
}

// UpdateStatus sets the status and returns the updated header.
func (r *Repository) UpdateStatus(ctx context.Context, id int64, status string) (Order, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE order_header SET status = $2, updated_at = NOW() WHERE id = $1 RETURNING `+orderColumns,
		id, status)
	o, err := scanOrder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, shared.ErrNotFound
	}
	return o, err
}

// Delete removes a header and its items.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM order_item WHERE order_id = $1`, id); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `DELETE FROM order_header WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}
