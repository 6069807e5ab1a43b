package expenses

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bistrohq/bistroboard/internal/scope"
	"github.com/bistrohq/bistroboard/internal/shared"
)

const typeColumns = `id, name, parent_id, cost_behavior, kpi_mapping, is_active, created_at, updated_at`
const recordColumns = `er.id, er.store_id, er.expense_type_id, et.name, er.biz_date, er.amount, er.status, er.remark, er.created_by, er.approved_by, er.approved_at, er.created_at, er.updated_at`

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanType(row pgx.Row) (Type, error) {
	var t Type
	err := row.Scan(&t.ID, &t.Name, &t.ParentID, &t.CostBehavior, &t.KPIMapping,
		&t.IsActive, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

func scanRecord(row pgx.Row) (Record, error) {
	var rec Record
	err := row.Scan(&rec.ID, &rec.StoreID, &rec.ExpenseTypeID, &rec.TypeName, &rec.BizDate,
		&rec.Amount, &rec.Status, &rec.Remark, &rec.CreatedBy, &rec.ApprovedBy,
		&rec.ApprovedAt, &rec.CreatedAt, &rec.UpdatedAt)
	return rec, err
}

// ListTypes returns the whole type tree, parents before children.
func (r *Repository) ListTypes(ctx context.Context) ([]Type, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+typeColumns+` FROM expense_type ORDER BY parent_id NULLS FIRST, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Type
	for rows.Next() {
		t, err := scanType(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetType fetches a type by id.
func (r *Repository) GetType(ctx context.Context, id int64) (Type, error) {
	t, err := scanType(r.pool.QueryRow(ctx, `SELECT `+typeColumns+` FROM expense_type WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Type{}, shared.ErrNotFound
	}
	return t, err
}

// InsertType creates a type.
func (r *Repository) InsertType(ctx context.Context, t Type) (Type, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO expense_type (name, parent_id, cost_behavior, kpi_mapping, is_active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		 RETURNING `+typeColumns,
		t.Name, t.ParentID, t.CostBehavior, t.KPIMapping, t.IsActive)
	return scanType(row)
}

// UpdateType persists the full row and returns it.
func (r *Repository) UpdateType(ctx context.Context, t Type) (Type, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE expense_type SET name = $2, cost_behavior = $3, kpi_mapping = $4, is_active = $5, updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+typeColumns,
		t.ID, t.Name, t.CostBehavior, t.KPIMapping, t.IsActive)
	updated, err := scanType(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Type{}, shared.ErrNotFound
	}
	return updated, err
}

// ListRecords returns a filtered, paginated page plus total count.
func (r *Repository) ListRecords(ctx context.Context, f RecordFilters, stores *scope.StoreSet) ([]Record, int, error) {
	where := ` WHERE NOT er.is_deleted`
	args := []any{}
	next := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}
	if stores != nil {
		where += ` AND er.store_id = ANY(` + next(stores.IDs()) + `)`
	}
	if f.StoreID != nil {
		where += ` AND er.store_id = ` + next(*f.StoreID)
	}
	if f.ExpenseTypeID != nil {
		where += ` AND er.expense_type_id = ` + next(*f.ExpenseTypeID)
	}
	if f.Status != "" {
		where += ` AND er.status = ` + next(f.Status)
	}
	if f.DateFrom != nil {
		where += ` AND er.biz_date >= ` + next(*f.DateFrom)
	}
	if f.DateTo != nil {
		where += ` AND er.biz_date <= ` + next(*f.DateTo)
	}

	from := ` FROM expense_record er JOIN expense_type et ON et.id = er.expense_type_id`
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*)`+from+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	page := shared.NewPagination(f.Page, f.PerPage, total)
	query := `SELECT ` + recordColumns + from + where +
		` ORDER BY er.biz_date DESC, er.id DESC LIMIT ` + next(page.PerPage) + ` OFFSET ` + next(page.Offset())
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// GetRecord fetches a record by id.
func (r *Repository) GetRecord(ctx context.Context, id int64) (Record, error) {
	rec, err := scanRecord(r.pool.QueryRow(ctx,
		`SELECT `+recordColumns+`
		 FROM expense_record er JOIN expense_type et ON et.id = er.expense_type_id
		 WHERE er.id = $1 AND NOT er.is_deleted`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, shared.ErrNotFound
	}
	return rec, err
}

// InsertRecord creates a record.
func (r *Repository) InsertRecord(ctx context.Context, rec Record) (Record, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO expense_record (store_id, expense_type_id, biz_date, amount, status, remark, created_by, is_deleted, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, FALSE, NOW(), NOW())
		 RETURNING id`,
		rec.StoreID, rec.ExpenseTypeID, rec.BizDate, rec.Amount, rec.Status, rec.Remark, rec.CreatedBy,
	).Scan(&id)
	if err != nil {
		return Record{}, err
	}
	return r.GetRecord(ctx, id)
}

// UpdateRecord persists the editable fields and returns the row.
func (r *Repository) UpdateRecord(ctx context.Context, rec Record) (Record, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE expense_record SET expense_type_id = $2, biz_date = $3, amount = $4, remark = $5, updated_at = NOW()
		 WHERE id = $1 AND NOT is_deleted`,
		rec.ID, rec.ExpenseTypeID, rec.BizDate, rec.Amount, rec.Remark)
	if err != nil {
		return Record{}, err
	}
	if tag.RowsAffected() == 0 {
		return Record{}, shared.ErrNotFound
	}
	return r.GetRecord(ctx, rec.ID)
}

// UpdateRecordStatus moves a record to a new status, stamping the
// approver when one is given.
func (r *Repository) UpdateRecordStatus(ctx context.Context, id int64, status string, approverID *int64) (Record, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE expense_record
		 SET status = $2,
		     approved_by = COALESCE($3, approved_by),
		     approved_at = CASE WHEN $3::bigint IS NOT NULL THEN NOW() ELSE approved_at END,
		     updated_at = NOW()
		 WHERE id = $1 AND NOT is_deleted`,
		id, status, approverID)
	if err != nil {
		return Record{}, err
	}
	if tag.RowsAffected() == 0 {
		return Record{}, shared.ErrNotFound
	}
	return r.GetRecord(ctx, id)
}

// SoftDeleteRecord marks a record deleted.
func (r *Repository) SoftDeleteRecord(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE expense_record SET is_deleted = TRUE, updated_at = NOW() WHERE id = $1 AND NOT is_deleted`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
