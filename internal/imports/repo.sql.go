package imports

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/bistrohq/bistroboard/internal/shared"
)

// Repository persists import jobs and writes imported rows into the
// order and expense tables.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const jobColumns = `id, name, source_type, target_type, status, file_name, file_path, store_id,
	total_rows, success_rows, fail_rows, created_by, created_at, updated_at`

func scanJob(row pgx.Row) (Job, error) {
	var j Job
	err := row.Scan(&j.ID, &j.Name, &j.SourceType, &j.TargetType, &j.Status, &j.FileName, &j.FilePath,
		&j.StoreID, &j.TotalRows, &j.SuccessRows, &j.FailRows, &j.CreatedBy, &j.CreatedAt, &j.UpdatedAt)
	return j, err
}

// InsertJob creates a pending job.
func (r *Repository) InsertJob(ctx context.Context, j Job) (Job, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO import_job (name, source_type, target_type, status, file_name, file_path, store_id, total_rows, success_rows, fail_rows, created_by, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, 0, 0, 0, $8, NOW(), NOW())
		 RETURNING `+jobColumns,
		j.Name, j.SourceType, j.TargetType, j.Status, j.FileName, j.FilePath, j.StoreID, j.CreatedBy)
	return scanJob(row)
}

// GetJob fetches a job by id.
func (r *Repository) GetJob(ctx context.Context, id int64) (Job, error) {
	j, err := scanJob(r.pool.QueryRow(ctx, `SELECT `+jobColumns+` FROM import_job WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Job{}, shared.ErrNotFound
	}
	return j, err
}

// ListJobs returns a filtered, paginated page plus total count.
func (r *Repository) ListJobs(ctx context.Context, f ListFilters) ([]Job, int, error) {
	where := ` WHERE 1=1`
	var args []any
	next := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}
	if f.TargetType != "" {
		where += ` AND target_type = ` + next(f.TargetType)
	}
	if f.Status != "" {
		where += ` AND status = ` + next(f.Status)
	}
	if f.CreatedBy != nil {
		where += ` AND created_by = ` + next(*f.CreatedBy)
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM import_job`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	page := shared.NewPagination(f.Page, f.PerPage, total)
	query := `SELECT ` + jobColumns + ` FROM import_job` + where +
		` ORDER BY created_at DESC LIMIT ` + next(page.PerPage) + ` OFFSET ` + next(page.Offset())
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var out []Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, j)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// MarkRunning transitions a pending or failed job to running.
func (r *Repository) MarkRunning(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE import_job SET status = $2, updated_at = NOW() WHERE id = $1`, id, StatusRunning)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// FinishJob records the outcome counters and final status.
func (r *Repository) FinishJob(ctx context.Context, id int64, status string, totalRows, successRows, failRows int) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE import_job SET status = $2, total_rows = $3, success_rows = $4, fail_rows = $5, updated_at = NOW()
		 WHERE id = $1`,
		id, status, totalRows, successRows, failRows)
	return err
}

// InsertRowErrors stores the failed rows of one run.
func (r *Repository) InsertRowErrors(ctx context.Context, jobID int64, rowErrs []RowError) error {
	for _, re := range rowErrs {
		if _, err := r.pool.Exec(ctx,
			`INSERT INTO import_job_error (job_id, row_no, field, message, raw_data, created_at)
			 VALUES ($1, $2, $3, $4, $5, NOW())`,
			jobID, re.RowNo, re.Field, re.Message, re.RawData); err != nil {
			return err
		}
	}
	return nil
}

// ClearRowErrors removes errors from a previous run of the job.
func (r *Repository) ClearRowErrors(ctx context.Context, jobID int64) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM import_job_error WHERE job_id = $1`, jobID)
	return err
}

// ListRowErrors returns a paginated error page plus total count.
func (r *Repository) ListRowErrors(ctx context.Context, jobID int64, page, perPage int) ([]RowError, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM import_job_error WHERE job_id = $1`, jobID).Scan(&total); err != nil {
		return nil, 0, err
	}
	p := shared.NewPagination(page, perPage, total)
	rows, err := r.pool.Query(ctx,
		`SELECT id, job_id, row_no, field, message, raw_data, created_at
		 FROM import_job_error WHERE job_id = $1
		 ORDER BY row_no LIMIT $2 OFFSET $3`,
		jobID, p.PerPage, p.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var out []RowError
	for rows.Next() {
		var re RowError
		if err := rows.Scan(&re.ID, &re.JobID, &re.RowNo, &re.Field, &re.Message, &re.RawData, &re.CreatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, re)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// StoreExists reports whether a store row exists.
func (r *Repository) StoreExists(ctx context.Context, storeID int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM store WHERE id = $1)`, storeID).Scan(&exists)
	return exists, err
}

// ExistingOrderNos returns which of the given order numbers are taken.
func (r *Repository) ExistingOrderNos(ctx context.Context, orderNos []string) (map[string]struct{}, error) {
	out := make(map[string]struct{})
	if len(orderNos) == 0 {
		return out, nil
	}
	rows, err := r.pool.Query(ctx,
		`SELECT order_no FROM order_header WHERE order_no = ANY($1)`, orderNos)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var no string
		if err := rows.Scan(&no); err != nil {
			return nil, err
		}
		out[no] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// InsertedOrder is one order row produced by the importer.
type InsertedOrder struct {
	OrderNo        string
	StoreID        int64
	BizDate        time.Time
	Channel        string
	GrossAmount    decimal.Decimal
	DiscountAmount decimal.Decimal
	NetAmount      decimal.Decimal
}

// InsertImportedOrder writes one completed order header.
func (r *Repository) InsertImportedOrder(ctx context.Context, o InsertedOrder) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO order_header (order_no, store_id, biz_date, channel, status, gross_amount, discount_amount, net_amount, remark, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, 'completed', $5, $6, $7, '', NOW(), NOW())`,
		o.OrderNo, o.StoreID, o.BizDate, o.Channel, o.GrossAmount, o.DiscountAmount, o.NetAmount)
	return err
}

// ExpenseTypeIDsByName returns active expense types keyed by name.
func (r *Repository) ExpenseTypeIDsByName(ctx context.Context) (map[string]int64, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name FROM expense_type WHERE is_active`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[string]int64)
	for rows.Next() {
		var id int64
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		out[name] = id
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ExpenseKey identifies an expense row for import deduplication.
type ExpenseKey struct {
	StoreID       int64
	BizDate       string
	ExpenseTypeID int64
	Amount        string
	Remark        string
}

// ExistingExpenseKeys returns the dedup keys already present for a store.
func (r *Repository) ExistingExpenseKeys(ctx context.Context, storeID int64) (map[ExpenseKey]struct{}, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT store_id, biz_date, expense_type_id, amount, remark
		 FROM expense_record WHERE store_id = $1 AND NOT is_deleted`, storeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[ExpenseKey]struct{})
	for rows.Next() {
		var (
			sid, typeID int64
			bizDate     time.Time
			amount      decimal.Decimal
			remark      string
		)
		if err := rows.Scan(&sid, &bizDate, &typeID, &amount, &remark); err != nil {
			return nil, err
		}
		out[ExpenseKey{
			StoreID:       sid,
			BizDate:       bizDate.Format(time.DateOnly),
			ExpenseTypeID: typeID,
			Amount:        amount.StringFixed(2),
			Remark:        remark,
		}] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// InsertedExpense is one expense row produced by the importer.
type InsertedExpense struct {
	StoreID       int64
	ExpenseTypeID int64
	BizDate       time.Time
	Amount        decimal.Decimal
	Remark        string
	CreatedBy     int64
}

// InsertImportedExpense writes one draft expense record. Imported
// expenses go through the normal approval flow before they count as
// actual cost.
func (r *Repository) InsertImportedExpense(ctx context.Context, e InsertedExpense) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO expense_record (store_id, expense_type_id, biz_date, amount, status, remark, created_by, is_deleted, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, 'draft', $5, $6, FALSE, NOW(), NOW())`,
		e.StoreID, e.ExpenseTypeID, e.BizDate, e.Amount, e.Remark, e.CreatedBy)
	return err
}
