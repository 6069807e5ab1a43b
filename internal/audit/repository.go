package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Insert persists one entry.
func (r *Repository) Insert(ctx context.Context, e Entry) error {
	detail, err := json.Marshal(e.Detail)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx,
		`INSERT INTO audit_log (user_id, username, action, resource, resource_id, detail, ip_address, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())`,
		e.UserID, e.Username, e.Action, e.Resource, e.ResourceID, detail, e.IPAddress)
	return err
}

// List returns entries matching the filters, newest first, with total count.
func (r *Repository) List(ctx context.Context, f ListFilters) ([]Entry, int, error) {
	where := " WHERE 1=1"
	args := []any{}
	arg := 1
	if f.UserID != nil {
		where += fmt.Sprintf(" AND user_id = $%d", arg)
		args = append(args, *f.UserID)
		arg++
	}
	if f.Action != "" {
		where += fmt.Sprintf(" AND action = $%d", arg)
		args = append(args, f.Action)
		arg++
	}
	if f.Resource != "" {
		where += fmt.Sprintf(" AND resource = $%d", arg)
		args = append(args, f.Resource)
		arg++
	}
	if f.From != nil {
		where += fmt.Sprintf(" AND created_at >= $%d", arg)
		args = append(args, *f.From)
		arg++
	}
	if f.To != nil {
		where += fmt.Sprintf(" AND created_at <= $%d", arg)
		args = append(args, *f.To)
		arg++
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM audit_log`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	perPage := f.PerPage
	if perPage <= 0 {
		perPage = 20
	}
	page := f.Page
	if page <= 0 {
		page = 1
	}
	query := `SELECT id, user_id, username, action, resource, resource_id, detail, ip_address, created_at FROM audit_log` +
		where + fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", arg, arg+1)
	args = append(args, perPage, (page-1)*perPage)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var entries []Entry
	for rows.Next() {
		var e Entry
		var detail []byte
		if err := rows.Scan(&e.ID, &e.UserID, &e.Username, &e.Action, &e.Resource, &e.ResourceID, &detail, &e.IPAddress, &e.CreatedAt); err != nil {
			return nil, 0, err
		}
		if len(detail) > 0 {
			_ = json.Unmarshal(detail, &e.Detail)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}
