package stores

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bistrohq/bistroboard/internal/shared"
)

// ErrCodeTaken indicates a duplicate store or product code on insert.
var ErrCodeTaken = errors.New("stores: code already taken")

const storeColumns = `id, code, name, region, address, status, opened_at, created_at, updated_at`
const productColumns = `id, code, name, category, price, cost, is_active, created_at, updated_at`

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanStore(row pgx.Row) (Store, error) {
	var s Store
	err := row.Scan(&s.ID, &s.Code, &s.Name, &s.Region, &s.Address, &s.Status,
		&s.OpenedAt, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Code, &p.Name, &p.Category, &p.Price, &p.Cost,
		&p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// ListStores returns stores, optionally narrowed to a status.
func (r *Repository) ListStores(ctx context.Context, status string) ([]Store, error) {
	query := `SELECT ` + storeColumns + ` FROM store`
	args := []any{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += ` ORDER BY code`
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Store
	for rows.Next() {
		s, err := scanStore(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetStore fetches a store by id.
func (r *Repository) GetStore(ctx context.Context, id int64) (Store, error) {
	s, err := scanStore(r.pool.QueryRow(ctx, `SELECT `+storeColumns+` FROM store WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Store{}, shared.ErrNotFound
	}
	return s, err
}

// InsertStore creates a store.
func (r *Repository) InsertStore(ctx context.Context, s Store) (Store, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO store (code, name, region, address, status, opened_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		 RETURNING `+storeColumns,
		s.Code, s.Name, s.Region, s.Address, s.Status, s.OpenedAt)
	created, err := scanStore(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Store{}, ErrCodeTaken
		}
		return Store{}, err
	}
	return created, nil
}

// UpdateStore persists the full row and returns it.
func (r *Repository) UpdateStore(ctx context.Context, s Store) (Store, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE store SET name = $2, region = $3, address = $4, status = $5, updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+storeColumns,
		s.ID, s.Name, s.Region, s.Address, s.Status)
	updated, err := scanStore(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Store{}, shared.ErrNotFound
	}
	return updated, err
}

// ListProducts returns products, optionally narrowed to a category or
// active flag.
func (r *Repository) ListProducts(ctx context.Context, category string, activeOnly bool) ([]Product, error) {
	query := `SELECT ` + productColumns + ` FROM product WHERE 1=1`
	args := []any{}
	if category != "" {
		args = append(args, category)
		query += ` AND category = $1`
	}
	if activeOnly {
		query += ` AND is_active`
	}
	query += ` ORDER BY code`
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetProduct fetches a product by id.
func (r *Repository) GetProduct(ctx context.Context, id int64) (Product, error) {
	p, err := scanProduct(r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM product WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, shared.ErrNotFound
	}
	return p, err
}

// InsertProduct creates a product.
func (r *Repository) InsertProduct(ctx context.Context, p Product) (Product, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO product (code, name, category, price, cost, is_active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		 RETURNING `+productColumns,
		p.Code, p.Name, p.Category, p.Price, p.Cost, p.IsActive)
	created, err := scanProduct(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Product{}, ErrCodeTaken
		}
		return Product{}, err
	}
	return created, nil
}

// UpdateProduct persists the full row and returns it.
func (r *Repository) UpdateProduct(ctx context.Context, p Product) (Product, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE product SET name = $2, category = $3, price = $4, cost = $5, is_active = $6, updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+productColumns,
		p.ID, p.Name, p.Category, p.Price, p.Cost, p.IsActive)
	updated, err := scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, shared.ErrNotFound
	}
	return updated, err
}
