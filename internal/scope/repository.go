package scope

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bistrohq/bistroboard/internal/platform/db"
)

// Repository provides PostgreSQL backed persistence for store grants.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GrantedStoreIDs returns the store ids granted to the user.
func (r *Repository) GrantedStoreIDs(ctx context.Context, userID int64) ([]int64, error) {
	rows, err := r.pool.Query(ctx, `SELECT store_id FROM user_store_grants WHERE user_id = $1 ORDER BY store_id`, userID)
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

// ListGrants returns the grant rows for a user.
func (r *Repository) ListGrants(ctx context.Context, userID int64) ([]Grant, error) {
	rows, err := r.pool.Query(ctx, `SELECT user_id, store_id, created_at FROM user_store_grants WHERE user_id = $1 ORDER BY store_id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var grants []Grant
	for rows.Next() {
		var g Grant
		if err := rows.Scan(&g.UserID, &g.StoreID, &g.CreatedAt); err != nil {
			return nil, err
		}
		grants = append(grants, g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return grants, nil
}

// ReplaceGrants performs the full-replace write for a user's grants:
// delete all existing rows, then insert the new set, in one transaction.
func (r *Repository) ReplaceGrants(ctx context.Context, userID int64, storeIDs []int64) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM user_store_grants WHERE user_id = $1`, userID); err != nil {
			return err
		}
		for _, storeID := range storeIDs {
			if _, err := tx.Exec(ctx,
				`INSERT INTO user_store_grants (user_id, store_id, created_at) VALUES ($1, $2, NOW())`,
				userID, storeID); err != nil {
				return err
			}
		}
		return nil
	})
}
