package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/store-rating/internal/model"
)

// RatingRepo persists ratings.  The (user_id, store_id) unique key makes
// Upsert a single atomic statement, so concurrent submissions for the same
// pair never produce a second row.
type RatingRepo struct{ db *sql.DB }

func NewRatingRepo(db *sql.DB) *RatingRepo { return &RatingRepo{db: db} }

// upsertSQL inserts or updates in place.  updated_at has microsecond
// precision so an update always changes the row and MySQL reports 2
// affected rows; a fresh insert reports 1.
const upsertSQL = `INSERT INTO ratings (user_id, store_id, rating) VALUES (?, ?, ?)
ON DUPLICATE KEY UPDATE rating = VALUES(rating), updated_at = CURRENT_TIMESTAMP(6)`

// Upsert records userID's rating of storeID.  created is true when a new
// row was inserted and false when an existing row was updated in place
// (id and created_at are kept).  A missing store yields ErrStoreNotFound.
func (r *RatingRepo) Upsert(ctx context.Context, userID, storeID uint64, value int) (rating *model.Rating, created bool, err error) {
	res, err := r.db.ExecContext(ctx, upsertSQL, userID, storeID, value)
	if err != nil {
		if isMissingReference(err) {
			return nil, false, ErrStoreNotFound
		}
		return nil, false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, false, err
	}
	rating, err = r.Get(ctx, userID, storeID)
	if err != nil {
		return nil, false, err
	}
	return rating, n == 1, nil
}

// Get returns userID's rating of storeID, or sql.ErrNoRows.
func (r *RatingRepo) Get(ctx context.Context, userID, storeID uint64) (*model.Rating, error) {
	const q = `SELECT id, user_id, store_id, rating, created_at, updated_at
	             FROM ratings WHERE user_id = ? AND store_id = ?`
	var rt model.Rating
	err := r.db.QueryRowContext(ctx, q, userID, storeID).
		Scan(&rt.ID, &rt.UserID, &rt.StoreID, &rt.Value, &rt.CreatedAt, &rt.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &rt, nil
}

// ListByUser returns the caller's ratings joined with store name and
// address, most recently updated first.
func (r *RatingRepo) ListByUser(ctx context.Context, userID uint64) ([]model.UserRating, error) {
	const q = `SELECT r.id, r.user_id, r.store_id, r.rating, r.created_at, r.updated_at, s.name, s.address
	             FROM ratings r
	             JOIN stores s ON s.id = r.store_id
	            WHERE r.user_id = ?
	            ORDER BY r.updated_at DESC, r.id DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.UserRating{}
	for rows.Next() {
		var ur model.UserRating
		if err := rows.Scan(&ur.ID, &ur.UserID, &ur.StoreID, &ur.Value, &ur.CreatedAt, &ur.UpdatedAt,
			&ur.StoreName, &ur.StoreAddress); err != nil {
			return nil, err
		}
		out = append(out, ur)
	}
	return out, rows.Err()
}

// ListForOwner returns ratings received by stores owned by ownerID, newest
// first.  limit <= 0 returns all of them.
func (r *RatingRepo) ListForOwner(ctx context.Context, ownerID uint64, limit int) ([]model.ReceivedRating, error) {
	q := `SELECT r.id, r.user_id, r.store_id, r.rating, r.created_at, r.updated_at, s.name, u.name, u.email
	        FROM ratings r
	        JOIN stores s ON s.id = r.store_id
	        JOIN users u  ON u.id = r.user_id
	       WHERE s.owner_id = ?
	       ORDER BY r.created_at DESC, r.id DESC`
	args := []any{ownerID}
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.ReceivedRating{}
	for rows.Next() {
		var rr model.ReceivedRating
		if err := rows.Scan(&rr.ID, &rr.UserID, &rr.StoreID, &rr.Value, &rr.CreatedAt, &rr.UpdatedAt,
			&rr.StoreName, &rr.UserName, &rr.UserEmail); err != nil {
			return nil, err
		}
		out = append(out, rr)
	}
	return out, rows.Err()
}
