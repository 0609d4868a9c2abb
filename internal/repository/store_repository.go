package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/store-rating/internal/model"
)

// StoreRepo encapsulates all database queries related to stores.
type StoreRepo struct {
	db *sql.DB
}

func NewStoreRepo(db *sql.DB) *StoreRepo {
	return &StoreRepo{db: db}
}

// Create inserts a new store.  On success ID and timestamps are populated
// by a follow-up SELECT.  A duplicate email yields ErrStoreEmailExists.
func (r *StoreRepo) Create(ctx context.Context, s *model.Store) error {
	const qInsert = "INSERT INTO stores (name, email, address, owner_id) VALUES (?, ?, ?, ?)"
	res, err := r.db.ExecContext(ctx, qInsert, s.Name, s.Email, s.Address, nullableID(s.OwnerID))
	if err != nil {
		if isDuplicate(err) {
			return ErrStoreEmailExists
		}
		if isMissingReference(err) {
			return ErrUserNotFound
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	created, err := r.GetByID(ctx, uint64(id))
	if err != nil {
		return err
	}
	*s = *created
	return nil
}

// GetByID fetches a store by its ID.
func (r *StoreRepo) GetByID(ctx context.Context, id uint64) (*model.Store, error) {
	const q = "SELECT id, name, email, address, owner_id, created_at, updated_at FROM stores WHERE id = ?"
	var s model.Store
	var owner sql.NullInt64
	if err := r.db.QueryRowContext(ctx, q, id).Scan(&s.ID, &s.Name, &s.Email, &s.Address, &owner, &s.CreatedAt, &s.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStoreNotFound
		}
		return nil, err
	}
	s.OwnerID = idFromNull(owner)
	return &s, nil
}

// EmailExists reports whether a store already uses email.
func (r *StoreRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM stores WHERE email = ?", email).Scan(&n)
	return n > 0, err
}

const summarySelect = `SELECT s.id, s.name, s.email, s.address, s.owner_id, s.created_at, s.updated_at,
       o.name, o.email,
       COALESCE(AVG(r.rating), 0) AS average_rating,
       COUNT(r.id) AS total_ratings`

const summaryFrom = `
  FROM stores s
  LEFT JOIN users o ON o.id = s.owner_id
  LEFT JOIN ratings r ON r.store_id = s.id`

const summaryGroup = " GROUP BY s.id, o.name, o.email"

var (
	storeSearchable = columns{"name": "s.name", "email": "s.email", "address": "s.address"}
	storeSortable   = columns{
		"id": "s.id", "name": "s.name", "email": "s.email", "address": "s.address",
		"created_at": "s.created_at", "createdAt": "s.created_at",
		"average_rating": "average_rating", "rating": "average_rating",
		"total_ratings": "total_ratings",
	}
)

func scanSummary(rows *sql.Rows, extra ...any) (model.StoreSummary, error) {
	var s model.StoreSummary
	var owner sql.NullInt64
	var ownerName, ownerEmail sql.NullString
	dest := []any{&s.ID, &s.Name, &s.Email, &s.Address, &owner, &s.CreatedAt, &s.UpdatedAt,
		&ownerName, &ownerEmail, &s.AverageRating, &s.TotalRatings}
	if err := rows.Scan(append(dest, extra...)...); err != nil {
		return s, err
	}
	s.OwnerID = idFromNull(owner)
	if ownerName.Valid {
		s.OwnerName = &ownerName.String
	}
	if ownerEmail.Valid {
		s.OwnerEmail = &ownerEmail.String
	}
	s.ExactAverage = s.AverageRating
	s.AverageRating = Round1(s.AverageRating)
	return s, nil
}

// ListSummaries returns every store matching q with its rating aggregates.
func (r *StoreRepo) ListSummaries(ctx context.Context, q ListQuery) ([]model.StoreSummary, error) {
	search, args := searchClause(q, storeSearchable, []string{"name", "email", "address"})
	query := summarySelect + summaryFrom + whereSQL([]string{search}) + summaryGroup +
		orderClause(q, storeSortable, "s.id ASC")

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.StoreSummary{}
	for rows.Next() {
		s, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// ListForUser is ListSummaries plus the caller's own rating of each store.
func (r *StoreRepo) ListForUser(ctx context.Context, userID uint64, q ListQuery) ([]model.UserStore, error) {
	search, sargs := searchClause(q, storeSearchable, []string{"name", "address"})
	query := summarySelect + `, ur.rating AS user_rating` + summaryFrom + `
  LEFT JOIN ratings ur ON ur.store_id = s.id AND ur.user_id = ?` +
		whereSQL([]string{search}) + summaryGroup + ", ur.rating" +
		orderClause(q, storeSortable, "s.id ASC")

	args := append([]any{userID}, sargs...)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.UserStore{}
	for rows.Next() {
		var mine sql.NullInt64
		s, err := scanSummary(rows, &mine)
		if err != nil {
			return nil, err
		}
		us := model.UserStore{StoreSummary: s}
		if mine.Valid {
			v := int(mine.Int64)
			us.UserRating = &v
		}
		out = append(out, us)
	}
	return out, rows.Err()
}

// ListByOwner returns the stores owned by ownerID with their aggregates,
// ordered by id.
func (r *StoreRepo) ListByOwner(ctx context.Context, ownerID uint64) ([]model.StoreSummary, error) {
	query := summarySelect + summaryFrom + " WHERE s.owner_id = ?" + summaryGroup + " ORDER BY s.id ASC"
	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.StoreSummary{}
	for rows.Next() {
		s, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func nullableID(id *uint64) any {
	if id == nil {
		return nil
	}
	return *id
}

func idFromNull(n sql.NullInt64) *uint64 {
	if !n.Valid {
		return nil
	}
	v := uint64(n.Int64)
	return &v
}
