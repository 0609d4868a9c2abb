package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/store-rating/internal/model"
)

const userColumns = "id, name, email, password_hash, address, role, created_at, updated_at"

// UserRepo encapsulates all queries against the `users` table.
type UserRepo struct{ db *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{db: db} }

// UserPatch lists the columns an admin update may touch.  Nil fields are
// left unchanged.  PasswordHash must already be hashed.
type UserPatch struct {
	Name         *string
	Email        *string
	PasswordHash *string
	Address      *string
	Role         *model.Role
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*model.User, error) {
	var u model.User
	var role string
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Address, &role, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.Role = model.Role(role)
	return &u, nil
}

// Create inserts u and fills in its ID and timestamps.  A duplicate email
// yields ErrEmailExists.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO users (name, email, password_hash, address, role) VALUES (?,?,?,?,?)",
		u.Name, u.Email, u.PasswordHash, u.Address, string(u.Role))
	if err != nil {
		if isDuplicate(err) {
			return ErrEmailExists
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
	*u = *created
	return nil
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = ? LIMIT 1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	return u, err
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	u, err := scanUser(r.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email = ? LIMIT 1", email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	return u, err
}

// EmailTaken reports whether another user (other than excludeID) already
// uses email.  Pass 0 to check against every user.
func (r *UserRepo) EmailTaken(ctx context.Context, email string, excludeID uint64) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM users WHERE email = ? AND id <> ?", email, excludeID).Scan(&n)
	return n > 0, err
}

// UpdatePassword stores a new password hash.
func (r *UserRepo) UpdatePassword(ctx context.Context, id uint64, hash string) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE users SET password_hash = ?, updated_at = CURRENT_TIMESTAMP(6) WHERE id = ?", hash, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrUserNotFound
	}
	return nil
}

// Update applies the non-nil fields of p and always refreshes updated_at.
// Column names come from a fixed list; only values are parameterized.
func (r *UserRepo) Update(ctx context.Context, id uint64, p UserPatch) error {
	sets := []string{}
	args := []any{}
	if p.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *p.Name)
	}
	if p.Email != nil {
		sets = append(sets, "email = ?")
		args = append(args, *p.Email)
	}
	if p.PasswordHash != nil {
		sets = append(sets, "password_hash = ?")
		args = append(args, *p.PasswordHash)
	}
	if p.Address != nil {
		sets = append(sets, "address = ?")
		args = append(args, *p.Address)
	}
	if p.Role != nil {
		sets = append(sets, "role = ?")
		args = append(args, string(*p.Role))
	}
	sets = append(sets, "updated_at = CURRENT_TIMESTAMP(6)")
	args = append(args, id)

	_, err := r.db.ExecContext(ctx, "UPDATE users SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if isDuplicate(err) {
		return ErrEmailExists
	}
	return err
}

// CountStores returns how many stores list id as their owner.
func (r *UserRepo) CountStores(ctx context.Context, id uint64) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM stores WHERE owner_id = ?", id).Scan(&n)
	return n, err
}

// Delete removes a user; their ratings go with them (ON DELETE CASCADE).
// Callers check store ownership first; the FK reports ErrHasStores if a
// store was assigned in the meantime.
func (r *UserRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM users WHERE id = ?", id)
	if err != nil {
		if isReferenced(err) {
			return ErrHasStores
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrUserNotFound
	}
	return nil
}

var (
	userSearchable = columns{"name": "u.name", "email": "u.email", "address": "u.address", "role": "u.role"}
	userSortable   = columns{
		"id": "u.id", "name": "u.name", "email": "u.email", "address": "u.address",
		"role": "u.role", "created_at": "u.created_at", "createdAt": "u.created_at",
	}
)

// List returns users matching q.  Unknown sort or search fields are
// ignored and the result falls back to id order.
func (r *UserRepo) List(ctx context.Context, q ListQuery) ([]model.User, error) {
	search, sargs := searchClause(q, userSearchable, []string{"name", "email", "address"})
	role, rargs := roleClause(q, "u.role")
	query := "SELECT u.id, u.name, u.email, u.password_hash, u.address, u.role, u.created_at, u.updated_at FROM users u" +
		whereSQL([]string{search, role}) +
		orderClause(q, userSortable, "u.id ASC")

	rows, err := r.db.QueryContext(ctx, query, append(sargs, rargs...)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}

// OwnerAverage is the mean of every rating received across the stores
// owned by id, rounded to one decimal (0 when none).
func (r *UserRepo) OwnerAverage(ctx context.Context, id uint64) (float64, error) {
	var avg float64
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(AVG(r.rating), 0)
		   FROM ratings r
		   JOIN stores s ON s.id = r.store_id
		  WHERE s.owner_id = ?`, id).Scan(&avg)
	return Round1(avg), err
}
