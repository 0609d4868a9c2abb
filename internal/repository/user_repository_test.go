package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/store-rating/internal/model"
)

var userCols = []string{"id", "name", "email", "password_hash", "address", "role", "created_at", "updated_at"}

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return db, mock
}

func userRow(id uint64, email string, role model.Role) *sqlmock.Rows {
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	return sqlmock.NewRows(userCols).AddRow(id, "Jane Q Public", email, "$2a$hash", "1 Rd", string(role), now, now)
}

func TestUserCreate(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users (name, email, password_hash, address, role) VALUES (?,?,?,?,?)")).
		WithArgs("Jane Q Public", "jane@x.com", "$2a$hash", "1 Rd", "user").
		WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectQuery("SELECT .+ FROM users WHERE id = \\?").
		WithArgs(uint64(7)).
		WillReturnRows(userRow(7, "jane@x.com", model.RoleUser))

	u := &model.User{Name: "Jane Q Public", Email: "jane@x.com", PasswordHash: "$2a$hash", Address: "1 Rd", Role: model.RoleUser}
	require.NoError(t, repo.Create(context.Background(), u))
	assert.Equal(t, uint64(7), u.ID)
	assert.False(t, u.CreatedAt.IsZero())
}

func TestUserCreateDuplicate(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db)

	mock.ExpectExec("INSERT INTO users").
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})

	err := repo.Create(context.Background(), &model.User{Email: "jane@x.com", Role: model.RoleUser})
	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestUserGetByEmailNotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db)

	mock.ExpectQuery("SELECT .+ FROM users WHERE email = \\?").
		WithArgs("ghost@x.com").
		WillReturnRows(sqlmock.NewRows(userCols))

	_, err := repo.GetByEmail(context.Background(), "  Ghost@X.com ")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserUpdateBuildsSetList(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db)

	name := "New Name"
	role := model.RoleStoreOwner
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET name = ?, role = ?, updated_at = CURRENT_TIMESTAMP(6) WHERE id = ?")).
		WithArgs("New Name", "store_owner", uint64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Update(context.Background(), 3, UserPatch{Name: &name, Role: &role}))
}

func TestUserUpdateDuplicateEmail(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db)

	email := "taken@x.com"
	mock.ExpectExec("UPDATE users SET email = \\?").
		WillReturnError(&mysql.MySQLError{Number: 1062})

	err := repo.Update(context.Background(), 3, UserPatch{Email: &email})
	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestUserEmailTakenExcludesSelf(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM users WHERE email = ? AND id <> ?")).
		WithArgs("jane@x.com", uint64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(0))

	taken, err := repo.EmailTaken(context.Background(), "jane@x.com", 9)
	require.NoError(t, err)
	assert.False(t, taken)
}

func TestUserDelete(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db)

	mock.ExpectExec("DELETE FROM users WHERE id = \\?").WithArgs(uint64(4)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.Delete(context.Background(), 4), ErrUserNotFound)

	mock.ExpectExec("DELETE FROM users WHERE id = \\?").WithArgs(uint64(5)).
		WillReturnError(&mysql.MySQLError{Number: 1451})
	assert.ErrorIs(t, repo.Delete(context.Background(), 5), ErrHasStores)
}

func TestUserListAppliesFilters(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users u WHERE LOWER(u.email) LIKE ? AND u.role = ? ORDER BY u.name DESC, u.id ASC")).
		WithArgs("%jane%", "user").
		WillReturnRows(userRow(1, "jane@x.com", model.RoleUser))

	users, err := repo.List(context.Background(), ListQuery{Search: "Jane", Field: "email", Role: "user", SortBy: "name", SortOrder: "desc"})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, model.RoleUser, users[0].Role)
}

func TestUserListUnknownSortFallsBack(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users u ORDER BY u.id ASC")).
		WillReturnRows(userRow(1, "a@x.com", model.RoleAdmin).AddRow(2, "Bob Builder", "b@x.com", "h", "2 Rd", "user", time.Now(), time.Now()))

	users, err := repo.List(context.Background(), ListQuery{SortBy: "unknown_column"})
	require.NoError(t, err)
	assert.Len(t, users, 2)
}
