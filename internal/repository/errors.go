// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow handlers to distinguish
// between failure scenarios without inspecting driver errors.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrUserNotFound is returned when no user matches the lookup.
var ErrUserNotFound = errors.New("user not found")

// ErrStoreNotFound is returned when no store matches the lookup, or when a
// rating references a store that no longer exists.
var ErrStoreNotFound = errors.New("store not found")

// ErrEmailExists signals a users.email uniqueness violation.
var ErrEmailExists = errors.New("email already exists")

// ErrStoreEmailExists signals a stores.email uniqueness violation.
var ErrStoreEmailExists = errors.New("store email already exists")

// ErrHasStores is returned when deleting a user that still owns stores.
var ErrHasStores = errors.New("user owns stores")

// MySQL server error numbers the repositories translate.
const (
	errDupEntry        = 1062
	errNoReferencedRow = 1452
	errRowIsReferenced = 1451
)

func mysqlErrNumber(err error) uint16 {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number
	}
	return 0
}

func isDuplicate(err error) bool { return mysqlErrNumber(err) == errDupEntry }

func isMissingReference(err error) bool { return mysqlErrNumber(err) == errNoReferencedRow }

func isReferenced(err error) bool { return mysqlErrNumber(err) == errRowIsReferenced }
