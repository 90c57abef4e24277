// Package repository holds the SQL data access layer.  Repositories return
// the sentinel errors below so that services can tell a missing row from a
// constraint violation without knowing the driver.
package repository

import (
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// ErrDuplicate signals a unique key violation (MySQL 1062).
var ErrDuplicate = errors.New("duplicate entry")

// ErrConflict is returned when an update cannot apply because of the row's
// current state, e.g. editing a lottery whose deadline already passed.
var ErrConflict = errors.New("conflict")

const (
	mysqlDuplicateEntry = 1062
	mysqlDeadlock       = 1213
	mysqlLockWait       = 1205
)

func mysqlCode(err error) uint16 {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number
	}
	return 0
}

// translate maps driver errors onto the package sentinels.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return ErrNotFound
	case mysqlCode(err) == mysqlDuplicateEntry:
		return ErrDuplicate
	}
	return err
}

// retryable reports whether a transaction can simply be run again.
func retryable(err error) bool {
	code := mysqlCode(err)
	return code == mysqlDeadlock || code == mysqlLockWait
}
