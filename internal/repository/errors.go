// Package repository contains the MySQL data access layer. The sentinel
// errors below let services tell storage outcomes apart without looking at
// driver error codes themselves.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when the addressed row does not exist, or when a
// write references a parent row that does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a write violates a unique key, such as a
// second review by the same user on the same product.
var ErrConflict = errors.New("conflict")

// ErrEmailExists is the unique-email flavour of ErrConflict.
var ErrEmailExists = errors.New("email already exists")

const (
	errDupEntry      = 1062
	errNoReferenced  = 1452
	errRowReferenced = 1451
)

func mysqlCode(err error) uint16 {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number
	}
	return 0
}

func isDuplicate(err error) bool { return mysqlCode(err) == errDupEntry }

func isMissingParent(err error) bool { return mysqlCode(err) == errNoReferenced }

func isReferenced(err error) bool { return mysqlCode(err) == errRowReferenced }
