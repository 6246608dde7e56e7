// Package datastore provides error handling helpers for database operations
package datastore

import (
	"fmt"

	"github.com/go-sql-driver/mysql"
	"github.com/mattn/go-sqlite3"

	"github.com/tphakala/bonsai-go/internal/errors"
)

// MySQL server error numbers
const (
	mysqlErrDuplicateEntry  = 1062
	mysqlErrRowIsReferenced = 1451
	mysqlErrNoReferencedRow = 1452
)

var errNotOpen = errors.Newf("database connection is not initialized").
	Component("datastore").
	Category(errors.CategoryDatabase).
	Build()

// dbError creates a properly categorized database error with context
func dbError(err error, operation, table string, context ...any) error {
	builder := errors.New(err).
		Component("datastore").
		Category(errors.CategoryDatabase).
		Context("operation", operation)

	if table != "" {
		builder = builder.Context("table", table)
	}

	// Add context pairs
	for i := 0; i < len(context)-1; i += 2 {
		if key, ok := context[i].(string); ok {
			builder = builder.Context(key, context[i+1])
		}
	}

	return builder.Build()
}

// IsUniqueViolation reports whether err was caused by a unique or primary key
// constraint on either supported backend.
func IsUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == mysqlErrDuplicateEntry
	}
	return false
}

// IsForeignKeyViolation reports whether err was caused by a foreign key constraint.
func IsForeignKeyViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey
	}
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == mysqlErrRowIsReferenced || mysqlErr.Number == mysqlErrNoReferencedRow
	}
	return false
}

// describeBackend formats a backend and location for log and error context
func describeBackend(backend, location string) string {
	return fmt.Sprintf("%s (%s)", backend, location)
}
