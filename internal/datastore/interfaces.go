// interfaces.go: this code defines the interface for the database operations
package datastore

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/tphakala/bonsai-go/internal/conf"
	"github.com/tphakala/bonsai-go/internal/errors"
)

// Interface abstracts the underlying database implementation.
// Repositories are built on top of DB() or on the transaction handle passed to Transaction.
type Interface interface {
	Open() error
	Close() error
	DB() *gorm.DB
	// Transaction runs fn inside a single database transaction.
	// A non-nil error from fn rolls back every write made through tx.
	Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error
	// Migrate brings the schema up to date, backfilling legacy columns.
	Migrate(ctx context.Context) error
	// Reset drops every table and recreates an empty schema.
	Reset(ctx context.Context) error
	// Backend returns conf.DatabaseSQLite or conf.DatabaseMySQL.
	Backend() string
	// Location describes where the data lives, safe for logging.
	Location() string
}

// DataStore implements the backend independent part of Interface using a GORM database.
type DataStore struct {
	db *gorm.DB
}

// New creates a new store for the backend selected in settings.
// The returned store must be opened before use.
func New(settings *conf.Settings) (Interface, error) {
	switch settings.Database.Type {
	case conf.DatabaseSQLite:
		return &SQLiteStore{Settings: settings}, nil
	case conf.DatabaseMySQL:
		return &MySQLStore{Settings: settings}, nil
	default:
		return nil, errors.Newf("unsupported database type %q", settings.Database.Type).
			Component("datastore").
			Category(errors.CategoryConfiguration).
			Context("database_type", settings.Database.Type).
			Build()
	}
}

// DB returns the underlying GORM handle.
func (ds *DataStore) DB() *gorm.DB {
	return ds.db
}

// Transaction runs fn in a transaction bound to ctx.
func (ds *DataStore) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if ds.db == nil {
		return errNotOpen
	}
	return ds.db.WithContext(ctx).Transaction(fn)
}

// Migrate runs schema migrations.
func (ds *DataStore) Migrate(ctx context.Context) error {
	if ds.db == nil {
		return errNotOpen
	}
	return performAutoMigration(ds.db.WithContext(ctx))
}

// Reset drops all tables in reverse dependency order and migrates a fresh schema.
func (ds *DataStore) Reset(ctx context.Context) error {
	if ds.db == nil {
		return errNotOpen
	}
	db := ds.db.WithContext(ctx)
	if err := dropAllTables(db); err != nil {
		return err
	}
	return performAutoMigration(db)
}

// closeDB closes the generic database object behind the GORM handle.
func (ds *DataStore) closeDB() error {
	if ds.db == nil {
		return errNotOpen
	}
	sqlDB, err := ds.db.DB()
	if err != nil {
		return fmt.Errorf("failed to retrieve generic DB object: %w", err)
	}
	if err := sqlDB.Close(); err != nil {
		return dbError(err, "close", "")
	}
	return nil
}
