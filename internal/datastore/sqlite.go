package datastore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/tphakala/bonsai-go/internal/conf"
	"github.com/tphakala/bonsai-go/internal/errors"
	"github.com/tphakala/bonsai-go/internal/logger"
)

// SQLiteStore implements Interface for SQLite
type SQLiteStore struct {
	DataStore
	Settings *conf.Settings
}

// sqliteDSN enables WAL, a busy timeout and foreign key enforcement.
func sqliteDSN(path string) string {
	return fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=ON", path)
}

// Open sets up the SQLite database connection and migrates the schema
func (store *SQLiteStore) Open() error {
	dbPath := store.Settings.Database.SQLite.Path
	if dbPath == "" {
		return errors.Newf("sqlite database path is empty").
			Component("datastore").
			Category(errors.CategoryConfiguration).
			Build()
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
		return errors.New(err).
			Component("datastore").
			Category(errors.CategoryFileIO).
			Context("operation", "create_database_directory").
			Context("path", filepath.Dir(dbPath)).
			Build()
	}

	gormLogger := logger.NewGormLoggerAdapter(GetLogger(), store.Settings.Database.SlowQueryThreshold)
	db, err := gorm.Open(sqlite.Open(sqliteDSN(dbPath)), &gorm.Config{Logger: gormLogger})
	if err != nil {
		return dbError(err, "open", "", "backend", conf.DatabaseSQLite, "path", dbPath)
	}

	store.db = db
	GetLogger().Info("database opened", logger.String("backend", describeBackend(store.Backend(), store.Location())))

	return store.Migrate(context.Background())
}

// Close closes the SQLite database
func (store *SQLiteStore) Close() error {
	return store.closeDB()
}

// Backend returns conf.DatabaseSQLite.
func (store *SQLiteStore) Backend() string {
	return conf.DatabaseSQLite
}

// Location returns the database file path.
func (store *SQLiteStore) Location() string {
	return store.Settings.Database.SQLite.Path
}

// Backup writes a consistent copy of the database to destPath using VACUUM INTO.
// destPath must not exist.
func (store *SQLiteStore) Backup(ctx context.Context, destPath string) error {
	if store.db == nil {
		return errNotOpen
	}
	if _, err := os.Stat(destPath); err == nil {
		return errors.Newf("backup destination already exists: %s", destPath).
			Component("datastore").
			Category(errors.CategoryConflict).
			Build()
	}
	if err := store.db.WithContext(ctx).Exec("VACUUM INTO ?", destPath).Error; err != nil {
		return dbError(err, "backup", "", "destination", destPath)
	}
	GetLogger().Info("database backup written", logger.String("path", destPath))
	return nil
}
