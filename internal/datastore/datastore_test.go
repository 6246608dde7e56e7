package datastore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/tphakala/bonsai-go/internal/conf"
	"github.com/tphakala/bonsai-go/internal/datastore/entities"
	"github.com/tphakala/bonsai-go/internal/errors"
)

// createDatabase opens a migrated SQLite database in a temporary directory.
func createDatabase(t *testing.T) Interface {
	t.Helper()
	settings := &conf.Settings{}
	settings.Database.Type = conf.DatabaseSQLite
	settings.Database.SQLite.Path = filepath.Join(t.TempDir(), "test.db")

	store, err := New(settings)
	require.NoError(t, err)
	require.NoError(t, store.Open(), "Failed to open database")

	t.Cleanup(func() {
		assert.NoError(t, store.Close(), "Failed to close datastore")
	})
	return store
}

func seedTree(t *testing.T, db *gorm.DB, number, name string) *entities.Tree {
	t.Helper()
	species := entities.Species{Name: "Juniperus " + number}
	require.NoError(t, db.Create(&species).Error)

	tree := entities.Tree{
		TreeNumber:   number,
		TreeName:     name,
		SpeciesID:    species.ID,
		DateAcquired: time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC),
		OriginDate:   time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, db.Create(&tree).Error)
	return &tree
}

func TestNewRejectsUnknownBackend(t *testing.T) {
	t.Parallel()

	settings := &conf.Settings{}
	settings.Database.Type = "postgres"

	store, err := New(settings)
	require.Error(t, err)
	assert.Nil(t, store)
	assert.True(t, errors.IsCategory(err, errors.CategoryConfiguration))
}

func TestOpenSeedsSettingsRow(t *testing.T) {
	t.Parallel()
	store := createDatabase(t)

	var setting entities.AppSetting
	require.NoError(t, store.DB().First(&setting, 1).Error)
	assert.Equal(t, entities.DefaultAppTitle, setting.AppTitle)
	assert.Equal(t, conf.DatabaseSQLite, store.Backend())

	// Migrating again must not duplicate the row.
	require.NoError(t, store.Migrate(context.Background()))
	var count int64
	require.NoError(t, store.DB().Model(&entities.AppSetting{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestTransactionRollsBackOnError(t *testing.T) {
	t.Parallel()
	store := createDatabase(t)
	ctx := context.Background()

	sentinel := errors.NewStd("abort")
	err := store.Transaction(ctx, func(tx *gorm.DB) error {
		seedTree(t, tx, "BON-001", "Windswept")
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)

	var count int64
	require.NoError(t, store.DB().Model(&entities.Tree{}).Count(&count).Error)
	assert.Zero(t, count)
	require.NoError(t, store.DB().Model(&entities.Species{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestUniqueViolationIsDetected(t *testing.T) {
	t.Parallel()
	store := createDatabase(t)

	require.NoError(t, store.DB().Create(&entities.Species{Name: "Acer palmatum"}).Error)
	err := store.DB().Create(&entities.Species{Name: "Acer palmatum"}).Error
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err))
	assert.False(t, IsUniqueViolation(errors.NewStd("other")))
	assert.False(t, IsUniqueViolation(nil))
}

func TestForeignKeysAreEnforced(t *testing.T) {
	t.Parallel()
	store := createDatabase(t)

	err := store.DB().Create(&entities.TreeUpdate{
		TreeID:        999,
		UpdateDate:    time.Now(),
		WorkPerformed: "Repotted",
	}).Error
	require.Error(t, err)
	assert.True(t, IsForeignKeyViolation(err))
}

func TestResetDropsAllRows(t *testing.T) {
	t.Parallel()
	store := createDatabase(t)
	ctx := context.Background()

	seedTree(t, store.DB(), "BON-001", "Windswept")
	require.NoError(t, store.Reset(ctx))

	var count int64
	require.NoError(t, store.DB().Model(&entities.Tree{}).Count(&count).Error)
	assert.Zero(t, count)

	var setting entities.AppSetting
	require.NoError(t, store.DB().First(&setting, 1).Error, "reset must reseed settings")
}

func TestSQLiteBackup(t *testing.T) {
	t.Parallel()
	store := createDatabase(t)
	seedTree(t, store.DB(), "BON-001", "Windswept")

	sqliteStore, ok := store.(*SQLiteStore)
	require.True(t, ok)

	dest := filepath.Join(t.TempDir(), "backup.db")
	require.NoError(t, sqliteStore.Backup(context.Background(), dest))
	assert.FileExists(t, dest)

	err := sqliteStore.Backup(context.Background(), dest)
	require.Error(t, err)
	assert.True(t, errors.IsConflict(err))
}

func TestMigrateBackfillsLegacyColumns(t *testing.T) {
	t.Parallel()
	dbPath := filepath.Join(t.TempDir(), "legacy.db")

	// Schema of the first release: no tree_name, origin_date or is_archived.
	legacy, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{})
	require.NoError(t, err)
	for _, stmt := range []string{
		"CREATE TABLE species (id integer PRIMARY KEY, name varchar(100) NOT NULL UNIQUE, created_at datetime)",
		"CREATE TABLE trees (id integer PRIMARY KEY, tree_number varchar(50) NOT NULL UNIQUE, species_id integer NOT NULL, date_acquired datetime NOT NULL, current_girth real, notes text)",
		"INSERT INTO species (id, name, created_at) VALUES (1, 'Ficus retusa', '2021-01-01 00:00:00')",
		"INSERT INTO trees (id, tree_number, species_id, date_acquired, current_girth, notes) VALUES (1, 'BON-001', 1, '2021-05-04 00:00:00', 4.5, 'legacy')",
	} {
		require.NoError(t, legacy.Exec(stmt).Error)
	}
	sqlDB, err := legacy.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	settings := &conf.Settings{}
	settings.Database.Type = conf.DatabaseSQLite
	settings.Database.SQLite.Path = dbPath
	store, err := New(settings)
	require.NoError(t, err)
	require.NoError(t, store.Open())
	t.Cleanup(func() { _ = store.Close() })

	var tree entities.Tree
	require.NoError(t, store.DB().First(&tree, 1).Error)
	assert.Equal(t, "BON-001", tree.TreeName)
	assert.False(t, tree.IsArchived)
	assert.True(t, tree.OriginDate.Equal(tree.DateAcquired), "origin date should default to acquisition date")
	require.NotNil(t, tree.CurrentGirth)
	assert.InDelta(t, 4.5, *tree.CurrentGirth, 0.001)
}
