package datastore

import (
	"fmt"
	"slices"
	"time"

	"gorm.io/gorm"

	"github.com/tphakala/bonsai-go/internal/datastore/entities"
	"github.com/tphakala/bonsai-go/internal/errors"
	"github.com/tphakala/bonsai-go/internal/logger"
)

// MaxColumnsForDetailedDisplay defines the maximum number of columns to display
// in detailed logs. When more columns are present, only the count is shown.
const MaxColumnsForDetailedDisplay = 5

// legacyColumn is a column that older databases may lack. It is added as a
// nullable column and backfilled before AutoMigrate tightens its constraints.
type legacyColumn struct {
	model    any
	table    string
	column   string
	sqlType  string
	backfill string
}

// legacyColumns lists columns introduced after the first schema version.
var legacyColumns = []legacyColumn{
	{&entities.Tree{}, "trees", "tree_name", "varchar(100)",
		"UPDATE trees SET tree_name = tree_number WHERE tree_name IS NULL OR tree_name = ''"},
	{&entities.Tree{}, "trees", "origin_date", "datetime",
		"UPDATE trees SET origin_date = date_acquired WHERE origin_date IS NULL"},
	{&entities.Tree{}, "trees", "is_archived", "boolean",
		"UPDATE trees SET is_archived = false WHERE is_archived IS NULL"},
	{&entities.Photo{}, "photos", "is_starred", "boolean",
		"UPDATE photos SET is_starred = false WHERE is_starred IS NULL"},
	{&entities.Reminder{}, "reminders", "notification_sent", "boolean",
		"UPDATE reminders SET notification_sent = false WHERE notification_sent IS NULL"},
}

// performAutoMigration backfills legacy columns, migrates every table and
// seeds the settings row.
func performAutoMigration(db *gorm.DB) error {
	migrationStart := time.Now()
	migrationLogger := GetLogger().With(logger.String("dialect", db.Dialector.Name()))

	migrationLogger.Debug("starting database migration")

	backfilled, err := backfillLegacyColumns(db)
	if err != nil {
		return err
	}

	successCount, err := migrateTables(db, migrationLogger)
	if err != nil {
		return err
	}

	if err := seedSettings(db); err != nil {
		return err
	}

	migrationLogger.Debug("database migration completed",
		logger.Duration("total_duration", time.Since(migrationStart)),
		logger.Int("tables_migrated", successCount),
		logger.Int("legacy_columns_backfilled", backfilled))

	return nil
}

// backfillLegacyColumns adds and fills columns missing from tables created by
// older versions. Tables that do not exist yet are left to AutoMigrate.
func backfillLegacyColumns(db *gorm.DB) (int, error) {
	migrator := db.Migrator()
	count := 0

	for _, lc := range legacyColumns {
		if !migrator.HasTable(lc.model) {
			continue
		}
		if !migrator.HasColumn(lc.model, lc.column) {
			stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", lc.table, lc.column, lc.sqlType)
			if err := db.Exec(stmt).Error; err != nil {
				return count, dbError(err, "add_legacy_column", lc.table, "column", lc.column)
			}
			GetLogger().Info("added missing column",
				logger.String("table", lc.table),
				logger.String("column", lc.column))
		}
		result := db.Exec(lc.backfill)
		if result.Error != nil {
			return count, dbError(result.Error, "backfill_legacy_column", lc.table, "column", lc.column)
		}
		if result.RowsAffected > 0 {
			GetLogger().Info("backfilled legacy column",
				logger.String("table", lc.table),
				logger.String("column", lc.column),
				logger.Int64("rows", result.RowsAffected))
			count++
		}
	}

	return count, nil
}

// migrateTables performs the actual table migrations
func migrateTables(db *gorm.DB, log logger.Logger) (int, error) {
	models := entities.All()

	log.Debug("starting table migrations", logger.Int("table_count", len(models)))

	successCount := 0
	for _, model := range models {
		if err := migrateTable(db, model, log); err != nil {
			return successCount, err
		}
		successCount++
	}

	return successCount, nil
}

// migrateTable migrates a single table with detailed logging
func migrateTable(db *gorm.DB, model any, log logger.Logger) error {
	tableStart := time.Now()
	tableName := tableNameOf(db, model)

	tableExists := db.Migrator().HasTable(model)
	columnsBefore := getTableColumns(db, model, tableExists)

	if err := db.AutoMigrate(model); err != nil {
		enhancedErr := dbError(err, "auto_migrate_table", tableName)
		log.Error("table migration failed",
			logger.String("table", tableName),
			logger.Error(enhancedErr))
		return enhancedErr
	}

	action, addedColumns := determineTableChanges(db, model, tableExists, columnsBefore)
	logTableMigration(log, tableName, action, addedColumns, time.Since(tableStart))

	return nil
}

func tableNameOf(db *gorm.DB, model any) string {
	stmt := &gorm.Statement{DB: db}
	if err := stmt.Parse(model); err != nil {
		return fmt.Sprintf("%T", model)
	}
	return stmt.Schema.Table
}

// getTableColumns retrieves column names for a table
func getTableColumns(db *gorm.DB, model any, tableExists bool) []string {
	var columns []string
	if tableExists {
		if cols, err := db.Migrator().ColumnTypes(model); err == nil {
			for _, col := range cols {
				columns = append(columns, col.Name())
			}
		}
	}
	return columns
}

// determineTableChanges checks what changed after migration
func determineTableChanges(db *gorm.DB, model any, tableExists bool, columnsBefore []string) (action string, addedColumns []string) {
	cols, err := db.Migrator().ColumnTypes(model)
	if err != nil {
		return "updated", nil
	}

	if !tableExists {
		for _, col := range cols {
			addedColumns = append(addedColumns, col.Name())
		}
		return "created", addedColumns
	}

	for _, col := range cols {
		if !slices.Contains(columnsBefore, col.Name()) {
			addedColumns = append(addedColumns, col.Name())
		}
	}
	if len(addedColumns) == 0 {
		return "unchanged", nil
	}
	return "updated", addedColumns
}

// logTableMigration logs the result of a table migration
func logTableMigration(log logger.Logger, tableName, action string, addedColumns []string, duration time.Duration) {
	logFields := []logger.Field{
		logger.String("table", tableName),
		logger.String("action", action),
		logger.Duration("duration", duration),
	}

	if len(addedColumns) > 0 {
		logFields = append(logFields, logger.Int("columns_added", len(addedColumns)))
		if len(addedColumns) <= MaxColumnsForDetailedDisplay {
			logFields = append(logFields, logger.Any("new_columns", addedColumns))
		}
	}

	log.Debug("table migration completed", logFields...)
}

// seedSettings creates the settings singleton on first run.
func seedSettings(db *gorm.DB) error {
	setting := entities.AppSetting{ID: 1, AppTitle: entities.DefaultAppTitle}
	if err := db.FirstOrCreate(&setting, entities.AppSetting{ID: 1}).Error; err != nil {
		return dbError(err, "seed_settings", "settings")
	}
	return nil
}

// dropAllTables drops every entity table in reverse dependency order.
func dropAllTables(db *gorm.DB) error {
	models := entities.All()
	slices.Reverse(models)

	for _, model := range models {
		if err := db.Migrator().DropTable(model); err != nil {
			return errors.New(err).
				Component("datastore").
				Category(errors.CategoryDatabase).
				Context("operation", "drop_table").
				Context("table", tableNameOf(db, model)).
				Build()
		}
	}
	GetLogger().Warn("all tables dropped", logger.Int("table_count", len(models)))
	return nil
}
