package datastore

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/tphakala/bonsai-go/internal/conf"
	"github.com/tphakala/bonsai-go/internal/logger"
)

// MySQLStore implements Interface for MySQL
type MySQLStore struct {
	DataStore
	Settings *conf.Settings
}

func mysqlDSN(m *conf.MySQLSettings) string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		m.Username, m.Password, m.Host, m.Port, m.Database)
}

// Open sets up the MySQL database connection and migrates the schema
func (store *MySQLStore) Open() error {
	cfg := &store.Settings.Database.MySQL

	gormLogger := logger.NewGormLoggerAdapter(GetLogger(), store.Settings.Database.SlowQueryThreshold)
	db, err := gorm.Open(mysql.Open(mysqlDSN(cfg)), &gorm.Config{Logger: gormLogger})
	if err != nil {
		GetLogger().Error("failed to open MySQL database",
			logger.String("host", cfg.Host),
			logger.Int("port", cfg.Port),
			logger.String("database", cfg.Database),
			logger.Error(err))
		return dbError(err, "open", "", "backend", conf.DatabaseMySQL, "location", store.Location())
	}

	// Configure connection pool
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying database: %w", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetConnMaxLifetime(time.Hour)

	store.db = db
	GetLogger().Info("database opened", logger.String("backend", describeBackend(store.Backend(), store.Location())))

	return store.Migrate(context.Background())
}

// Close MySQL database connections
func (store *MySQLStore) Close() error {
	return store.closeDB()
}

// Backend returns conf.DatabaseMySQL.
func (store *MySQLStore) Backend() string {
	return conf.DatabaseMySQL
}

// Location returns host:port/database without credentials.
func (store *MySQLStore) Location() string {
	m := store.Settings.Database.MySQL
	return fmt.Sprintf("%s:%d/%s", m.Host, m.Port, m.Database)
}
