package logger

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	gorm_logger "gorm.io/gorm/logger"

	"github.com/tphakala/bonsai-go/internal/errors"
)

// GormLoggerAdapter adapts Logger to GORM's logger.Interface.
// SQL statements go out at TRACE, slow statements and failures at WARN.
//
//	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
//	    Logger: logger.NewGormLoggerAdapter(log, 200*time.Millisecond),
//	})
type GormLoggerAdapter struct {
	logger        Logger
	slowThreshold time.Duration
	silent        bool
}

// NewGormLoggerAdapter creates a new GORM logger adapter. A zero slowThreshold
// disables slow query warnings.
func NewGormLoggerAdapter(log Logger, slowThreshold time.Duration) *GormLoggerAdapter {
	if log == nil {
		log = Global().Module("datastore")
	}
	return &GormLoggerAdapter{
		logger:        log,
		slowThreshold: slowThreshold,
	}
}

// LogMode only honours Silent; levels come from the module configuration.
func (a *GormLoggerAdapter) LogMode(level gorm_logger.LogLevel) gorm_logger.Interface {
	clone := *a
	clone.silent = level == gorm_logger.Silent
	return &clone
}

func (a *GormLoggerAdapter) Info(ctx context.Context, msg string, data ...any) {
	if !a.silent {
		a.logger.WithContext(ctx).Debug(fmt.Sprintf(msg, data...))
	}
}

func (a *GormLoggerAdapter) Warn(ctx context.Context, msg string, data ...any) {
	if !a.silent {
		a.logger.WithContext(ctx).Warn(fmt.Sprintf(msg, data...))
	}
}

func (a *GormLoggerAdapter) Error(ctx context.Context, msg string, data ...any) {
	if !a.silent {
		a.logger.WithContext(ctx).Error(fmt.Sprintf(msg, data...))
	}
}

// Trace logs one executed statement
func (a *GormLoggerAdapter) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	if a.silent {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()
	log := a.logger.WithContext(ctx)

	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
		log.Warn("query error",
			String("sql", sql),
			Int64("rows_affected", rows),
			Duration("elapsed", elapsed),
			Error(err))
	case a.slowThreshold > 0 && elapsed > a.slowThreshold:
		log.Warn("slow query",
			String("sql", sql),
			Int64("rows_affected", rows),
			Duration("elapsed", elapsed),
			Duration("threshold", a.slowThreshold))
	default:
		log.Trace("sql query",
			String("sql", sql),
			Int64("rows_affected", rows),
			Duration("elapsed", elapsed))
	}
}
