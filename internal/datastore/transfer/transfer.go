// Package transfer copies a collection between datastores, typically from the
// default SQLite file to a MySQL server. Original ids are preserved so
// foreign keys stay valid.
package transfer

import (
	"context"
	"fmt"
	"slices"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tphakala/bonsai-go/internal/datastore"
	"github.com/tphakala/bonsai-go/internal/datastore/entities"
	"github.com/tphakala/bonsai-go/internal/errors"
	"github.com/tphakala/bonsai-go/internal/logger"
)

// Batch size limits.
const (
	DefaultBatchSize = 500
	MaxBatchSize     = 10000
)

// Options controls a copy.
type Options struct {
	BatchSize int  // rows per insert
	Clean     bool // delete every row in the target first
}

// TableStats reports one copied table.
type TableStats struct {
	Name     string
	Copied   int64
	Duration time.Duration
}

// Stats reports a whole copy.
type Stats struct {
	Tables   []TableStats
	Duration time.Duration
}

// Total returns the number of rows copied.
func (s *Stats) Total() int64 {
	var n int64
	for _, t := range s.Tables {
		n += t.Copied
	}
	return n
}

// table copies one entity type.
type table struct {
	name  string
	model any
	copy  func(ctx context.Context, src, dst *gorm.DB, batchSize int) (int64, error)
}

// tables in foreign key order.
var tables = []table{
	{"species", &entities.Species{}, copyRows[entities.Species]},
	{"trees", &entities.Tree{}, copyRows[entities.Tree]},
	{"tree_updates", &entities.TreeUpdate{}, copyRows[entities.TreeUpdate]},
	{"photos", &entities.Photo{}, copyRows[entities.Photo]},
	{"reminders", &entities.Reminder{}, copyRows[entities.Reminder]},
	{"app_settings", &entities.AppSetting{}, copyRows[entities.AppSetting]},
	{"sequences", &entities.Sequence{}, copyRows[entities.Sequence]},
}

// Copy copies every row from src to dst in a single transaction on dst.
// Both stores must be open, which also migrates their schema. Rows whose id
// already exists in dst are skipped unless opts.Clean is set.
func Copy(ctx context.Context, src, dst datastore.Interface, opts Options) (*Stats, error) {
	if opts.BatchSize == 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.BatchSize < 1 || opts.BatchSize > MaxBatchSize {
		return nil, errors.Newf("batch size must be between 1 and %d, got %d", MaxBatchSize, opts.BatchSize).
			Component("datastore.transfer").
			Category(errors.CategoryValidation).
			Build()
	}

	log := GetLogger()
	log.Info("copying collection",
		logger.String("source", src.Backend()+" "+src.Location()),
		logger.String("target", dst.Backend()+" "+dst.Location()),
		logger.Int("batch_size", opts.BatchSize))

	start := time.Now()
	stats := &Stats{}
	err := dst.Transaction(ctx, func(tx *gorm.DB) error {
		if opts.Clean {
			if err := clean(tx); err != nil {
				return err
			}
		}

		for _, t := range tables {
			if err := ctx.Err(); err != nil {
				return err
			}
			tableStart := time.Now()
			n, err := t.copy(ctx, src.DB(), tx, opts.BatchSize)
			if err != nil {
				return fmt.Errorf("copying %s: %w", t.name, err)
			}
			ts := TableStats{Name: t.name, Copied: n, Duration: time.Since(tableStart)}
			stats.Tables = append(stats.Tables, ts)
			log.Debug("table copied", logger.String("table", t.name), logger.Int64("rows", n), logger.Duration("duration", ts.Duration))
		}
		return nil
	})
	if err != nil {
		return nil, errors.New(err).
			Component("datastore.transfer").
			Category(errors.CategoryDatabase).
			Context("operation", "copy").
			Build()
	}

	stats.Duration = time.Since(start)
	log.Info("collection copied", logger.Int64("rows", stats.Total()), logger.Duration("duration", stats.Duration))
	return stats, nil
}

// copyRows streams rows of T from src to dst in primary key order.
func copyRows[T any](ctx context.Context, src, dst *gorm.DB, batchSize int) (int64, error) {
	var (
		batch  []T
		copied int64
	)
	result := src.WithContext(ctx).FindInBatches(&batch, batchSize, func(_ *gorm.DB, _ int) error {
		res := dst.WithContext(ctx).
			Omit(clause.Associations).
			Clauses(clause.OnConflict{DoNothing: true}).
			Create(&batch)
		if res.Error != nil {
			return res.Error
		}
		copied += res.RowsAffected
		return nil
	})
	return copied, result.Error
}

// clean deletes every row of the target in reverse foreign key order.
func clean(tx *gorm.DB) error {
	for _, t := range slices.Backward(tables) {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(t.model).Error; err != nil {
			return fmt.Errorf("cleaning %s: %w", t.name, err)
		}
	}
	return nil
}
