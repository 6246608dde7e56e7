package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/tphakala/bonsai-go/internal/datastore/entities"
	"github.com/tphakala/bonsai-go/internal/errors"
)

// SequenceRepository keeps named monotonic counters.
type SequenceRepository interface {
	// Current returns the value of name, 0 when it was never raised.
	Current(ctx context.Context, name string) (int64, error)

	// Raise sets name to value unless it already holds a larger one.
	Raise(ctx context.Context, name string, value int64) error
}

type sequenceRepository struct {
	db *gorm.DB
}

// NewSequenceRepository creates a new SequenceRepository.
func NewSequenceRepository(db *gorm.DB) SequenceRepository {
	return &sequenceRepository{db: db}
}

func (r *sequenceRepository) Current(ctx context.Context, name string) (int64, error) {
	var seq entities.Sequence
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&seq).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return seq.Value, nil
}

func (r *sequenceRepository) Raise(ctx context.Context, name string, value int64) error {
	current, err := r.Current(ctx, name)
	if err != nil {
		return err
	}
	if value <= current {
		return nil
	}
	return r.db.WithContext(ctx).Save(&entities.Sequence{Name: name, Value: value}).Error
}
