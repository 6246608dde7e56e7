package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/tphakala/bonsai-go/internal/datastore/entities"
	"github.com/tphakala/bonsai-go/internal/errors"
)

// updateRepository implements UpdateRepository.
type updateRepository struct {
	db *gorm.DB
}

// NewUpdateRepository creates a new UpdateRepository.
func NewUpdateRepository(db *gorm.DB) UpdateRepository {
	return &updateRepository{db: db}
}

func (r *updateRepository) Create(ctx context.Context, update *entities.TreeUpdate) error {
	return r.db.WithContext(ctx).Create(update).Error
}

func (r *updateRepository) GetByID(ctx context.Context, id uint) (*entities.TreeUpdate, error) {
	var update entities.TreeUpdate
	err := r.db.WithContext(ctx).First(&update, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUpdateNotFound
	}
	if err != nil {
		return nil, err
	}
	return &update, nil
}

func (r *updateRepository) ListByTree(ctx context.Context, treeID uint) ([]*entities.TreeUpdate, error) {
	var updates []*entities.TreeUpdate
	err := r.db.WithContext(ctx).
		Where("tree_id = ?", treeID).
		Order("update_date DESC, id DESC").
		Find(&updates).Error
	return updates, err
}

func (r *updateRepository) Latest(ctx context.Context, treeID uint) (*entities.TreeUpdate, error) {
	var update entities.TreeUpdate
	err := r.db.WithContext(ctx).
		Where("tree_id = ?", treeID).
		Order("update_date DESC, id DESC").
		First(&update).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUpdateNotFound
	}
	if err != nil {
		return nil, err
	}
	return &update, nil
}

func (r *updateRepository) Save(ctx context.Context, update *entities.TreeUpdate) error {
	if update.ID == 0 {
		return ErrUpdateNotFound
	}
	return r.db.WithContext(ctx).Save(update).Error
}

func (r *updateRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&entities.TreeUpdate{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUpdateNotFound
	}
	return nil
}

func (r *updateRepository) DeleteAll(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).Where("1 = 1").Delete(&entities.TreeUpdate{})
	return result.RowsAffected, result.Error
}
