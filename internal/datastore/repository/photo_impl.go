package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/tphakala/bonsai-go/internal/datastore/entities"
	"github.com/tphakala/bonsai-go/internal/errors"
)

// photoRepository implements PhotoRepository.
type photoRepository struct {
	db *gorm.DB
}

// NewPhotoRepository creates a new PhotoRepository.
func NewPhotoRepository(db *gorm.DB) PhotoRepository {
	return &photoRepository{db: db}
}

func (r *photoRepository) Create(ctx context.Context, photo *entities.Photo) error {
	return r.db.WithContext(ctx).Create(photo).Error
}

func (r *photoRepository) GetByID(ctx context.Context, id uint) (*entities.Photo, error) {
	var photo entities.Photo
	err := r.db.WithContext(ctx).First(&photo, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPhotoNotFound
	}
	if err != nil {
		return nil, err
	}
	return &photo, nil
}

func (r *photoRepository) ListByTree(ctx context.Context, treeID uint) ([]*entities.Photo, error) {
	var photos []*entities.Photo
	err := r.db.WithContext(ctx).
		Where("tree_id = ?", treeID).
		Order("is_starred DESC, photo_date DESC, id DESC").
		Find(&photos).Error
	return photos, err
}

func (r *photoRepository) ListAll(ctx context.Context) ([]*entities.Photo, error) {
	var photos []*entities.Photo
	err := r.db.WithContext(ctx).Order("id ASC").Find(&photos).Error
	return photos, err
}

// SetStarred clears the tree's stars and then sets the requested state.
// Callers wanting atomicity run it inside a transaction.
func (r *photoRepository) SetStarred(ctx context.Context, id uint, starred bool) error {
	photo, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}

	db := r.db.WithContext(ctx)
	if starred {
		if err := db.Model(&entities.Photo{}).
			Where("tree_id = ? AND is_starred = ?", photo.TreeID, true).
			Update("is_starred", false).Error; err != nil {
			return err
		}
	}

	return db.Model(&entities.Photo{}).
		Where("id = ?", id).
		Update("is_starred", starred).Error
}

func (r *photoRepository) CountStarred(ctx context.Context, treeID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.Photo{}).
		Where("tree_id = ? AND is_starred = ?", treeID, true).
		Count(&count).Error
	return count, err
}

func (r *photoRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&entities.Photo{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPhotoNotFound
	}
	return nil
}

func (r *photoRepository) DeleteAll(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).Where("1 = 1").Delete(&entities.Photo{})
	return result.RowsAffected, result.Error
}
