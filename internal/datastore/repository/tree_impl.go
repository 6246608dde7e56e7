package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tphakala/bonsai-go/internal/datastore"
	"github.com/tphakala/bonsai-go/internal/datastore/entities"
	"github.com/tphakala/bonsai-go/internal/errors"
)

// treeNumberOrder sorts "BON-999" before "BON-1000".
const treeNumberOrder = "LENGTH(tree_number) ASC, tree_number ASC"

// treeRepository implements TreeRepository.
type treeRepository struct {
	db *gorm.DB
}

// NewTreeRepository creates a new TreeRepository.
func NewTreeRepository(db *gorm.DB) TreeRepository {
	return &treeRepository{db: db}
}

// Create inserts a tree without touching its associations.
func (r *treeRepository) Create(ctx context.Context, tree *entities.Tree) error {
	err := r.db.WithContext(ctx).Omit(clause.Associations).Create(tree).Error
	if datastore.IsUniqueViolation(err) {
		return ErrDuplicateKey
	}
	return err
}

// GetByID retrieves a tree by its ID.
func (r *treeRepository) GetByID(ctx context.Context, id uint) (*entities.Tree, error) {
	var tree entities.Tree
	err := r.db.WithContext(ctx).
		Preload("Species").
		First(&tree, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTreeNotFound
	}
	if err != nil {
		return nil, err
	}
	return &tree, nil
}

// GetByNumber retrieves a tree by its number.
func (r *treeRepository) GetByNumber(ctx context.Context, number string) (*entities.Tree, error) {
	var tree entities.Tree
	err := r.db.WithContext(ctx).
		Preload("Species").
		Where("tree_number = ?", number).
		First(&tree).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTreeNotFound
	}
	if err != nil {
		return nil, err
	}
	return &tree, nil
}

// List returns trees matching filter.
func (r *treeRepository) List(ctx context.Context, filter TreeFilter) ([]*entities.Tree, error) {
	query := r.db.WithContext(ctx).Preload("Species")

	switch {
	case filter.ArchivedOnly:
		query = query.Where("is_archived = ?", true)
	case !filter.IncludeArchived:
		query = query.Where("is_archived = ?", false)
	}
	if filter.SpeciesID != 0 {
		query = query.Where("species_id = ?", filter.SpeciesID)
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("tree_name LIKE ? OR tree_number LIKE ?", pattern, pattern)
	}

	var trees []*entities.Tree
	err := query.Order(treeNumberOrder).Find(&trees).Error
	return trees, err
}

// LoadGraph returns the full collection graph.
func (r *treeRepository) LoadGraph(ctx context.Context) ([]*entities.Tree, error) {
	var trees []*entities.Tree
	err := r.db.WithContext(ctx).
		Preload("Species").
		Preload("Updates", func(db *gorm.DB) *gorm.DB {
			return db.Order("update_date ASC, id ASC")
		}).
		Preload("Photos", func(db *gorm.DB) *gorm.DB {
			return db.Order("photo_date ASC, id ASC")
		}).
		Preload("Reminders", func(db *gorm.DB) *gorm.DB {
			return db.Order("reminder_date ASC, id ASC")
		}).
		Order(treeNumberOrder).
		Find(&trees).Error
	return trees, err
}

// Update saves the scalar fields of an existing tree.
func (r *treeRepository) Update(ctx context.Context, tree *entities.Tree) error {
	if tree.ID == 0 {
		return ErrTreeNotFound
	}
	result := r.db.WithContext(ctx).Model(&entities.Tree{}).
		Where("id = ?", tree.ID).
		Select("tree_name", "species_id", "date_acquired", "origin_date", "current_girth", "notes", "is_archived").
		Omit(clause.Associations).
		Updates(tree)
	if datastore.IsUniqueViolation(result.Error) {
		return ErrDuplicateKey
	}
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTreeNotFound
	}
	return nil
}

// SetArchived flips the graveyard flag.
func (r *treeRepository) SetArchived(ctx context.Context, id uint, archived bool) error {
	return r.updateColumn(ctx, id, "is_archived", archived)
}

// SetCurrentGirth overwrites the tree's latest girth.
func (r *treeRepository) SetCurrentGirth(ctx context.Context, id uint, girth *float64) error {
	return r.updateColumn(ctx, id, "current_girth", girth)
}

func (r *treeRepository) updateColumn(ctx context.Context, id uint, column string, value any) error {
	// RowsAffected is 0 on MySQL when the value is unchanged, so existence is checked separately.
	var count int64
	if err := r.db.WithContext(ctx).Model(&entities.Tree{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrTreeNotFound
	}
	return r.db.WithContext(ctx).Model(&entities.Tree{}).
		Where("id = ?", id).
		Update(column, value).Error
}

// NameTaken reports whether another tree uses name.
func (r *treeRepository) NameTaken(ctx context.Context, name string, excludeID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.Tree{}).
		Where("tree_name = ? AND id <> ?", name, excludeID).
		Count(&count).Error
	return count > 0, err
}

// Count returns the total number of trees.
func (r *treeRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.Tree{}).Count(&count).Error
	return count, err
}

// Numbers returns every assigned tree number.
func (r *treeRepository) Numbers(ctx context.Context) ([]string, error) {
	var numbers []string
	err := r.db.WithContext(ctx).Model(&entities.Tree{}).
		Pluck("tree_number", &numbers).Error
	return numbers, err
}

// Delete removes a tree and everything it owns.
func (r *treeRepository) Delete(ctx context.Context, id uint) error {
	db := r.db.WithContext(ctx)
	for _, owned := range []any{&entities.Photo{}, &entities.TreeUpdate{}, &entities.Reminder{}} {
		if err := db.Where("tree_id = ?", id).Delete(owned).Error; err != nil {
			return err
		}
	}

	result := db.Delete(&entities.Tree{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTreeNotFound
	}
	return nil
}

// DeleteAll removes every tree.
func (r *treeRepository) DeleteAll(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).Where("1 = 1").Delete(&entities.Tree{})
	return result.RowsAffected, result.Error
}
