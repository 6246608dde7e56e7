package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/tphakala/bonsai-go/internal/datastore"
	"github.com/tphakala/bonsai-go/internal/datastore/entities"
	"github.com/tphakala/bonsai-go/internal/errors"
)

// speciesRepository implements SpeciesRepository.
type speciesRepository struct {
	db *gorm.DB
}

// NewSpeciesRepository creates a new SpeciesRepository.
func NewSpeciesRepository(db *gorm.DB) SpeciesRepository {
	return &speciesRepository{db: db}
}

// GetOrCreate retrieves an existing species or creates a new one.
func (r *speciesRepository) GetOrCreate(ctx context.Context, name string) (*entities.Species, bool, error) {
	species, err := r.GetByName(ctx, name)
	if err == nil {
		return species, false, nil
	}
	if !errors.Is(err, ErrSpeciesNotFound) {
		return nil, false, err
	}

	species = &entities.Species{Name: name}
	createErr := r.db.WithContext(ctx).Create(species).Error
	if createErr == nil {
		return species, true, nil
	}

	// Another writer may have created it between the lookup and the insert.
	if datastore.IsUniqueViolation(createErr) {
		existing, findErr := r.GetByName(ctx, name)
		if findErr == nil {
			return existing, false, nil
		}
	}
	return nil, false, createErr
}

// GetByID retrieves a species by its ID.
func (r *speciesRepository) GetByID(ctx context.Context, id uint) (*entities.Species, error) {
	var species entities.Species
	err := r.db.WithContext(ctx).First(&species, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSpeciesNotFound
	}
	if err != nil {
		return nil, err
	}
	return &species, nil
}

// GetByName retrieves a species by exact name.
func (r *speciesRepository) GetByName(ctx context.Context, name string) (*entities.Species, error) {
	var species entities.Species
	err := r.db.WithContext(ctx).
		Where("name = ?", name).
		First(&species).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSpeciesNotFound
	}
	if err != nil {
		return nil, err
	}
	return &species, nil
}

// List returns all species ordered by name.
func (r *speciesRepository) List(ctx context.Context) ([]*entities.Species, error) {
	var species []*entities.Species
	err := r.db.WithContext(ctx).
		Order("name ASC").
		Find(&species).Error
	return species, err
}

// CountTrees returns the number of trees referencing the species.
func (r *speciesRepository) CountTrees(ctx context.Context, id uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.Tree{}).
		Where("species_id = ?", id).
		Count(&count).Error
	return count, err
}

// Delete removes a species by ID.
func (r *speciesRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&entities.Species{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrSpeciesNotFound
	}
	return nil
}
