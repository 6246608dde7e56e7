package repository

import (
	"context"

	"github.com/tphakala/bonsai-go/internal/datastore/entities"
)

// SpeciesRepository provides access to the species table.
type SpeciesRepository interface {
	// GetOrCreate retrieves the species with the given name or creates it.
	// The boolean result is true when a new row was inserted.
	GetOrCreate(ctx context.Context, name string) (*entities.Species, bool, error)

	// GetByID retrieves a species by its ID.
	// Returns ErrSpeciesNotFound if not found.
	GetByID(ctx context.Context, id uint) (*entities.Species, error)

	// GetByName retrieves a species by exact name.
	// Returns ErrSpeciesNotFound if not found.
	GetByName(ctx context.Context, name string) (*entities.Species, error)

	// List returns all species ordered by name.
	List(ctx context.Context) ([]*entities.Species, error)

	// CountTrees returns how many trees reference the species.
	CountTrees(ctx context.Context, id uint) (int64, error)

	// Delete removes a species by ID.
	// Returns ErrSpeciesNotFound if not found.
	Delete(ctx context.Context, id uint) error
}
