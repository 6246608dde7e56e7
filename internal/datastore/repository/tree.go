package repository

import (
	"context"

	"github.com/tphakala/bonsai-go/internal/datastore/entities"
)

// TreeFilter narrows ListTrees. The zero value lists active trees only.
type TreeFilter struct {
	IncludeArchived bool   // list active and archived trees
	ArchivedOnly    bool   // list the graveyard only, overrides IncludeArchived
	SpeciesID       uint   // 0 for any species
	Search          string // substring match on tree name or number
}

// TreeRepository provides access to the trees table.
type TreeRepository interface {
	// Create inserts a tree. TreeNumber must already be assigned.
	// Returns ErrDuplicateKey if the number or name is taken.
	Create(ctx context.Context, tree *entities.Tree) error

	// GetByID retrieves a tree with its species preloaded.
	// Returns ErrTreeNotFound if not found.
	GetByID(ctx context.Context, id uint) (*entities.Tree, error)

	// GetByNumber retrieves a tree by its "BON-###" number.
	// Returns ErrTreeNotFound if not found.
	GetByNumber(ctx context.Context, number string) (*entities.Tree, error)

	// List returns trees matching filter ordered by tree number.
	List(ctx context.Context, filter TreeFilter) ([]*entities.Tree, error)

	// LoadGraph returns every tree with species, updates, photos and
	// reminders preloaded in one read, ordered by tree number.
	LoadGraph(ctx context.Context) ([]*entities.Tree, error)

	// Update saves the scalar fields of an existing tree.
	// Returns ErrDuplicateKey if the new name is taken.
	Update(ctx context.Context, tree *entities.Tree) error

	// SetArchived flips the graveyard flag.
	SetArchived(ctx context.Context, id uint, archived bool) error

	// SetCurrentGirth overwrites the tree's latest girth; nil clears it.
	SetCurrentGirth(ctx context.Context, id uint, girth *float64) error

	// NameTaken reports whether another tree than excludeID uses name.
	NameTaken(ctx context.Context, name string, excludeID uint) (bool, error)

	// Count returns the total number of trees, archived included.
	Count(ctx context.Context) (int64, error)

	// Numbers returns every assigned tree number.
	Numbers(ctx context.Context) ([]string, error)

	// Delete removes a tree together with its updates, photos and reminders.
	// Returns ErrTreeNotFound if not found.
	Delete(ctx context.Context, id uint) error

	// DeleteAll removes every tree. Owned rows must be deleted first.
	DeleteAll(ctx context.Context) (int64, error)
}
