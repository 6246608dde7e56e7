package repository

import (
	"context"

	"github.com/tphakala/bonsai-go/internal/datastore/entities"
)

// UpdateRepository provides access to the tree_updates table.
type UpdateRepository interface {
	// Create inserts a work log entry.
	Create(ctx context.Context, update *entities.TreeUpdate) error

	// GetByID retrieves an update by its ID.
	// Returns ErrUpdateNotFound if not found.
	GetByID(ctx context.Context, id uint) (*entities.TreeUpdate, error)

	// ListByTree returns a tree's updates, newest first.
	ListByTree(ctx context.Context, treeID uint) ([]*entities.TreeUpdate, error)

	// Latest returns the newest update of a tree.
	// Returns ErrUpdateNotFound if the tree has none.
	Latest(ctx context.Context, treeID uint) (*entities.TreeUpdate, error)

	// Save overwrites an existing update.
	Save(ctx context.Context, update *entities.TreeUpdate) error

	// Delete removes an update by ID.
	// Returns ErrUpdateNotFound if not found.
	Delete(ctx context.Context, id uint) error

	// DeleteAll removes every update.
	DeleteAll(ctx context.Context) (int64, error)
}
