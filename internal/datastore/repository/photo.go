package repository

import (
	"context"

	"github.com/tphakala/bonsai-go/internal/datastore/entities"
)

// PhotoRepository provides access to the photos table.
type PhotoRepository interface {
	// Create inserts a photo row. The file must already be stored.
	Create(ctx context.Context, photo *entities.Photo) error

	// GetByID retrieves a photo by its ID.
	// Returns ErrPhotoNotFound if not found.
	GetByID(ctx context.Context, id uint) (*entities.Photo, error)

	// ListByTree returns a tree's photos, starred first then newest first.
	ListByTree(ctx context.Context, treeID uint) ([]*entities.Photo, error)

	// ListAll returns every photo row.
	ListAll(ctx context.Context) ([]*entities.Photo, error)

	// SetStarred stars or unstars a photo. Starring clears every other star
	// on the same tree first, so at most one photo per tree is starred.
	SetStarred(ctx context.Context, id uint, starred bool) error

	// CountStarred returns the number of starred photos of a tree.
	CountStarred(ctx context.Context, treeID uint) (int64, error)

	// Delete removes a photo row by ID. The file is left in place.
	// Returns ErrPhotoNotFound if not found.
	Delete(ctx context.Context, id uint) error

	// DeleteAll removes every photo row.
	DeleteAll(ctx context.Context) (int64, error)
}
