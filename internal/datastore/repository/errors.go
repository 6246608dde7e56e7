package repository

import "github.com/tphakala/bonsai-go/internal/errors"

// Sentinel errors for repository operations.
var (
	// ErrSpeciesNotFound indicates the requested species does not exist.
	ErrSpeciesNotFound = errors.NewStd("species not found")

	// ErrTreeNotFound indicates the requested tree does not exist.
	ErrTreeNotFound = errors.NewStd("tree not found")

	// ErrUpdateNotFound indicates the requested tree update does not exist.
	ErrUpdateNotFound = errors.NewStd("tree update not found")

	// ErrPhotoNotFound indicates the requested photo does not exist.
	ErrPhotoNotFound = errors.NewStd("photo not found")

	// ErrReminderNotFound indicates the requested reminder does not exist.
	ErrReminderNotFound = errors.NewStd("reminder not found")

	// ErrSettingsNotFound indicates the settings row has not been seeded.
	ErrSettingsNotFound = errors.NewStd("settings not found")

	// ErrDuplicateKey indicates a unique constraint violation.
	ErrDuplicateKey = errors.NewStd("duplicate key")
)
