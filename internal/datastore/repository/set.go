package repository

import "gorm.io/gorm"

// Set bundles every repository bound to one database handle, typically the
// transaction handle of a unit of work.
type Set struct {
	Species   SpeciesRepository
	Trees     TreeRepository
	Updates   UpdateRepository
	Photos    PhotoRepository
	Reminders ReminderRepository
	Settings  SettingRepository
	Sequences SequenceRepository
}

// NewSet creates all repositories on db.
func NewSet(db *gorm.DB) *Set {
	return &Set{
		Species:   NewSpeciesRepository(db),
		Trees:     NewTreeRepository(db),
		Updates:   NewUpdateRepository(db),
		Photos:    NewPhotoRepository(db),
		Reminders: NewReminderRepository(db),
		Settings:  NewSettingRepository(db),
		Sequences: NewSequenceRepository(db),
	}
}
