package entities

import "time"

// Tree is a single bonsai in the collection.
// IsArchived marks a soft-deleted ("graveyard") tree that is hidden from the active view.
type Tree struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	TreeNumber   string    `gorm:"size:50;not null;uniqueIndex:idx_trees_number" json:"tree_number"`
	TreeName     string    `gorm:"size:100;not null;uniqueIndex:idx_trees_name" json:"tree_name"`
	SpeciesID    uint      `gorm:"not null;index" json:"species_id"`
	DateAcquired time.Time `gorm:"not null" json:"date_acquired"`
	OriginDate   time.Time `gorm:"not null" json:"origin_date"`
	CurrentGirth *float64  `json:"current_girth,omitempty"` // cm, latest measurement
	Notes        string    `gorm:"type:text" json:"notes,omitempty"`
	IsArchived   bool      `gorm:"not null;default:false;index" json:"is_archived"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`

	// Relationships
	Species   *Species     `gorm:"foreignKey:SpeciesID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"species,omitempty"`
	Updates   []TreeUpdate `gorm:"foreignKey:TreeID;constraint:OnDelete:CASCADE" json:"updates,omitempty"`
	Photos    []Photo      `gorm:"foreignKey:TreeID;constraint:OnDelete:CASCADE" json:"photos,omitempty"`
	Reminders []Reminder   `gorm:"foreignKey:TreeID;constraint:OnDelete:CASCADE" json:"reminders,omitempty"`
}

// TableName returns the table name for GORM.
func (Tree) TableName() string {
	return "trees"
}

// SpeciesName returns the species name or an empty string when not preloaded.
func (t *Tree) SpeciesName() string {
	if t.Species == nil {
		return ""
	}
	return t.Species.Name
}
