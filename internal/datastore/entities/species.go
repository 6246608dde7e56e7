package entities

import "time"

// Species is a shared, name-unique classification referenced by trees.
type Species struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:100;not null;uniqueIndex:idx_species_name" json:"name"`
	Notes     string    `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName returns the table name for GORM.
func (Species) TableName() string {
	return "species"
}
