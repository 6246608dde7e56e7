package entities

import "time"

// TreeUpdate is one maintenance log entry for a tree.
// Saving an update with a girth overwrites Tree.CurrentGirth.
type TreeUpdate struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	TreeID        uint      `gorm:"not null;index:idx_tree_updates_tree_date,priority:1" json:"tree_id"`
	UpdateDate    time.Time `gorm:"not null;index:idx_tree_updates_tree_date,priority:2" json:"update_date"`
	Girth         *float64  `json:"girth,omitempty"` // cm
	WorkPerformed string    `gorm:"type:text;not null" json:"work_performed"`
}

// TableName returns the table name for GORM.
func (TreeUpdate) TableName() string {
	return "tree_updates"
}
