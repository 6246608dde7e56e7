package entities

import "time"

// Photo is an image of a tree kept in image storage.
type Photo struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	TreeID      uint      `gorm:"not null;index" json:"tree_id"`
	FilePath    string    `gorm:"size:255;not null" json:"file_path"`
	PhotoDate   time.Time `gorm:"not null;index" json:"photo_date"` // taken date from EXIF, else upload time
	UploadDate  time.Time `gorm:"not null" json:"upload_date"`
	Description string    `gorm:"type:text" json:"description,omitempty"`
	IsStarred   bool      `gorm:"not null;default:false" json:"is_starred"`
}

// TableName returns the table name for GORM.
func (Photo) TableName() string {
	return "photos"
}
