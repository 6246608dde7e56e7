package collection

import (
	"io"
	"strings"
	"time"
)

// TreeInput carries the editable fields of a tree.
type TreeInput struct {
	TreeName     string    `json:"tree_name" validate:"required,max=100"`
	Species      string    `json:"species" validate:"required,max=100"`
	DateAcquired time.Time `json:"date_acquired" validate:"required"`
	OriginDate   time.Time `json:"origin_date" validate:"required"`
	CurrentGirth *float64  `json:"current_girth,omitempty" validate:"omitempty,gte=0"`
	Notes        string    `json:"notes,omitempty"`
}

func (in *TreeInput) normalize() {
	in.TreeName = strings.TrimSpace(in.TreeName)
	in.Species = NormalizeSpeciesName(in.Species)
	in.Notes = strings.TrimSpace(in.Notes)
}

// ReminderInput requests a reminder. Both fields are required.
type ReminderInput struct {
	ReminderDate time.Time `json:"reminder_date" validate:"required"`
	Message      string    `json:"message" validate:"required"`
}

func (in *ReminderInput) normalize() {
	in.Message = strings.TrimSpace(in.Message)
}

// Upload is an image file supplied by a caller.
type Upload struct {
	Name   string    // original file name, supplies the extension
	Reader io.Reader // image bytes
}

// UpdateInput records work done on a tree, optionally with photos and a
// follow-up reminder.
type UpdateInput struct {
	UpdateDate       time.Time      `json:"update_date,omitempty"` // zero means now
	Girth            *float64       `json:"girth,omitempty" validate:"omitempty,gte=0"`
	WorkPerformed    string         `json:"work_performed" validate:"required"`
	PhotoDescription string         `json:"photo_description,omitempty"` // defaults to WorkPerformed
	Reminder         *ReminderInput `json:"reminder,omitempty"`
	Photos           []Upload       `json:"-"`
}

func (in *UpdateInput) normalize() {
	in.WorkPerformed = strings.TrimSpace(in.WorkPerformed)
	in.PhotoDescription = strings.TrimSpace(in.PhotoDescription)
	if in.Reminder != nil {
		in.Reminder.normalize()
	}
}
