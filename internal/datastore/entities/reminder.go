package entities

import "time"

// Reminder is a dated maintenance reminder for a tree.
type Reminder struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	TreeID           uint      `gorm:"not null;index" json:"tree_id"`
	ReminderDate     time.Time `gorm:"not null;index:idx_reminders_due,priority:1" json:"reminder_date"`
	Message          string    `gorm:"type:text;not null" json:"message"`
	IsCompleted      bool      `gorm:"not null;default:false;index:idx_reminders_due,priority:2" json:"is_completed"`
	NotificationSent bool      `gorm:"not null;default:false" json:"notification_sent"`
	CreatedDate      time.Time `gorm:"not null" json:"created_date"`

	Tree *Tree `gorm:"foreignKey:TreeID" json:"tree,omitempty"`
}

// TableName returns the table name for GORM.
func (Reminder) TableName() string {
	return "reminders"
}

// IsDue reports whether the reminder is pending and its date is on or before day.
func (r *Reminder) IsDue(day time.Time) bool {
	return !r.IsCompleted && !r.ReminderDate.After(day)
}
