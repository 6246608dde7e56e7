package mqtt

import (
	"time"

	"github.com/tphakala/bonsai-go/internal/notification"
)

// ReminderEventType tags reminder payloads.
const ReminderEventType = "reminder"

// ReminderEvent is the JSON payload published for a due reminder.
//
// Field names are consumed by home automation rules; keep them stable.
type ReminderEvent struct {
	Type         string `json:"type"`
	Title        string `json:"title"`
	Message      string `json:"message"`
	ReminderID   uint   `json:"reminder_id"`
	TreeID       uint   `json:"tree_id"`
	TreeNumber   string `json:"tree_number,omitempty"`
	TreeName     string `json:"tree_name,omitempty"`
	ReminderDate string `json:"reminder_date"` // YYYY-MM-DD
	SentAt       string `json:"sent_at"`       // RFC 3339
}

// NewReminderEvent converts a notification message into its payload.
func NewReminderEvent(msg *notification.Message, sentAt time.Time) ReminderEvent {
	return ReminderEvent{
		Type:         ReminderEventType,
		Title:        msg.Title,
		Message:      msg.Body,
		ReminderID:   msg.ReminderID,
		TreeID:       msg.TreeID,
		TreeNumber:   msg.TreeNumber,
		TreeName:     msg.TreeName,
		ReminderDate: msg.ReminderDate.Format(time.DateOnly),
		SentAt:       sentAt.Format(time.RFC3339),
	}
}
