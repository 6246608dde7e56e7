// Package notification delivers due care reminders to push services.
//
// A Checker polls the collection for reminders whose date has arrived, hands
// each one to every configured Sender and flags the reminder once at least
// one sender accepted it. Delivery is throttled by a token bucket so a
// backlog of overdue reminders does not flood a chat channel.
package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/tphakala/bonsai-go/internal/datastore/entities"
)

// TitlePrefix starts the title of every reminder notification.
const TitlePrefix = "Bonsai Reminder: Tree "

// Message is one reminder notification.
type Message struct {
	Title        string    `json:"title"`
	Body         string    `json:"message"`
	ReminderID   uint      `json:"reminder_id"`
	TreeID       uint      `json:"tree_id"`
	TreeNumber   string    `json:"tree_number,omitempty"`
	TreeName     string    `json:"tree_name,omitempty"`
	ReminderDate time.Time `json:"reminder_date"`
}

// ReminderMessage builds the notification for r. r.Tree is used when loaded.
func ReminderMessage(r *entities.Reminder) *Message {
	msg := &Message{
		Body:         r.Message,
		ReminderID:   r.ID,
		TreeID:       r.TreeID,
		ReminderDate: r.ReminderDate,
	}

	if r.Tree != nil {
		msg.TreeNumber = r.Tree.TreeNumber
		msg.TreeName = r.Tree.TreeName
	}

	if msg.TreeNumber != "" {
		msg.Title = TitlePrefix + msg.TreeNumber
	} else {
		msg.Title = fmt.Sprintf("%s#%d", TitlePrefix, r.TreeID)
	}
	return msg
}

// Sender delivers messages to one destination.
type Sender interface {
	// Name identifies the sender in logs and metrics.
	Name() string
	Send(ctx context.Context, msg *Message) error
}
