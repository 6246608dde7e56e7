package repository

import (
	"context"
	"time"

	"github.com/tphakala/bonsai-go/internal/datastore/entities"
)

// ReminderFilter narrows reminder listings. The zero value lists pending
// reminders of every tree.
type ReminderFilter struct {
	TreeID           uint // 0 for every tree
	IncludeCompleted bool
}

// ReminderRepository provides access to the reminders table.
type ReminderRepository interface {
	// Create inserts a reminder.
	Create(ctx context.Context, reminder *entities.Reminder) error

	// GetByID retrieves a reminder with its tree preloaded.
	// Returns ErrReminderNotFound if not found.
	GetByID(ctx context.Context, id uint) (*entities.Reminder, error)

	// List returns reminders matching filter ordered by date.
	List(ctx context.Context, filter ReminderFilter) ([]*entities.Reminder, error)

	// DueForNotification returns pending reminders dated before until that
	// have not been notified yet, with their tree preloaded.
	DueForNotification(ctx context.Context, until time.Time) ([]*entities.Reminder, error)

	// Due returns pending reminders dated before until, notified or not.
	Due(ctx context.Context, until time.Time) ([]*entities.Reminder, error)

	// MarkCompleted sets the completion flag.
	// Returns ErrReminderNotFound if not found.
	MarkCompleted(ctx context.Context, id uint, completed bool) error

	// MarkNotified records that a notification was sent.
	MarkNotified(ctx context.Context, id uint) error

	// Delete removes a reminder by ID.
	// Returns ErrReminderNotFound if not found.
	Delete(ctx context.Context, id uint) error

	// DeleteAll removes every reminder.
	DeleteAll(ctx context.Context) (int64, error)
}
