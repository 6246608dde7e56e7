package collection

import (
	"context"
	"time"

	"github.com/tphakala/bonsai-go/internal/datastore/entities"
	"github.com/tphakala/bonsai-go/internal/datastore/repository"
	"github.com/tphakala/bonsai-go/internal/logger"
)

// AddReminder schedules a reminder for a tree.
func (s *Service) AddReminder(ctx context.Context, treeID uint, in ReminderInput) (*entities.Reminder, error) {
	in.normalize()
	if err := s.validate.Struct(in); err != nil {
		return nil, err
	}

	reminder := &entities.Reminder{
		TreeID:       treeID,
		ReminderDate: in.ReminderDate,
		Message:      in.Message,
		CreatedDate:  s.now(),
	}
	err := s.unitOfWork(ctx, "reminder_add", func(r *repository.Set) error {
		if _, err := r.Trees.GetByID(ctx, treeID); err != nil {
			return err
		}
		return r.Reminders.Create(ctx, reminder)
	})
	if err != nil {
		return nil, err
	}

	GetLogger().Info("reminder added",
		logger.Uint("tree_id", treeID),
		logger.Time("reminder_date", reminder.ReminderDate))
	return reminder, nil
}

// ListReminders returns reminders matching filter ordered by date.
func (s *Service) ListReminders(ctx context.Context, filter ReminderFilter) ([]*entities.Reminder, error) {
	reminders, err := s.read().Reminders.List(ctx, filter)
	return reminders, s.wrap("reminder_list", err)
}

// DueReminders returns pending reminders dated on or before now's calendar day.
func (s *Service) DueReminders(ctx context.Context, now time.Time) ([]*entities.Reminder, error) {
	reminders, err := s.read().Reminders.Due(ctx, endOfDay(now))
	return reminders, s.wrap("reminder_due", err)
}

// PendingNotifications returns due reminders nobody has been notified about.
func (s *Service) PendingNotifications(ctx context.Context, now time.Time) ([]*entities.Reminder, error) {
	reminders, err := s.read().Reminders.DueForNotification(ctx, endOfDay(now))
	return reminders, s.wrap("reminder_pending", err)
}

// MarkReminderNotified records that a reminder notification went out.
func (s *Service) MarkReminderNotified(ctx context.Context, id uint) error {
	return s.unitOfWork(ctx, "reminder_notified", func(r *repository.Set) error {
		return r.Reminders.MarkNotified(ctx, id)
	})
}

// CompleteReminder marks a reminder done.
func (s *Service) CompleteReminder(ctx context.Context, id uint) error {
	return s.unitOfWork(ctx, "reminder_complete", func(r *repository.Set) error {
		return r.Reminders.MarkCompleted(ctx, id, true)
	})
}

// DeleteReminder removes a reminder.
func (s *Service) DeleteReminder(ctx context.Context, id uint) error {
	return s.unitOfWork(ctx, "reminder_delete", func(r *repository.Set) error {
		return r.Reminders.Delete(ctx, id)
	})
}

// endOfDay returns the start of the day after t, the exclusive bound for
// "due on or before t's day".
func endOfDay(t time.Time) time.Time {
	return startOfDay(t).AddDate(0, 0, 1)
}
