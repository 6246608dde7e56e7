package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tphakala/bonsai-go/internal/datastore/entities"
	"github.com/tphakala/bonsai-go/internal/errors"
)

// reminderRepository implements ReminderRepository.
type reminderRepository struct {
	db *gorm.DB
}

// NewReminderRepository creates a new ReminderRepository.
func NewReminderRepository(db *gorm.DB) ReminderRepository {
	return &reminderRepository{db: db}
}

func (r *reminderRepository) Create(ctx context.Context, reminder *entities.Reminder) error {
	return r.db.WithContext(ctx).Omit("Tree").Create(reminder).Error
}

func (r *reminderRepository) GetByID(ctx context.Context, id uint) (*entities.Reminder, error) {
	var reminder entities.Reminder
	err := r.db.WithContext(ctx).Preload("Tree").First(&reminder, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrReminderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &reminder, nil
}

func (r *reminderRepository) List(ctx context.Context, filter ReminderFilter) ([]*entities.Reminder, error) {
	query := r.db.WithContext(ctx).Preload("Tree")
	if filter.TreeID != 0 {
		query = query.Where("tree_id = ?", filter.TreeID)
	}
	if !filter.IncludeCompleted {
		query = query.Where("is_completed = ?", false)
	}

	var reminders []*entities.Reminder
	err := query.Order("reminder_date ASC, id ASC").Find(&reminders).Error
	return reminders, err
}

func (r *reminderRepository) DueForNotification(ctx context.Context, until time.Time) ([]*entities.Reminder, error) {
	var reminders []*entities.Reminder
	err := r.db.WithContext(ctx).
		Preload("Tree").
		Where("reminder_date < ? AND is_completed = ? AND notification_sent = ?", until, false, false).
		Order("reminder_date ASC, id ASC").
		Find(&reminders).Error
	return reminders, err
}

func (r *reminderRepository) Due(ctx context.Context, until time.Time) ([]*entities.Reminder, error) {
	var reminders []*entities.Reminder
	err := r.db.WithContext(ctx).
		Preload("Tree").
		Where("reminder_date < ? AND is_completed = ?", until, false).
		Order("reminder_date ASC, id ASC").
		Find(&reminders).Error
	return reminders, err
}

func (r *reminderRepository) MarkCompleted(ctx context.Context, id uint, completed bool) error {
	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Model(&entities.Reminder{}).
		Where("id = ?", id).
		Update("is_completed", completed).Error
}

func (r *reminderRepository) MarkNotified(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Model(&entities.Reminder{}).
		Where("id = ?", id).
		Update("notification_sent", true).Error
}

func (r *reminderRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&entities.Reminder{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrReminderNotFound
	}
	return nil
}

func (r *reminderRepository) DeleteAll(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).Where("1 = 1").Delete(&entities.Reminder{})
	return result.RowsAffected, result.Error
}
