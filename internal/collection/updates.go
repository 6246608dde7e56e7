package collection

import (
	"context"

	"github.com/tphakala/bonsai-go/internal/datastore/entities"
	"github.com/tphakala/bonsai-go/internal/datastore/repository"
	"github.com/tphakala/bonsai-go/internal/imagestore"
	"github.com/tphakala/bonsai-go/internal/logger"
)

// RecordUpdate logs work on a tree. In one transaction it inserts the
// update, copies its girth onto the tree, attaches the uploaded photos and
// creates the requested reminder.
func (s *Service) RecordUpdate(ctx context.Context, treeID uint, in UpdateInput) (*entities.TreeUpdate, error) {
	in.normalize()
	if err := s.validate.Struct(in); err != nil {
		return nil, err
	}
	if err := s.checkUploads(in.Photos); err != nil {
		return nil, err
	}
	if _, err := s.read().Trees.GetByID(ctx, treeID); err != nil {
		return nil, s.wrap("update_record", err)
	}

	var saved []*imagestore.Saved
	if len(in.Photos) > 0 {
		var err error
		if saved, err = s.storeUploads(ctx, in.Photos); err != nil {
			return nil, err
		}
	}

	description := in.PhotoDescription
	if description == "" {
		description = in.WorkPerformed
	}

	update := &entities.TreeUpdate{
		TreeID:        treeID,
		UpdateDate:    in.UpdateDate,
		Girth:         in.Girth,
		WorkPerformed: in.WorkPerformed,
	}
	if update.UpdateDate.IsZero() {
		update.UpdateDate = s.now()
	}

	err := s.unitOfWork(ctx, "update_record", func(r *repository.Set) error {
		if _, err := r.Trees.GetByID(ctx, treeID); err != nil {
			return err
		}
		if err := r.Updates.Create(ctx, update); err != nil {
			return err
		}
		if update.Girth != nil {
			if err := r.Trees.SetCurrentGirth(ctx, treeID, update.Girth); err != nil {
				return err
			}
		}
		if _, err := s.createPhotoRows(ctx, r, treeID, saved, description); err != nil {
			return err
		}
		if in.Reminder != nil {
			reminder := &entities.Reminder{
				TreeID:       treeID,
				ReminderDate: in.Reminder.ReminderDate,
				Message:      in.Reminder.Message,
				CreatedDate:  s.now(),
			}
			if err := r.Reminders.Create(ctx, reminder); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.discardUploads(saved)
		return nil, err
	}

	GetLogger().Info("tree update recorded",
		logger.Uint("tree_id", treeID),
		logger.Uint("update_id", update.ID),
		logger.Int("photos", len(saved)),
		logger.Bool("reminder", in.Reminder != nil))
	return update, nil
}

// ListUpdates returns a tree's updates, newest first.
func (s *Service) ListUpdates(ctx context.Context, treeID uint) ([]*entities.TreeUpdate, error) {
	updates, err := s.read().Updates.ListByTree(ctx, treeID)
	return updates, s.wrap("update_list", err)
}

// EditUpdate rewrites an update's date, girth and work text. A girth value
// is copied onto the tree as its current girth. Photos and reminder in in
// are ignored.
func (s *Service) EditUpdate(ctx context.Context, id uint, in UpdateInput) (*entities.TreeUpdate, error) {
	in.normalize()
	in.Reminder = nil
	if err := s.validate.Struct(in); err != nil {
		return nil, err
	}

	var update *entities.TreeUpdate
	err := s.unitOfWork(ctx, "update_edit", func(r *repository.Set) error {
		var err error
		if update, err = r.Updates.GetByID(ctx, id); err != nil {
			return err
		}
		if !in.UpdateDate.IsZero() {
			update.UpdateDate = in.UpdateDate
		}
		update.Girth = in.Girth
		update.WorkPerformed = in.WorkPerformed
		if err := r.Updates.Save(ctx, update); err != nil {
			return err
		}
		if update.Girth != nil {
			return r.Trees.SetCurrentGirth(ctx, update.TreeID, update.Girth)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return update, nil
}

// DeleteUpdate removes an update. The tree's current girth is left as is.
func (s *Service) DeleteUpdate(ctx context.Context, id uint) error {
	return s.unitOfWork(ctx, "update_delete", func(r *repository.Set) error {
		return r.Updates.Delete(ctx, id)
	})
}
