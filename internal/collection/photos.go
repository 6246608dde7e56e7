package collection

import (
	"context"

	"github.com/tphakala/bonsai-go/internal/datastore/entities"
	"github.com/tphakala/bonsai-go/internal/datastore/repository"
	"github.com/tphakala/bonsai-go/internal/imagestore"
	"github.com/tphakala/bonsai-go/internal/logger"
)

// AddPhotos stores uploads and attaches them to a tree. Each photo is dated
// from its EXIF taken date, else the upload time.
func (s *Service) AddPhotos(ctx context.Context, treeID uint, uploads []Upload, description string) ([]*entities.Photo, error) {
	if len(uploads) == 0 {
		return nil, validationError("no photos to add")
	}
	if err := s.checkUploads(uploads); err != nil {
		return nil, err
	}
	if _, err := s.read().Trees.GetByID(ctx, treeID); err != nil {
		return nil, s.wrap("photo_add", err)
	}

	saved, err := s.storeUploads(ctx, uploads)
	if err != nil {
		return nil, err
	}

	var photos []*entities.Photo
	err = s.unitOfWork(ctx, "photo_add", func(r *repository.Set) error {
		if _, err := r.Trees.GetByID(ctx, treeID); err != nil {
			return err
		}
		var err error
		photos, err = s.createPhotoRows(ctx, r, treeID, saved, description)
		return err
	})
	if err != nil {
		s.discardUploads(saved)
		return nil, err
	}

	GetLogger().Info("photos added", logger.Uint("tree_id", treeID), logger.Int("count", len(photos)))
	return photos, nil
}

// ListPhotos returns a tree's photos, the starred one first.
func (s *Service) ListPhotos(ctx context.Context, treeID uint) ([]*entities.Photo, error) {
	photos, err := s.read().Photos.ListByTree(ctx, treeID)
	return photos, s.wrap("photo_list", err)
}

// GetPhoto returns a photo row.
func (s *Service) GetPhoto(ctx context.Context, id uint) (*entities.Photo, error) {
	photo, err := s.read().Photos.GetByID(ctx, id)
	if err != nil {
		return nil, s.wrap("photo_get", err)
	}
	return photo, nil
}

// StarPhoto stars or unstars a photo. A tree has at most one starred photo;
// starring clears the previous star in the same transaction.
func (s *Service) StarPhoto(ctx context.Context, id uint, starred bool) error {
	return s.unitOfWork(ctx, "photo_star", func(r *repository.Set) error {
		return r.Photos.SetStarred(ctx, id, starred)
	})
}

// DeletePhoto removes a photo row and its file.
func (s *Service) DeletePhoto(ctx context.Context, id uint) error {
	var photo *entities.Photo
	err := s.unitOfWork(ctx, "photo_delete", func(r *repository.Set) error {
		var err error
		if photo, err = r.Photos.GetByID(ctx, id); err != nil {
			return err
		}
		return r.Photos.Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	if err := s.images.Remove(photo.FilePath); err != nil {
		GetLogger().Warn("photo row deleted but file remains",
			logger.Uint("photo_id", id),
			logger.String("path", photo.FilePath),
			logger.Error(err))
	}
	return nil
}

// checkUploads rejects unsupported file types before anything is written.
func (s *Service) checkUploads(uploads []Upload) error {
	for _, u := range uploads {
		if u.Reader == nil {
			return validationError("photo %q has no content", u.Name)
		}
		if !s.images.IsAllowed(u.Name) {
			return validationError("photo %q has an unsupported file type", u.Name)
		}
	}
	return nil
}

// storeUploads writes every upload to the image store. On failure the files
// already written are removed.
func (s *Service) storeUploads(ctx context.Context, uploads []Upload) ([]*imagestore.Saved, error) {
	saved := make([]*imagestore.Saved, 0, len(uploads))
	for _, u := range uploads {
		sv, err := s.images.Save(ctx, u.Reader, u.Name)
		if err != nil {
			s.discardUploads(saved)
			return nil, err
		}
		saved = append(saved, sv)
	}
	return saved, nil
}

func (s *Service) discardUploads(saved []*imagestore.Saved) {
	paths := make([]string, len(saved))
	for i, sv := range saved {
		paths[i] = sv.Path
	}
	s.images.RemoveAll(paths)
}

func (s *Service) createPhotoRows(ctx context.Context, r *repository.Set, treeID uint, saved []*imagestore.Saved, description string) ([]*entities.Photo, error) {
	uploadedAt := s.now()
	photos := make([]*entities.Photo, 0, len(saved))
	for _, sv := range saved {
		photo := &entities.Photo{
			TreeID:      treeID,
			FilePath:    sv.Path,
			PhotoDate:   sv.PhotoDate,
			UploadDate:  uploadedAt,
			Description: description,
		}
		if err := r.Photos.Create(ctx, photo); err != nil {
			return nil, err
		}
		photos = append(photos, photo)
	}
	return photos, nil
}

