// Package imagestore keeps tree photos on the local filesystem.
//
// Uploaded files are validated, stamped with their EXIF taken date when one is
// present, optionally rotated upright, and written under unique names of the
// form tree_YYYYMMDD_HHMMSS.ext.
package imagestore

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	_ "golang.org/x/image/webp" // Register WebP decoder

	"github.com/tphakala/bonsai-go/internal/conf"
	"github.com/tphakala/bonsai-go/internal/errors"
	"github.com/tphakala/bonsai-go/internal/logger"
)

// uploadTimestampLayout names uploaded files after their upload time.
const uploadTimestampLayout = "20060102_150405"

// maxNameAttempts bounds the sequence suffix search for a free file name.
const maxNameAttempts = 1000

// Store manages photo files under one directory.
// Safe for concurrent use.
type Store struct {
	dir            string
	allowed        []string
	maxBytes       int64
	fixOrientation bool
	now            func() time.Time
	mu             sync.Mutex // serializes name reservation
}

// Saved describes a stored photo.
type Saved struct {
	Path      string
	PhotoDate time.Time // EXIF taken date, else the upload time
	FromExif  bool
	Size      int64
}

// New creates the image directory if needed and returns a Store for it.
func New(settings *conf.ImageSettings) (*Store, error) {
	if settings.Path == "" {
		return nil, errors.Newf("image directory is not configured").
			Component("imagestore").
			Category(errors.CategoryConfiguration).
			Build()
	}
	if err := os.MkdirAll(settings.Path, 0o750); err != nil {
		return nil, errors.New(err).
			Component("imagestore").
			Category(errors.CategoryFileIO).
			Context("operation", "create_image_directory").
			Context("path", settings.Path).
			Build()
	}

	allowed := make([]string, 0, len(settings.AllowedExtensions))
	for _, ext := range settings.AllowedExtensions {
		allowed = append(allowed, strings.ToLower(ext))
	}

	return &Store{
		dir:            settings.Path,
		allowed:        allowed,
		maxBytes:       settings.MaxUploadBytes(),
		fixOrientation: settings.FixOrientation,
		now:            time.Now,
	}, nil
}

// Dir returns the storage directory.
func (s *Store) Dir() string {
	return s.dir
}

// IsAllowed reports whether name has an accepted image extension.
func (s *Store) IsAllowed(name string) bool {
	return slices.Contains(s.allowed, strings.ToLower(filepath.Ext(name)))
}

// Contains reports whether path lies inside the storage directory.
func (s *Store) Contains(path string) bool {
	rel, err := filepath.Rel(s.dir, path)
	if err != nil {
		return false
	}
	return rel != "." && !strings.HasPrefix(rel, "..") && !filepath.IsAbs(rel)
}

// SaveFile stores a copy of the image at path.
func (s *Store) SaveFile(ctx context.Context, path string) (*Saved, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.New(err).
			Component("imagestore").
			Category(errors.CategoryFileIO).
			Context("operation", "open_upload").
			Context("path", path).
			Build()
	}
	defer f.Close()

	return s.Save(ctx, f, filepath.Base(path))
}

// Save validates and stores an uploaded image read from r.
// originalName supplies the extension.
func (s *Store) Save(ctx context.Context, r io.Reader, originalName string) (*Saved, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ext := strings.ToLower(filepath.Ext(originalName))
	if !s.IsAllowed(originalName) {
		return nil, errors.Newf("unsupported image type %q, allowed: %s", ext, strings.Join(s.allowed, ", ")).
			Component("imagestore").
			Category(errors.CategoryValidation).
			Context("file_name", originalName).
			Build()
	}

	data, err := s.readLimited(r)
	if err != nil {
		return nil, err
	}

	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Newf("%s is not a readable image: %v", originalName, err).
			Component("imagestore").
			Category(errors.CategoryValidation).
			Context("file_name", originalName).
			Build()
	}
	GetLogger().Trace("image accepted", logger.String("format", format), logger.Int("bytes", len(data)))

	uploadedAt := s.now()
	meta := ReadMetadata(data)

	if s.fixOrientation && meta.Orientation > 1 && (ext == ".jpg" || ext == ".jpeg") {
		fixed, err := fixJPEGOrientation(data, meta.Orientation)
		if err != nil {
			// Store the original bytes unrotated.
			GetLogger().Warn("failed to correct image orientation",
				logger.String("file_name", originalName),
				logger.Int("orientation", meta.Orientation),
				logger.Error(err))
		} else {
			data = fixed
		}
	}

	path, err := s.Reserve("tree_"+uploadedAt.Format(uploadTimestampLayout), ext)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(path, data, 0o640); err != nil {
		_ = os.Remove(path)
		return nil, errors.New(err).
			Component("imagestore").
			Category(errors.CategoryFileIO).
			FileContext(path, int64(len(data))).
			Context("operation", "write_image").
			Build()
	}

	saved := &Saved{Path: path, PhotoDate: uploadedAt, Size: int64(len(data))}
	if !meta.TakenAt.IsZero() {
		saved.PhotoDate = meta.TakenAt
		saved.FromExif = true
	}

	GetLogger().Debug("image stored",
		logger.String("path", path),
		logger.Bool("exif_date", saved.FromExif),
		logger.Int64("bytes", saved.Size))
	return saved, nil
}

func (s *Store) readLimited(r io.Reader) ([]byte, error) {
	if s.maxBytes <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return nil, errors.New(err).
			Component("imagestore").
			Category(errors.CategoryFileIO).
			Context("operation", "read_upload").
			Build()
	}
	if int64(len(data)) > s.maxBytes {
		return nil, errors.Newf("image exceeds the %d byte upload limit", s.maxBytes).
			Component("imagestore").
			Category(errors.CategoryValidation).
			Build()
	}
	return data, nil
}

// Reserve claims a free path stem+ext in the storage directory by creating an
// empty file, adding _2, _3, ... to the stem on collision. The caller owns the
// returned path and must write or remove it.
func (s *Store) Reserve(stem, ext string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := 1; i <= maxNameAttempts; i++ {
		name := stem + ext
		if i > 1 {
			name = fmt.Sprintf("%s_%d%s", stem, i, ext)
		}
		path := filepath.Join(s.dir, name)

		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o640)
		if err == nil {
			return path, f.Close()
		}
		if !os.IsExist(err) {
			return "", errors.New(err).
				Component("imagestore").
				Category(errors.CategoryFileIO).
				Context("operation", "reserve_image_name").
				Context("path", path).
				Build()
		}
	}

	return "", errors.Newf("no free file name for %s%s after %d attempts", stem, ext, maxNameAttempts).
		Component("imagestore").
		Category(errors.CategoryConflict).
		Build()
}

// StagingDir creates a temporary directory inside the storage directory so
// staged files can later be promoted with a rename.
func (s *Store) StagingDir() (string, error) {
	dir, err := os.MkdirTemp(s.dir, ".staging-")
	if err != nil {
		return "", errors.New(err).
			Component("imagestore").
			Category(errors.CategoryFileIO).
			Context("operation", "create_staging_directory").
			Build()
	}
	return dir, nil
}

// Promote moves a staged file onto its reserved final path.
func (s *Store) Promote(staged, final string) error {
	if err := os.Rename(staged, final); err != nil {
		return errors.New(err).
			Component("imagestore").
			Category(errors.CategoryFileIO).
			Context("operation", "promote_image").
			Context("path", final).
			Build()
	}
	return nil
}

// Remove deletes a stored photo. Paths outside the storage directory are
// refused and files that are already gone are not an error.
func (s *Store) Remove(path string) error {
	if path == "" {
		return nil
	}
	if !s.Contains(path) {
		return errors.Newf("refusing to delete %s outside the image directory", path).
			Component("imagestore").
			Category(errors.CategoryValidation).
			Build()
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errors.New(err).
			Component("imagestore").
			Category(errors.CategoryFileIO).
			Context("operation", "delete_image").
			Context("path", path).
			Build()
	}
	return nil
}

// RemoveAll deletes each path, logging failures instead of returning them.
func (s *Store) RemoveAll(paths []string) int {
	removed := 0
	for _, p := range paths {
		if err := s.Remove(p); err != nil {
			GetLogger().Warn("failed to remove image", logger.String("path", p), logger.Error(err))
			continue
		}
		removed++
	}
	return removed
}
