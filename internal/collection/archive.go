package collection

import (
	"context"
	"time"

	"github.com/tphakala/bonsai-go/internal/errors"
	"github.com/tphakala/bonsai-go/internal/logger"
	"github.com/tphakala/bonsai-go/internal/observability/metrics"
)

// ImportResult reports the outcome of restoring an archive.
type ImportResult struct {
	Success        bool          `json:"success"`
	Message        string        `json:"message"`
	Trees          int           `json:"trees"`
	Updates        int           `json:"updates"`
	Photos         int           `json:"photos"`
	Reminders      int           `json:"reminders"`
	SkippedFolders int           `json:"skipped_folders"`
	Duration       time.Duration `json:"duration"`
}

// Archiver writes and restores collection archives.
type Archiver interface {
	// Export writes an archive into destinationDir and returns its path.
	Export(ctx context.Context, destinationDir string) (string, error)
	// Import replaces the collection with an archive's content. Failures
	// are reported in the result, never returned.
	Import(ctx context.Context, archivePath, imageDir string) ImportResult
}

func (s *Service) archiverOrError() (Archiver, error) {
	if s.archiver == nil {
		return nil, errors.Newf("archive support is not configured").
			Component("collection").
			Category(errors.CategoryConfiguration).
			Build()
	}
	return s.archiver, nil
}

// ExportCollection writes the whole collection to an archive in
// destinationDir and returns the archive path.
func (s *Service) ExportCollection(ctx context.Context, destinationDir string) (string, error) {
	a, err := s.archiverOrError()
	if err != nil {
		return "", err
	}

	start := time.Now()
	path, err := a.Export(ctx, destinationDir)
	s.observe(metrics.OpCollectionExport, start, err)
	return path, err
}

// ImportCollection replaces the collection with the content of an archive.
// Photos are written to imageDir, the configured image directory when empty.
func (s *Service) ImportCollection(ctx context.Context, archivePath, imageDir string) ImportResult {
	a, err := s.archiverOrError()
	if err != nil {
		return ImportResult{Message: err.Error()}
	}
	if imageDir == "" {
		imageDir = s.images.Dir()
	}

	start := time.Now()
	result := a.Import(ctx, archivePath, imageDir)
	s.invalidateSpecies()

	var resultErr error
	if !result.Success {
		resultErr = errors.Newf("import failed: %s", result.Message).
			Component("collection").
			Category(errors.CategoryArchive).
			Build()
		GetLogger().Warn("collection import failed", logger.String("archive", archivePath), logger.Error(resultErr))
	}
	s.observe(metrics.OpCollectionImport, start, resultErr)
	return result
}
