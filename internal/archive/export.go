package archive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/gommon/bytes"
	"github.com/shirou/gopsutil/v3/disk"
	"gorm.io/gorm"

	"github.com/tphakala/bonsai-go/internal/collection"
	"github.com/tphakala/bonsai-go/internal/datastore/entities"
	"github.com/tphakala/bonsai-go/internal/datastore/repository"
	"github.com/tphakala/bonsai-go/internal/errors"
	"github.com/tphakala/bonsai-go/internal/logger"
)

const (
	archiveNamePrefix = "bonsai_export_"
	archiveTimeLayout = "20060102_150405"
	photoDateLayout   = "20060102"
)

// photoFile links a stored photo to its place in the archive.
type photoFile struct {
	source  string
	tree    int // index into Document.Trees
	photo   int // index into TreeRecord.Photos
	relPath string
}

// Export writes the collection to bonsai_export_<YYYYMMDD_HHMMSS>.zip in
// destinationDir, the configured export directory when empty. Photos whose
// files are missing are left out; any other failure aborts the export.
func (c *Codec) Export(ctx context.Context, destinationDir string) (string, error) {
	start := time.Now()
	if destinationDir == "" {
		destinationDir = c.settings.Export.Path
	}
	if err := os.MkdirAll(destinationDir, 0o750); err != nil {
		return "", exportError(err, "create_export_directory", destinationDir)
	}
	if err := c.checkFreeSpace(destinationDir); err != nil {
		return "", err
	}

	scratch, err := os.MkdirTemp("", "bonsai-export-")
	if err != nil {
		return "", exportError(err, "create_scratch_directory", "")
	}
	defer func() {
		if err := os.RemoveAll(scratch); err != nil {
			GetLogger().Warn("failed to remove export scratch directory", logger.String("path", scratch), logger.Error(err))
		}
	}()

	var trees []*entities.Tree
	err = c.store.Transaction(ctx, func(tx *gorm.DB) error {
		var err error
		trees, err = repository.NewTreeRepository(tx).LoadGraph(ctx)
		return err
	})
	if err != nil {
		return "", exportError(err, "load_collection", "")
	}

	now := c.now()
	doc, files := buildDocument(trees, now)

	missing, err := copyPhotos(ctx, scratch, files)
	if err != nil {
		return "", err
	}
	dropMissingPhotos(doc, missing)

	meta, err := c.writeContents(scratch, doc, now)
	if err != nil {
		return "", err
	}

	archivePath, size, err := zipToDestination(scratch, destinationDir, now)
	if err != nil {
		return "", err
	}

	GetLogger().Info("collection exported",
		logger.String("path", archivePath),
		logger.String("archive_id", meta.ID),
		logger.Int("trees", meta.Counts.Trees),
		logger.Int("photos", meta.Counts.Photos),
		logger.Int("missing_photos", len(missing)),
		logger.String("size", bytes.Format(size)),
		logger.Duration("duration", time.Since(start)))
	return archivePath, nil
}

func (c *Codec) checkFreeSpace(dir string) error {
	minFree := c.settings.Export.MinFreeBytes()
	if minFree <= 0 {
		return nil
	}

	usage, err := disk.Usage(dir)
	if err != nil {
		return errors.New(err).
			Component("archive").
			Category(errors.CategoryDiskUsage).
			Context("path", dir).
			Build()
	}
	if usage.Free < uint64(minFree) {
		return errors.Newf("not enough disk space in %s: need %s, have %s",
			dir, bytes.Format(minFree), bytes.Format(int64(usage.Free))).
			Component("archive").
			Category(errors.CategoryDiskUsage).
			Context("path", dir).
			Build()
	}
	return nil
}

// buildDocument converts the loaded graph into a Document and assigns each
// photo its archive file name. Same-day photos of one tree get _2, _3, ...
func buildDocument(trees []*entities.Tree, now time.Time) (*Document, []photoFile) {
	doc := &Document{Trees: make([]TreeRecord, 0, len(trees))}
	var files []photoFile

	for ti, t := range trees {
		rec := TreeRecord{
			TreeNumber:   t.TreeNumber,
			TreeName:     t.TreeName,
			Species:      t.SpeciesName(),
			DateAcquired: t.DateAcquired,
			OriginDate:   t.OriginDate,
			CurrentGirth: t.CurrentGirth,
			Notes:        t.Notes,
			IsArchived:   t.IsArchived,
			TrainingAge:  collection.TrainingAge(t, now),
			TrueAge:      collection.TrueAge(t, now),
			Updates:      make([]UpdateRecord, 0, len(t.Updates)),
			Photos:       make([]PhotoRecord, 0, len(t.Photos)),
			Reminders:    make([]ReminderRecord, 0, len(t.Reminders)),
		}

		for _, u := range t.Updates {
			rec.Updates = append(rec.Updates, UpdateRecord{
				Date:          u.UpdateDate,
				Girth:         u.Girth,
				WorkPerformed: u.WorkPerformed,
			})
		}

		used := make(map[string]bool, len(t.Photos))
		for _, p := range t.Photos {
			name := archivePhotoName(p, used)
			rec.Photos = append(rec.Photos, PhotoRecord{
				FileName:    name,
				PhotoDate:   p.PhotoDate,
				UploadDate:  p.UploadDate,
				Description: p.Description,
				IsStarred:   p.IsStarred,
			})
			files = append(files, photoFile{
				source:  p.FilePath,
				tree:    ti,
				photo:   len(rec.Photos) - 1,
				relPath: filepath.Join(ImagesDir, t.TreeNumber, name),
			})
		}

		for _, r := range t.Reminders {
			rec.Reminders = append(rec.Reminders, ReminderRecord{
				Date:             r.ReminderDate,
				Message:          r.Message,
				IsCompleted:      r.IsCompleted,
				NotificationSent: r.NotificationSent,
				CreatedDate:      r.CreatedDate,
			})
		}

		doc.Trees = append(doc.Trees, rec)
	}
	return doc, files
}

// archivePhotoName returns YYYYMMDD.<ext>, adding a sequence suffix when the
// name is already used by the same tree.
func archivePhotoName(p entities.Photo, used map[string]bool) string {
	ext := strings.ToLower(filepath.Ext(p.FilePath))
	if ext == "" {
		ext = ".jpg"
	}
	stem := p.PhotoDate.Format(photoDateLayout)

	name := stem + ext
	for i := 2; used[name]; i++ {
		name = fmt.Sprintf("%s_%d%s", stem, i, ext)
	}
	used[name] = true
	return name
}

// copyPhotos copies photo files into the scratch tree and returns the
// entries whose source file no longer exists.
func copyPhotos(ctx context.Context, scratch string, files []photoFile) ([]photoFile, error) {
	var missing []photoFile
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		err := copyFile(f.source, filepath.Join(scratch, f.relPath))
		if os.IsNotExist(err) {
			GetLogger().Warn("photo file missing, skipped",
				logger.String("path", f.source),
				logger.String("archive_path", f.relPath))
			missing = append(missing, f)
			continue
		}
		if err != nil {
			return nil, exportError(err, "copy_photo", f.source)
		}
	}
	return missing, nil
}

// dropMissingPhotos removes records of photos that were not copied so the
// document only lists files present in the archive.
func dropMissingPhotos(doc *Document, missing []photoFile) {
	if len(missing) == 0 {
		return
	}
	drop := make(map[[2]int]bool, len(missing))
	for _, m := range missing {
		drop[[2]int{m.tree, m.photo}] = true
	}
	for ti := range doc.Trees {
		kept := doc.Trees[ti].Photos[:0]
		for pi, p := range doc.Trees[ti].Photos {
			if !drop[[2]int{ti, pi}] {
				kept = append(kept, p)
			}
		}
		doc.Trees[ti].Photos = kept
	}
}

// writeContents writes the data document, report and metadata to scratch.
func (c *Codec) writeContents(scratch string, doc *Document, now time.Time) (*Metadata, error) {
	dataPath := filepath.Join(scratch, DataFileName)
	if err := writeFileWith(dataPath, func(f *os.File) error { return WriteDocument(f, doc) }); err != nil {
		return nil, exportError(err, "write_document", dataPath)
	}

	reportPath := filepath.Join(scratch, ReportFileName)
	if err := writeFileWith(reportPath, func(f *os.File) error { return BuildReport(doc).WriteXLSX(f) }); err != nil {
		return nil, exportError(err, "write_report", reportPath)
	}

	checksum, err := fileSHA256(dataPath)
	if err != nil {
		return nil, exportError(err, "checksum_document", dataPath)
	}
	meta := &Metadata{
		ID:         uuid.New().String(),
		Version:    FormatVersion,
		CreatedAt:  now,
		AppVersion: c.appVersion,
		Counts:     doc.Counts(),
		DataSHA256: checksum,
	}
	metaPath := filepath.Join(scratch, MetadataFileName)
	if err := writeMetadata(metaPath, meta); err != nil {
		return nil, exportError(err, "write_metadata", metaPath)
	}
	return meta, nil
}

// zipToDestination zips scratch into a temporary file in destDir and renames
// it to its final name once complete.
func zipToDestination(scratch, destDir string, now time.Time) (string, int64, error) {
	tmp, err := os.CreateTemp(destDir, ".bonsai_export_*.zip.tmp")
	if err != nil {
		return "", 0, exportError(err, "create_archive", destDir)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if err := writeZip(scratch, tmp); err != nil {
		tmp.Close()
		return "", 0, exportError(err, "write_archive", tmpPath)
	}
	if err := tmp.Close(); err != nil {
		return "", 0, exportError(err, "close_archive", tmpPath)
	}

	finalPath, err := freeArchivePath(destDir, now)
	if err != nil {
		return "", 0, exportError(err, "name_archive", destDir)
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		return "", 0, exportError(err, "rename_archive", finalPath)
	}

	info, err := os.Stat(finalPath)
	if err != nil {
		return "", 0, exportError(err, "stat_archive", finalPath)
	}
	return finalPath, info.Size(), nil
}

// freeArchivePath returns the archive name for now, suffixed when an export
// from the same second already exists.
func freeArchivePath(dir string, now time.Time) (string, error) {
	stem := archiveNamePrefix + now.Format(archiveTimeLayout)
	for i := 1; i < 1000; i++ {
		name := stem + ".zip"
		if i > 1 {
			name = fmt.Sprintf("%s_%d.zip", stem, i)
		}
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); os.IsNotExist(err) {
			return p, nil
		} else if err != nil {
			return "", err
		}
	}
	return "", fmt.Errorf("no free archive name for %s", stem)
}

func writeFileWith(path string, write func(*os.File) error) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return err
	}
	return writeFileWith(dst, func(out *os.File) error {
		_, err := out.ReadFrom(in)
		return err
	})
}

func exportError(err error, operation, path string) error {
	b := errors.New(err).
		Component("archive").
		Category(errors.CategoryFileIO).
		Context("operation", operation)
	if path != "" {
		b = b.Context("path", path)
	}
	return b.Build()
}
