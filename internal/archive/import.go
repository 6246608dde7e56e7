package archive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/tphakala/bonsai-go/internal/collection"
	"github.com/tphakala/bonsai-go/internal/conf"
	"github.com/tphakala/bonsai-go/internal/datastore/entities"
	"github.com/tphakala/bonsai-go/internal/datastore/repository"
	"github.com/tphakala/bonsai-go/internal/errors"
	"github.com/tphakala/bonsai-go/internal/imagestore"
	"github.com/tphakala/bonsai-go/internal/logger"
)

// importPrefix starts the stored name of every imported photo.
const importPrefix = "import_"

// stagedPhoto is an archive photo copied into the image directory's staging
// area, waiting for the import transaction to commit.
type stagedPhoto struct {
	fileName string // name inside images/<tree_number>/
	staged   string
	final    string // reserved once the tree row exists
}

// Import replaces the whole collection with the content of archivePath.
// Photos are placed in imageDir. Nothing is changed unless every tree is
// restored; the outcome is always reported in the result.
func (c *Codec) Import(ctx context.Context, archivePath, imageDir string) (result collection.ImportResult) {
	start := time.Now()
	log := GetLogger().With(logger.String("archive", archivePath))

	defer func() {
		if r := recover(); r != nil {
			log.Error("import panicked", logger.Any("panic", r))
			result = collection.ImportResult{Message: fmt.Sprintf("import failed unexpectedly: %v", r)}
		}
		result.Duration = time.Since(start)
	}()

	fail := func(err error) collection.ImportResult {
		log.Error("import failed, collection left unchanged", logger.Error(err))
		return collection.ImportResult{Message: fmt.Sprintf("import failed, collection left unchanged: %v", err)}
	}

	scratch, err := os.MkdirTemp("", "bonsai-import-")
	if err != nil {
		return fail(err)
	}
	defer os.RemoveAll(scratch)

	if err := extractZip(archivePath, scratch); err != nil {
		return fail(err)
	}

	doc, err := readArchiveDocument(scratch)
	if err != nil {
		return fail(err)
	}

	dest, err := c.destinationStore(imageDir)
	if err != nil {
		return fail(err)
	}
	stagingDir, err := dest.StagingDir()
	if err != nil {
		return fail(err)
	}
	defer os.RemoveAll(stagingDir)

	staged, skipped, err := stagePhotos(ctx, scratch, stagingDir, doc, dest)
	if err != nil {
		return fail(err)
	}

	var (
		counts   Counts
		oldFiles []string
	)
	err = c.store.Transaction(ctx, func(tx *gorm.DB) error {
		var err error
		oldFiles, err = clearCollection(ctx, repository.NewSet(tx))
		if err != nil {
			return err
		}
		r := repository.NewSet(tx)
		counts, err = c.restoreTrees(ctx, r, doc, staged, dest)
		if err != nil {
			return err
		}
		return r.Sequences.Raise(ctx, entities.SequenceTreeNumber, doc.HighestTreeSequence())
	})
	if err != nil {
		discardReserved(staged)
		return fail(err)
	}

	promoted := 0
	for _, photos := range staged {
		for _, p := range photos {
			if p.final == "" {
				continue
			}
			if err := dest.Promote(p.staged, p.final); err != nil {
				log.Warn("failed to move imported photo into place", logger.String("path", p.final), logger.Error(err))
				continue
			}
			promoted++
		}
	}
	c.removeOldFiles(oldFiles, dest)

	log.Info("collection imported",
		logger.Int("trees", counts.Trees),
		logger.Int("updates", counts.Updates),
		logger.Int("photos", promoted),
		logger.Int("reminders", counts.Reminders),
		logger.Int("skipped_folders", skipped),
		logger.String("image_dir", dest.Dir()),
		logger.Duration("duration", time.Since(start)))

	return collection.ImportResult{
		Success: true,
		Message: fmt.Sprintf("Imported %d trees, %d updates, %d photos and %d reminders",
			counts.Trees, counts.Updates, counts.Photos, counts.Reminders),
		Trees:          counts.Trees,
		Updates:        counts.Updates,
		Photos:         counts.Photos,
		Reminders:      counts.Reminders,
		SkippedFolders: skipped,
	}
}

// readArchiveDocument loads trees_data.json from an extracted archive and
// checks it against metadata.json when present.
func readArchiveDocument(dir string) (*Document, error) {
	dataPath := filepath.Join(dir, DataFileName)
	f, err := os.Open(dataPath)
	if os.IsNotExist(err) {
		return nil, errors.Newf("archive is missing data file %s", DataFileName).
			Component("archive").
			Category(errors.CategoryNotFound).
			Build()
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	meta, err := readMetadata(filepath.Join(dir, MetadataFileName))
	if err != nil {
		return nil, archiveError("unreadable %s: %v", MetadataFileName, err)
	}
	if meta != nil && meta.DataSHA256 != "" {
		sum, err := fileSHA256(dataPath)
		if err != nil {
			return nil, err
		}
		if sum != meta.DataSHA256 {
			return nil, archiveError("%s does not match the archive checksum", DataFileName)
		}
	}

	doc, err := ReadDocument(f)
	if err != nil {
		return nil, err
	}
	for i := range doc.Trees {
		number := doc.Trees[i].TreeNumber
		if number == "" {
			return nil, archiveError("tree %d in %s has no tree number", i+1, DataFileName)
		}
		// Tree numbers become photo folder names on the next export.
		if _, ok := collection.TreeNumberSequence(number); !ok {
			return nil, archiveError("tree %d in %s has invalid tree number %q", i+1, DataFileName, number)
		}
	}
	return doc, nil
}

// destinationStore returns the store for imageDir, reusing the configured
// store when the directories match.
func (c *Codec) destinationStore(imageDir string) (*imagestore.Store, error) {
	if imageDir == "" || filepath.Clean(imageDir) == filepath.Clean(c.images.Dir()) {
		return c.images, nil
	}
	return imagestore.New(&conf.ImageSettings{
		Path:              imageDir,
		AllowedExtensions: c.settings.Images.AllowedExtensions,
		MaxUploadSize:     c.settings.Images.MaxUploadSize,
	})
}

// stagePhotos copies photos of known trees into stagingDir, keyed by tree
// number. Folders of trees absent from the document are skipped and counted.
func stagePhotos(ctx context.Context, scratch, stagingDir string, doc *Document, dest *imagestore.Store) (map[string][]*stagedPhoto, int, error) {
	staged := make(map[string][]*stagedPhoto)
	root := filepath.Join(scratch, ImagesDir)

	entries, err := os.ReadDir(root)
	if os.IsNotExist(err) {
		return staged, 0, nil
	}
	if err != nil {
		return nil, 0, err
	}

	known := doc.TreeNumbers()
	skipped := 0
	for _, folder := range entries {
		if !folder.IsDir() {
			continue
		}
		number := folder.Name()
		if !known[number] {
			GetLogger().Warn("skipping photo folder of unknown tree", logger.String("folder", number))
			skipped++
			continue
		}

		files, err := os.ReadDir(filepath.Join(root, number))
		if err != nil {
			return nil, 0, err
		}
		for _, f := range files {
			if err := ctx.Err(); err != nil {
				return nil, 0, err
			}
			if !f.Type().IsRegular() || !dest.IsAllowed(f.Name()) {
				continue
			}

			target := filepath.Join(stagingDir, number, f.Name())
			if err := copyFile(filepath.Join(root, number, f.Name()), target); err != nil {
				return nil, 0, err
			}
			staged[number] = append(staged[number], &stagedPhoto{fileName: f.Name(), staged: target})
		}
	}
	return staged, skipped, nil
}

// clearCollection deletes every row and returns the photo file paths that
// belonged to the replaced collection.
func clearCollection(ctx context.Context, r *repository.Set) ([]string, error) {
	photos, err := r.Photos.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(photos))
	for _, p := range photos {
		paths = append(paths, p.FilePath)
	}

	if _, err := r.Photos.DeleteAll(ctx); err != nil {
		return nil, err
	}
	if _, err := r.Updates.DeleteAll(ctx); err != nil {
		return nil, err
	}
	if _, err := r.Reminders.DeleteAll(ctx); err != nil {
		return nil, err
	}
	if _, err := r.Trees.DeleteAll(ctx); err != nil {
		return nil, err
	}
	return paths, nil
}

// restoreTrees inserts every tree of doc with its history. Photo rows point
// at reserved final paths; the files are moved there after commit.
func (c *Codec) restoreTrees(ctx context.Context, r *repository.Set, doc *Document, staged map[string][]*stagedPhoto, dest *imagestore.Store) (Counts, error) {
	var counts Counts
	now := c.now()

	for i := range doc.Trees {
		rec := &doc.Trees[i]

		name := collection.NormalizeSpeciesName(rec.Species)
		if name == "" {
			return counts, archiveError("tree %s has no species", rec.TreeNumber)
		}
		species, _, err := r.Species.GetOrCreate(ctx, name)
		if err != nil {
			return counts, err
		}

		tree := &entities.Tree{
			TreeNumber:   rec.TreeNumber,
			TreeName:     rec.TreeName,
			SpeciesID:    species.ID,
			DateAcquired: rec.DateAcquired,
			OriginDate:   rec.OriginDate,
			CurrentGirth: rec.CurrentGirth,
			Notes:        rec.Notes,
			IsArchived:   rec.IsArchived,
		}
		if err := r.Trees.Create(ctx, tree); err != nil {
			return counts, treeError(err, rec.TreeNumber)
		}
		counts.Trees++

		for _, u := range rec.Updates {
			update := &entities.TreeUpdate{
				TreeID:        tree.ID,
				UpdateDate:    u.Date,
				Girth:         u.Girth,
				WorkPerformed: u.WorkPerformed,
			}
			if err := r.Updates.Create(ctx, update); err != nil {
				return counts, treeError(err, rec.TreeNumber)
			}
			counts.Updates++
		}

		for _, rm := range rec.Reminders {
			created := rm.CreatedDate
			if created.IsZero() {
				created = now
			}
			reminder := &entities.Reminder{
				TreeID:           tree.ID,
				ReminderDate:     rm.Date,
				Message:          rm.Message,
				IsCompleted:      rm.IsCompleted,
				NotificationSent: rm.NotificationSent,
				CreatedDate:      created,
			}
			if err := r.Reminders.Create(ctx, reminder); err != nil {
				return counts, treeError(err, rec.TreeNumber)
			}
			counts.Reminders++
		}

		n, err := restorePhotos(ctx, r, tree, rec, staged[rec.TreeNumber], dest, now)
		counts.Photos += n
		if err != nil {
			return counts, treeError(err, rec.TreeNumber)
		}
	}
	return counts, nil
}

func restorePhotos(ctx context.Context, r *repository.Set, tree *entities.Tree, rec *TreeRecord, staged []*stagedPhoto, dest *imagestore.Store, now time.Time) (int, error) {
	records := make(map[string]*PhotoRecord, len(rec.Photos))
	for i := range rec.Photos {
		records[rec.Photos[i].FileName] = &rec.Photos[i]
	}

	starred := false
	created := 0
	for _, sp := range staged {
		ext := strings.ToLower(filepath.Ext(sp.fileName))
		stem := strings.TrimSuffix(sp.fileName, filepath.Ext(sp.fileName))

		final, err := dest.Reserve(importPrefix+rec.TreeNumber+"_"+stem, ext)
		if err != nil {
			return created, err
		}
		sp.final = final

		photo := &entities.Photo{
			TreeID:     tree.ID,
			FilePath:   final,
			PhotoDate:  photoDateFromName(sp.fileName, now),
			UploadDate: now,
		}
		if pr, ok := records[sp.fileName]; ok {
			if !pr.PhotoDate.IsZero() {
				photo.PhotoDate = pr.PhotoDate
			}
			if !pr.UploadDate.IsZero() {
				photo.UploadDate = pr.UploadDate
			}
			photo.Description = pr.Description
			photo.IsStarred = pr.IsStarred && !starred
		}
		starred = starred || photo.IsStarred

		if err := r.Photos.Create(ctx, photo); err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}

// photoDateFromName reads the YYYYMMDD prefix of an archive photo name.
func photoDateFromName(name string, fallback time.Time) time.Time {
	if len(name) < len(photoDateLayout) {
		return fallback
	}
	t, err := time.ParseInLocation(photoDateLayout, name[:len(photoDateLayout)], time.Local)
	if err != nil {
		return fallback
	}
	return t
}

// discardReserved removes the empty placeholders claimed for photos of a
// rolled back import.
func discardReserved(staged map[string][]*stagedPhoto) {
	for _, photos := range staged {
		for _, p := range photos {
			if p.final == "" {
				continue
			}
			if err := os.Remove(p.final); err != nil && !os.IsNotExist(err) {
				GetLogger().Warn("failed to remove reserved photo path", logger.String("path", p.final), logger.Error(err))
			}
		}
	}
}

// removeOldFiles deletes the replaced collection's photos from whichever
// image directory holds them.
func (c *Codec) removeOldFiles(paths []string, dest *imagestore.Store) {
	for _, p := range paths {
		store := c.images
		if !store.Contains(p) {
			store = dest
		}
		if !store.Contains(p) {
			GetLogger().Debug("leaving photo outside the image directories", logger.String("path", p))
			continue
		}
		if err := store.Remove(p); err != nil {
			GetLogger().Warn("failed to remove replaced photo", logger.String("path", p), logger.Error(err))
		}
	}
}

func treeError(err error, treeNumber string) error {
	var enhanced *errors.EnhancedError
	if errors.As(err, &enhanced) {
		return err
	}
	category := errors.CategoryDatabase
	if errors.Is(err, repository.ErrDuplicateKey) {
		category = errors.CategoryConflict
	}
	return errors.New(fmt.Errorf("restore tree %s: %w", treeNumber, err)).
		Component("archive").
		Category(category).
		Context("tree_number", treeNumber).
		Build()
}
