package archive

import (
	"archive/zip"
	"bytes"
	"context"
	"image/color"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/bonsai-go/internal/collection"
	"github.com/tphakala/bonsai-go/internal/conf"
	"github.com/tphakala/bonsai-go/internal/errors"
	"github.com/tphakala/bonsai-go/internal/imagestore"
	"github.com/tphakala/bonsai-go/internal/testutil"
)

var testNow = time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ptr(f float64) *float64 { return &f }

type fixture struct {
	settings *conf.Settings
	codec    *Codec
	svc      *collection.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	settings := testutil.Settings(t)
	store := testutil.NewSQLiteStoreWithSettings(t, settings)
	images, err := imagestore.New(&settings.Images)
	require.NoError(t, err)

	codec := NewCodec(store, settings, images, "test")
	codec.now = func() time.Time { return testNow }

	svc := collection.NewService(store, images,
		collection.WithArchiver(codec),
		collection.WithClock(func() time.Time { return testNow }))
	return &fixture{settings: settings, codec: codec, svc: svc}
}

func jpegUpload(t *testing.T, name string) collection.Upload {
	t.Helper()
	data := testutil.WriteJPEG(t, filepath.Join(t.TempDir(), name), color.RGBA{R: 90, G: 140, B: 60, A: 255})
	return collection.Upload{Name: name, Reader: bytes.NewReader(data)}
}

// seed creates two trees with history, photos and reminders.
func (f *fixture) seed(t *testing.T) {
	t.Helper()
	ctx := context.Background()

	juniper, err := f.svc.CreateTree(ctx, collection.TreeInput{
		TreeName:     "Old Man",
		Species:      "Juniperus chinensis",
		DateAcquired: day(2020, 6, 10),
		OriginDate:   day(2004, 6, 10),
		Notes:        "Collected yamadori",
	})
	require.NoError(t, err)

	_, err = f.svc.RecordUpdate(ctx, juniper.ID, collection.UpdateInput{
		UpdateDate:    day(2024, 1, 1),
		Girth:         ptr(5.0),
		WorkPerformed: "Repotted",
		Reminder:      &collection.ReminderInput{ReminderDate: day(2024, 7, 1), Message: "Check roots"},
	})
	require.NoError(t, err)
	_, err = f.svc.RecordUpdate(ctx, juniper.ID, collection.UpdateInput{
		UpdateDate:    day(2024, 6, 1),
		Girth:         ptr(7.5),
		WorkPerformed: "Wired branches",
		Photos:        []collection.Upload{jpegUpload(t, "front.jpg"), jpegUpload(t, "back.jpg")},
	})
	require.NoError(t, err)

	photos, err := f.svc.ListPhotos(ctx, juniper.ID)
	require.NoError(t, err)
	require.Len(t, photos, 2)
	require.NoError(t, f.svc.StarPhoto(ctx, photos[0].ID, true))

	maple, err := f.svc.CreateTree(ctx, collection.TreeInput{
		TreeName:     "Red Maple",
		Species:      "Acer palmatum",
		DateAcquired: day(2018, 3, 1),
		OriginDate:   day(2015, 3, 1),
	})
	require.NoError(t, err)
	require.NoError(t, f.svc.SetArchived(ctx, maple.ID, true))
}

// exportDocument exports the collection and returns the archive path and
// its parsed trees_data.json.
func (f *fixture) exportDocument(t *testing.T) (string, *Document) {
	t.Helper()
	path, err := f.svc.ExportCollection(context.Background(), "")
	require.NoError(t, err)

	zr, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer zr.Close()

	data, err := zr.Open(DataFileName)
	require.NoError(t, err)
	defer data.Close()

	doc, err := ReadDocument(data)
	require.NoError(t, err)
	return path, doc
}

// photoDigests returns the sorted SHA-256 sums of each tree's photo files,
// keyed by tree number.
func (f *fixture) photoDigests(t *testing.T) map[string][]string {
	t.Helper()
	ctx := context.Background()
	trees, err := f.svc.ListTrees(ctx, collection.TreeFilter{IncludeArchived: true})
	require.NoError(t, err)

	digests := make(map[string][]string)
	for _, tree := range trees {
		photos, err := f.svc.ListPhotos(ctx, tree.ID)
		require.NoError(t, err)
		for _, p := range photos {
			sum, err := fileSHA256(p.FilePath)
			require.NoError(t, err)
			digests[tree.TreeNumber] = append(digests[tree.TreeNumber], sum)
		}
		slices.Sort(digests[tree.TreeNumber])
	}
	return digests
}

func TestExportImportRoundTrip(t *testing.T) {
	t.Parallel()
	src := newFixture(t)
	src.seed(t)
	archivePath, exported := src.exportDocument(t)

	assert.Equal(t, "bonsai_export_20240610_120000.zip", filepath.Base(archivePath))
	require.Len(t, exported.Trees, 2)
	assert.Equal(t, "BON-001", exported.Trees[0].TreeNumber)
	assert.InDelta(t, 4.0, exported.Trees[0].TrainingAge, 0.01)
	assert.InDelta(t, 20.0, exported.Trees[0].TrueAge, 0.01)

	dst := newFixture(t)
	result := dst.svc.ImportCollection(context.Background(), archivePath, "")
	require.True(t, result.Success, result.Message)
	assert.Equal(t, 2, result.Trees)
	assert.Equal(t, 2, result.Updates)
	assert.Equal(t, 2, result.Photos)
	assert.Equal(t, 1, result.Reminders)
	assert.Zero(t, result.SkippedFolders)

	_, reexported := dst.exportDocument(t)
	diff := cmp.Diff(exported, reexported, cmpopts.EquateApproxTime(time.Millisecond))
	assert.Empty(t, diff, "collection changed across export and import")

	srcDigests := src.photoDigests(t)
	require.Len(t, srcDigests["BON-001"], 2)
	assert.Equal(t, srcDigests, dst.photoDigests(t), "photo files changed across export and import")
}

func TestImportRestoresLatestGirth(t *testing.T) {
	t.Parallel()
	src := newFixture(t)
	src.seed(t)
	archivePath, _ := src.exportDocument(t)

	dst := newFixture(t)
	result := dst.svc.ImportCollection(context.Background(), archivePath, "")
	require.True(t, result.Success, result.Message)

	tree, err := dst.svc.GetTreeByNumber(context.Background(), "BON-001")
	require.NoError(t, err)
	require.NotNil(t, tree.CurrentGirth)
	assert.InDelta(t, 7.5, *tree.CurrentGirth, 1e-9)

	updates, err := dst.svc.ListUpdates(context.Background(), tree.ID)
	require.NoError(t, err)
	require.Len(t, updates, 2)
	assert.InDelta(t, 7.5, *updates[0].Girth, 1e-9, "newest update first")
	assert.InDelta(t, 5.0, *updates[1].Girth, 1e-9)
}

func TestImportReplacesExistingCollection(t *testing.T) {
	t.Parallel()
	src := newFixture(t)
	src.seed(t)
	archivePath, _ := src.exportDocument(t)

	dst := newFixture(t)
	ctx := context.Background()
	old, err := dst.svc.CreateTree(ctx, collection.TreeInput{
		TreeName: "Doomed", Species: "Ficus retusa",
		DateAcquired: day(2022, 1, 1), OriginDate: day(2021, 1, 1),
	})
	require.NoError(t, err)
	oldPhotos, err := dst.svc.AddPhotos(ctx, old.ID, []collection.Upload{jpegUpload(t, "ficus.jpg")}, "")
	require.NoError(t, err)

	result := dst.svc.ImportCollection(ctx, archivePath, "")
	require.True(t, result.Success, result.Message)

	trees, err := dst.svc.ListTrees(ctx, collection.TreeFilter{IncludeArchived: true})
	require.NoError(t, err)
	names := make([]string, 0, len(trees))
	for _, tree := range trees {
		names = append(names, tree.TreeName)
	}
	assert.ElementsMatch(t, []string{"Old Man", "Red Maple"}, names)
	assert.NoFileExists(t, oldPhotos[0].FilePath)

	photos, err := dst.svc.ListPhotos(ctx, trees[0].ID)
	require.NoError(t, err)
	starred := 0
	for _, p := range photos {
		assert.FileExists(t, p.FilePath)
		assert.Contains(t, filepath.Base(p.FilePath), "import_BON-001_")
		if p.IsStarred {
			starred++
		}
	}
	assert.Equal(t, 1, starred)
}

// writeArchive zips files (slash separated name to content) into a new archive.
func writeArchive(t *testing.T, files map[string][]byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "handmade.zip")
	f, err := os.Create(path)
	require.NoError(t, err)

	zw := zip.NewWriter(f)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
	return path
}

func documentJSON(t *testing.T, doc *Document) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, WriteDocument(&buf, doc))
	return buf.Bytes()
}

func TestImportSkipsFoldersOfUnknownTrees(t *testing.T) {
	t.Parallel()
	photo := testutil.WriteJPEG(t, filepath.Join(t.TempDir(), "p.jpg"), color.White)
	doc := &Document{Trees: []TreeRecord{{
		TreeNumber:   "BON-001",
		TreeName:     "Shohin Pine",
		Species:      "  Pinus   thunbergii ",
		DateAcquired: day(2021, 5, 1),
		OriginDate:   day(2019, 5, 1),
		Photos: []PhotoRecord{{
			FileName: "20240101.jpg", PhotoDate: day(2024, 1, 1), Description: "Winter", IsStarred: true,
		}},
	}}}

	archivePath := writeArchive(t, map[string][]byte{
		DataFileName:                    documentJSON(t, doc),
		"images/BON-001/20240101.jpg":   photo,
		"images/BON-001/20240315_2.jpg": photo,
		"images/BON-001/notes.txt":      []byte("not a photo"),
		"images/BON-999/20240101.jpg":   photo,
	})

	f := newFixture(t)
	result := f.svc.ImportCollection(context.Background(), archivePath, "")
	require.True(t, result.Success, result.Message)
	assert.Equal(t, 1, result.Trees)
	assert.Equal(t, 2, result.Photos)
	assert.Equal(t, 1, result.SkippedFolders)

	tree, err := f.svc.GetTreeByNumber(context.Background(), "BON-001")
	require.NoError(t, err)
	assert.Equal(t, "Pinus thunbergii", tree.SpeciesName())

	photos, err := f.svc.ListPhotos(context.Background(), tree.ID)
	require.NoError(t, err)
	require.Len(t, photos, 2)
	assert.True(t, photos[0].IsStarred)
	assert.Equal(t, "Winter", photos[0].Description)

	unlisted := photos[1]
	assert.Equal(t, 2024, unlisted.PhotoDate.Year())
	assert.Equal(t, time.March, unlisted.PhotoDate.Month(), "date taken from the file name")
}

func TestImportIntoSeparateImageDirectory(t *testing.T) {
	t.Parallel()
	src := newFixture(t)
	src.seed(t)
	archivePath, _ := src.exportDocument(t)

	dst := newFixture(t)
	imageDir := filepath.Join(t.TempDir(), "restored")
	result := dst.svc.ImportCollection(context.Background(), archivePath, imageDir)
	require.True(t, result.Success, result.Message)

	entries, err := os.ReadDir(imageDir)
	require.NoError(t, err)
	files := 0
	for _, e := range entries {
		if !e.IsDir() {
			files++
		}
	}
	assert.Equal(t, 2, files)
}

func TestImportFailuresLeaveCollectionUnchanged(t *testing.T) {
	t.Parallel()
	photo := testutil.WriteJPEG(t, filepath.Join(t.TempDir(), "p.jpg"), color.Black)

	tests := []struct {
		name        string
		files       map[string][]byte
		wantMessage string
	}{
		{
			name:        "missing data file",
			files:       map[string][]byte{"images/BON-001/20240101.jpg": photo},
			wantMessage: DataFileName,
		},
		{
			name:        "malformed data file",
			files:       map[string][]byte{DataFileName: []byte(`{"trees": `)},
			wantMessage: "import failed",
		},
		{
			name:        "path traversal",
			files:       map[string][]byte{"../escape.txt": []byte("x"), DataFileName: []byte("[]")},
			wantMessage: "unsafe path",
		},
		{
			name: "duplicate tree number",
			files: map[string][]byte{DataFileName: documentJSON(t, &Document{Trees: []TreeRecord{
				{TreeNumber: "BON-001", TreeName: "A", Species: "Ulmus", DateAcquired: day(2020, 1, 1), OriginDate: day(2020, 1, 1)},
				{TreeNumber: "BON-001", TreeName: "B", Species: "Ulmus", DateAcquired: day(2020, 1, 1), OriginDate: day(2020, 1, 1)},
			}})},
			wantMessage: "BON-001",
		},
		{
			name: "tree number with path separators",
			files: map[string][]byte{DataFileName: documentJSON(t, &Document{Trees: []TreeRecord{
				{TreeNumber: "../../x", TreeName: "A", Species: "Ulmus", DateAcquired: day(2020, 1, 1), OriginDate: day(2020, 1, 1)},
			}})},
			wantMessage: "invalid tree number",
		},
		{
			name: "missing species",
			files: map[string][]byte{DataFileName: documentJSON(t, &Document{Trees: []TreeRecord{
				{TreeNumber: "BON-001", TreeName: "A", DateAcquired: day(2020, 1, 1), OriginDate: day(2020, 1, 1)},
			}})},
			wantMessage: "no species",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture(t)
			f.seed(t)
			ctx := context.Background()

			result := f.svc.ImportCollection(ctx, writeArchive(t, tt.files), "")
			assert.False(t, result.Success)
			assert.Contains(t, result.Message, tt.wantMessage)
			assert.Contains(t, result.Message, "left unchanged")

			trees, err := f.svc.ListTrees(ctx, collection.TreeFilter{IncludeArchived: true})
			require.NoError(t, err)
			assert.Len(t, trees, 2)

			entries, err := os.ReadDir(f.settings.Images.Path)
			require.NoError(t, err)
			assert.Len(t, entries, 2, "no placeholders or staging left behind")
		})
	}
}

func TestReadArchiveDocumentMissingDataIsNotFound(t *testing.T) {
	t.Parallel()
	_, err := readArchiveDocument(t.TempDir())
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
	assert.Contains(t, err.Error(), "missing data")
}

func TestImportKeepsTreeNumbersFromBeingReused(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	archivePath := writeArchive(t, map[string][]byte{DataFileName: documentJSON(t, &Document{Trees: []TreeRecord{
		{TreeNumber: "BON-042", TreeName: "Imported", Species: "Ulmus", DateAcquired: day(2020, 1, 1), OriginDate: day(2020, 1, 1)},
	}})})

	result := f.svc.ImportCollection(ctx, archivePath, "")
	require.True(t, result.Success, result.Message)

	imported, err := f.svc.GetTreeByNumber(ctx, "BON-042")
	require.NoError(t, err)
	require.NoError(t, f.svc.DeleteTree(ctx, imported.ID))

	tree, err := f.svc.CreateTree(ctx, collection.TreeInput{
		TreeName: "Fresh", Species: "Ulmus",
		DateAcquired: day(2024, 1, 1), OriginDate: day(2024, 1, 1),
	})
	require.NoError(t, err)
	assert.Equal(t, "BON-043", tree.TreeNumber)
}

func TestExportSkipsMissingPhotoFiles(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.seed(t)

	tree, err := f.svc.GetTreeByNumber(context.Background(), "BON-001")
	require.NoError(t, err)
	photos, err := f.svc.ListPhotos(context.Background(), tree.ID)
	require.NoError(t, err)
	require.NoError(t, os.Remove(photos[0].FilePath))

	_, doc := f.exportDocument(t)
	assert.Len(t, doc.Trees[0].Photos, 1)
}

func TestExportNamesAreUniquePerSecond(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.ExportCollection(ctx, "")
	require.NoError(t, err)
	second, err := f.svc.ExportCollection(ctx, "")
	require.NoError(t, err)

	assert.Equal(t, "bonsai_export_20240610_120000.zip", filepath.Base(first))
	assert.Equal(t, "bonsai_export_20240610_120000_2.zip", filepath.Base(second))
}

func TestExportRefusesWhenDiskIsFull(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.settings.Export.MinFreeSpace = "1000PB"

	_, err := f.svc.ExportCollection(context.Background(), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not enough disk space")
}
