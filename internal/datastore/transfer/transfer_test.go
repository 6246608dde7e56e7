package transfer

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/bonsai-go/internal/datastore"
	"github.com/tphakala/bonsai-go/internal/datastore/entities"
	"github.com/tphakala/bonsai-go/internal/errors"
	"github.com/tphakala/bonsai-go/internal/testutil"
)

func seedCollection(t *testing.T, store datastore.Interface, trees int) {
	t.Helper()
	db := store.DB()
	day := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)

	species := entities.Species{Name: "Juniper"}
	require.NoError(t, db.Create(&species).Error)

	for i := range trees {
		girth := 5.5 + float64(i)
		tree := entities.Tree{
			TreeNumber:   "BON-" + string(rune('A'+i)),
			TreeName:     "Tree " + string(rune('A'+i)),
			SpeciesID:    species.ID,
			DateAcquired: day,
			OriginDate:   day.AddDate(-10, 0, 0),
			CurrentGirth: &girth,
		}
		require.NoError(t, db.Create(&tree).Error)
		require.NoError(t, db.Create(&entities.TreeUpdate{TreeID: tree.ID, UpdateDate: day, WorkPerformed: "Repotted"}).Error)
		require.NoError(t, db.Create(&entities.Photo{TreeID: tree.ID, FilePath: "photo.jpg", PhotoDate: day, UploadDate: day, IsStarred: true}).Error)
		require.NoError(t, db.Create(&entities.Reminder{TreeID: tree.ID, ReminderDate: day, Message: "Fertilize", CreatedDate: day}).Error)
	}
	require.NoError(t, db.Create(&entities.Sequence{Name: entities.SequenceTreeNumber, Value: int64(trees)}).Error)
}

func loadAll[T any](t *testing.T, store datastore.Interface) []T {
	t.Helper()
	var rows []T
	require.NoError(t, store.DB().Order("id").Find(&rows).Error)
	return rows
}

func TestCopyPreservesRows(t *testing.T) {
	src := testutil.NewSQLiteStore(t)
	dst := testutil.NewSQLiteStore(t)
	seedCollection(t, src, 7)

	stats, err := Copy(context.Background(), src, dst, Options{BatchSize: 3})
	require.NoError(t, err)
	require.Len(t, stats.Tables, len(tables))

	copied := map[string]int64{}
	for _, ts := range stats.Tables {
		copied[ts.Name] = ts.Copied
	}
	assert.Equal(t, int64(1), copied["species"])
	assert.Equal(t, int64(7), copied["trees"])
	assert.Equal(t, int64(7), copied["reminders"])
	// Both stores seed the settings row.
	assert.Equal(t, int64(0), copied["app_settings"])
	assert.Equal(t, int64(1), copied["sequences"])

	if diff := cmp.Diff(loadAll[entities.Tree](t, src), loadAll[entities.Tree](t, dst)); diff != "" {
		t.Errorf("trees differ (-source +target):\n%s", diff)
	}
	if diff := cmp.Diff(loadAll[entities.Photo](t, src), loadAll[entities.Photo](t, dst)); diff != "" {
		t.Errorf("photos differ (-source +target):\n%s", diff)
	}
	if diff := cmp.Diff(loadAll[entities.TreeUpdate](t, src), loadAll[entities.TreeUpdate](t, dst)); diff != "" {
		t.Errorf("updates differ (-source +target):\n%s", diff)
	}

	mismatches, err := Verify(context.Background(), src, dst)
	require.NoError(t, err)
	assert.Empty(t, mismatches)
}

func TestCopySkipsExistingRowsAndCleans(t *testing.T) {
	src := testutil.NewSQLiteStore(t)
	dst := testutil.NewSQLiteStore(t)
	seedCollection(t, src, 2)

	_, err := Copy(context.Background(), src, dst, Options{})
	require.NoError(t, err)

	stats, err := Copy(context.Background(), src, dst, Options{})
	require.NoError(t, err)
	assert.Zero(t, stats.Total())

	stats, err = Copy(context.Background(), src, dst, Options{Clean: true})
	require.NoError(t, err)
	assert.Equal(t, int64(1+2*4+1+1), stats.Total())
	assert.Len(t, loadAll[entities.Tree](t, dst), 2)
}

func TestCopyRejectsBadBatchSize(t *testing.T) {
	src := testutil.NewSQLiteStore(t)
	dst := testutil.NewSQLiteStore(t)

	_, err := Copy(context.Background(), src, dst, Options{BatchSize: MaxBatchSize + 1})
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
}

func TestVerifyReportsMissingRows(t *testing.T) {
	src := testutil.NewSQLiteStore(t)
	dst := testutil.NewSQLiteStore(t)
	seedCollection(t, src, 1)

	mismatches, err := Verify(context.Background(), src, dst)
	require.NoError(t, err)
	require.NotEmpty(t, mismatches)
	assert.Equal(t, Mismatch{Table: "species", Source: 1, Target: 0}, mismatches[0])
	assert.Contains(t, FormatMismatches(mismatches), "trees: source 1, target 0")
}
