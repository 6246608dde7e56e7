package archive

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/tphakala/bonsai-go/internal/datastore/entities"
)

func TestEmptyReportHasHeadersOnly(t *testing.T) {
	t.Parallel()
	report := BuildReport(&Document{})

	for _, table := range report.Tables() {
		assert.NotEmpty(t, table.Header, table.Name)
		assert.Empty(t, table.Rows, table.Name)
	}

	var buf bytes.Buffer
	require.NoError(t, report.WriteXLSX(&buf))

	wb, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer wb.Close()

	assert.Equal(t, []string{SheetOverview, SheetWorkHistory, SheetReminders}, wb.GetSheetList())
	rows, err := wb.GetRows(SheetOverview)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Tree Number", rows[0][0])
}

func TestReportRows(t *testing.T) {
	t.Parallel()
	doc := &Document{Trees: []TreeRecord{{
		TreeNumber:   "BON-001",
		TreeName:     "Old Man",
		Species:      "Juniperus chinensis",
		DateAcquired: day(2020, 6, 10),
		TrainingAge:  4.04,
		TrueAge:      19.96,
		IsArchived:   true,
		Updates: []UpdateRecord{
			{Date: day(2024, 1, 1), WorkPerformed: "Repotted"},
			{Date: day(2024, 6, 1), Girth: ptr(7.5), WorkPerformed: "Wired"},
		},
		Reminders: []ReminderRecord{{Date: day(2024, 7, 1), Message: "Check wire", IsCompleted: true}},
	}}}

	report := BuildReport(doc)
	require.Len(t, report.Overview.Rows, 1)
	assert.Equal(t, []any{"BON-001", "Old Man", "Juniperus chinensis", "2020-06-10", "", 4.0, 20.0, "Archived"},
		report.Overview.Rows[0])

	require.Len(t, report.WorkHistory.Rows, 2)
	assert.Equal(t, "", report.WorkHistory.Rows[0][3])
	assert.Equal(t, 7.5, report.WorkHistory.Rows[1][3])

	require.Len(t, report.Reminders.Rows, 1)
	assert.Equal(t, "Completed", report.Reminders.Rows[0][4])

	var buf bytes.Buffer
	require.NoError(t, report.WriteXLSX(&buf))
	wb, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer wb.Close()

	rows, err := wb.GetRows(SheetWorkHistory)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Wired", rows[2][4])
}

func TestArchivePhotoNamesAreUniquePerDay(t *testing.T) {
	t.Parallel()
	taken := time.Date(2024, 5, 14, 9, 30, 0, 0, time.UTC)
	used := map[string]bool{}

	names := []string{
		archivePhotoName(entities.Photo{FilePath: "/img/tree_1.jpg", PhotoDate: taken}, used),
		archivePhotoName(entities.Photo{FilePath: "/img/tree_2.JPG", PhotoDate: taken.Add(time.Hour)}, used),
		archivePhotoName(entities.Photo{FilePath: "/img/tree_3.png", PhotoDate: taken}, used),
		archivePhotoName(entities.Photo{FilePath: "/img/noext", PhotoDate: taken}, used),
	}
	assert.Equal(t, []string{"20240514.jpg", "20240514_2.jpg", "20240514.png", "20240514_3.jpg"}, names)
}
