package archive

import (
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/tphakala/bonsai-go/internal/collection"
	"github.com/tphakala/bonsai-go/internal/logger"
)

// Report sheet names.
const (
	SheetOverview    = "Trees Overview"
	SheetWorkHistory = "Work History"
	SheetReminders   = "Reminders"
)

const reportDateLayout = time.DateOnly

// Table is one flat report sheet.
type Table struct {
	Name   string
	Header []string
	Rows   [][]any
}

// Report is the spreadsheet view of a Document. It is never read back.
type Report struct {
	Overview    Table
	WorkHistory Table
	Reminders   Table
}

// BuildReport projects doc into the overview, work history and reminder
// tables. An empty document yields tables with headers only.
func BuildReport(doc *Document) *Report {
	r := &Report{
		Overview: Table{
			Name: SheetOverview,
			Header: []string{"Tree Number", "Name", "Species", "Date Acquired", "Current Girth (cm)",
				"Training Age (years)", "True Age (years)", "Status"},
		},
		WorkHistory: Table{
			Name:   SheetWorkHistory,
			Header: []string{"Tree Number", "Tree Name", "Date", "Girth (cm)", "Work Performed"},
		},
		Reminders: Table{
			Name:   SheetReminders,
			Header: []string{"Tree Number", "Tree Name", "Date", "Message", "Status"},
		},
	}

	for i := range doc.Trees {
		t := &doc.Trees[i]

		status := "Active"
		if t.IsArchived {
			status = "Archived"
		}
		r.Overview.Rows = append(r.Overview.Rows, []any{
			t.TreeNumber, t.TreeName, t.Species,
			t.DateAcquired.Format(reportDateLayout),
			girthCell(t.CurrentGirth),
			collection.RoundYears(t.TrainingAge),
			collection.RoundYears(t.TrueAge),
			status,
		})

		for _, u := range t.Updates {
			r.WorkHistory.Rows = append(r.WorkHistory.Rows, []any{
				t.TreeNumber, t.TreeName,
				u.Date.Format(reportDateLayout),
				girthCell(u.Girth),
				u.WorkPerformed,
			})
		}

		for _, rem := range t.Reminders {
			state := "Pending"
			if rem.IsCompleted {
				state = "Completed"
			}
			r.Reminders.Rows = append(r.Reminders.Rows, []any{
				t.TreeNumber, t.TreeName,
				rem.Date.Format(reportDateLayout),
				rem.Message,
				state,
			})
		}
	}

	return r
}

// Tables returns the report tables in sheet order.
func (r *Report) Tables() []*Table {
	return []*Table{&r.Overview, &r.WorkHistory, &r.Reminders}
}

// girthCell leaves the cell empty when no girth was measured.
func girthCell(g *float64) any {
	if g == nil {
		return ""
	}
	return *g
}

// WriteXLSX renders the report as a workbook with one sheet per table.
func (r *Report) WriteXLSX(w io.Writer) error {
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			GetLogger().Warn("failed to close workbook", logger.Error(err))
		}
	}()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	for i, table := range r.Tables() {
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), table.Name); err != nil {
				return err
			}
		} else if _, err := f.NewSheet(table.Name); err != nil {
			return err
		}

		if err := writeTable(f, table, bold); err != nil {
			return err
		}
	}

	f.SetActiveSheet(0)
	return f.Write(w)
}

func writeTable(f *excelize.File, table *Table, headerStyle int) error {
	header := make([]any, len(table.Header))
	for i, h := range table.Header {
		header[i] = h
	}
	if err := f.SetSheetRow(table.Name, "A1", &header); err != nil {
		return err
	}
	if err := f.SetRowStyle(table.Name, 1, 1, headerStyle); err != nil {
		return err
	}

	for i, row := range table.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(table.Name, cell, &row); err != nil {
			return err
		}
	}

	lastCol, err := excelize.ColumnNumberToName(len(table.Header))
	if err != nil {
		return err
	}
	return f.SetColWidth(table.Name, "A", lastCol, 18)
}
