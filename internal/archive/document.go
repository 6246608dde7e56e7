package archive

import (
	"encoding/json"
	"io"
	"time"

	"github.com/tphakala/bonsai-go/internal/collection"
	"github.com/tphakala/bonsai-go/internal/errors"
)

// Archive member names.
const (
	DataFileName     = "trees_data.json"
	ReportFileName   = "bonsai_report.xlsx"
	MetadataFileName = "metadata.json"
	ImagesDir        = "images"
)

// Document is the canonical content of an archive: every tree with its
// history, ordered by tree number. It is stored as a JSON array in
// trees_data.json. Times are encoded as RFC 3339 with nanoseconds.
type Document struct {
	Trees []TreeRecord
}

// TreeRecord is one tree in trees_data.json.
type TreeRecord struct {
	TreeNumber   string           `json:"tree_number"`
	TreeName     string           `json:"tree_name"`
	Species      string           `json:"species"`
	DateAcquired time.Time        `json:"date_acquired"`
	OriginDate   time.Time        `json:"origin_date"`
	CurrentGirth *float64         `json:"current_girth"`
	Notes        string           `json:"notes"`
	IsArchived   bool             `json:"is_archived"`
	TrainingAge  float64          `json:"training_age"` // years at export time
	TrueAge      float64          `json:"true_age"`     // years at export time
	Updates      []UpdateRecord   `json:"updates"`
	Photos       []PhotoRecord    `json:"photos"`
	Reminders    []ReminderRecord `json:"reminders"`
}

// UpdateRecord is a work log entry.
type UpdateRecord struct {
	Date          time.Time `json:"date"`
	Girth         *float64  `json:"girth"`
	WorkPerformed string    `json:"work_performed"`
}

// PhotoRecord describes a photo stored as images/<tree_number>/<file_name>.
type PhotoRecord struct {
	FileName    string    `json:"file_name"`
	PhotoDate   time.Time `json:"photo_date"`
	UploadDate  time.Time `json:"upload_date,omitzero"`
	Description string    `json:"description"`
	IsStarred   bool      `json:"is_starred"`
}

// ReminderRecord is a maintenance reminder.
type ReminderRecord struct {
	Date             time.Time `json:"date"`
	Message          string    `json:"message"`
	IsCompleted      bool      `json:"is_completed"`
	NotificationSent bool      `json:"notification_sent,omitempty"`
	CreatedDate      time.Time `json:"created_date,omitzero"`
}

// Counts returns the number of trees, updates, photos and reminders.
func (d *Document) Counts() Counts {
	c := Counts{Trees: len(d.Trees)}
	for i := range d.Trees {
		c.Updates += len(d.Trees[i].Updates)
		c.Photos += len(d.Trees[i].Photos)
		c.Reminders += len(d.Trees[i].Reminders)
	}
	return c
}

// TreeNumbers returns the set of tree numbers in the document.
func (d *Document) TreeNumbers() map[string]bool {
	numbers := make(map[string]bool, len(d.Trees))
	for i := range d.Trees {
		numbers[d.Trees[i].TreeNumber] = true
	}
	return numbers
}

// HighestTreeSequence returns the largest numeric tree number suffix in d.
func (d *Document) HighestTreeSequence() int64 {
	var highest int64
	for i := range d.Trees {
		if n, ok := collection.TreeNumberSequence(d.Trees[i].TreeNumber); ok && n > highest {
			highest = n
		}
	}
	return highest
}

// WriteDocument encodes doc as an indented JSON array.
func WriteDocument(w io.Writer, doc *Document) error {
	trees := doc.Trees
	if trees == nil {
		trees = []TreeRecord{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(trees)
}

// ReadDocument decodes a trees_data.json array.
func ReadDocument(r io.Reader) (*Document, error) {
	var trees []TreeRecord
	if err := json.NewDecoder(r).Decode(&trees); err != nil {
		return nil, errors.New(err).
			Component("archive").
			Category(errors.CategoryArchive).
			Context("file", DataFileName).
			Build()
	}
	return &Document{Trees: trees}, nil
}
