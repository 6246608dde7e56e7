// Package archive exports the bonsai collection to a single zip file and
// restores a collection from one.
//
// An archive holds:
//
//	trees_data.json           every tree with its updates, photos and reminders
//	images/<tree_number>/...  one file per photo, named YYYYMMDD[_N].<ext>
//	bonsai_report.xlsx        overview, work history and reminder sheets
//	metadata.json             archive id, format version, counts, checksum
//
// Only trees_data.json and images/ are read back on import. Import replaces
// the whole collection inside one transaction.
package archive

import (
	"time"

	"github.com/tphakala/bonsai-go/internal/collection"
	"github.com/tphakala/bonsai-go/internal/conf"
	"github.com/tphakala/bonsai-go/internal/datastore"
	"github.com/tphakala/bonsai-go/internal/imagestore"
)

// Codec writes and restores collection archives.
type Codec struct {
	store      datastore.Interface
	settings   *conf.Settings
	images     *imagestore.Store // configured photo directory
	appVersion string
	now        func() time.Time
}

var _ collection.Archiver = (*Codec)(nil)

// NewCodec creates a Codec. images is the configured photo store that
// existing photo files live in.
func NewCodec(store datastore.Interface, settings *conf.Settings, images *imagestore.Store, appVersion string) *Codec {
	return &Codec{
		store:      store,
		settings:   settings,
		images:     images,
		appVersion: appVersion,
		now:        time.Now,
	}
}
