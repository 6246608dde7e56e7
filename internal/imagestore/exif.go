package imagestore

import (
	"bytes"
	"time"

	"github.com/rwcarlsen/goexif/exif"

	"github.com/tphakala/bonsai-go/internal/logger"
)

// ExifLayout is the textual timestamp layout of EXIF DateTimeOriginal.
const ExifLayout = "2006:01:02 15:04:05"

// Metadata is what the store reads from an image's EXIF block.
type Metadata struct {
	TakenAt     time.Time // zero when the image carries no usable date
	Orientation int       // EXIF orientation 1-8, 1 when absent
}

// ReadMetadata extracts the taken date and orientation from JPEG or TIFF data.
// Images without EXIF yield a zero TakenAt and orientation 1.
func ReadMetadata(data []byte) Metadata {
	meta := Metadata{Orientation: 1}

	x, err := exif.Decode(bytes.NewReader(data))
	if x == nil {
		GetLogger().Trace("no exif data", logger.Error(err))
		return meta
	}

	// DateTime prefers DateTimeOriginal and falls back to DateTime.
	if taken, err := x.DateTime(); err == nil && !taken.IsZero() {
		meta.TakenAt = taken
	}
	if tag, err := x.Get(exif.Orientation); err == nil {
		if o, err := tag.Int(0); err == nil && o >= 1 && o <= 8 {
			meta.Orientation = o
		}
	}
	return meta
}
