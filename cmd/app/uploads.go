package app

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/tphakala/bonsai-go/internal/collection"
)

// OpenUploads opens photo files for the service. The returned func closes them.
func OpenUploads(paths []string) ([]collection.Upload, func(), error) {
	var files []*os.File
	closeAll := func() {
		for _, f := range files {
			_ = f.Close()
		}
	}

	uploads := make([]collection.Upload, 0, len(paths))
	for _, p := range paths {
		f, err := os.Open(p)
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("failed to open photo: %w", err)
		}
		files = append(files, f)
		uploads = append(uploads, collection.Upload{Name: filepath.Base(p), Reader: f})
	}
	return uploads, closeAll, nil
}
