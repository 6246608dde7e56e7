// Package testutil provides shared fixtures for tests: temporary settings,
// migrated SQLite stores and generated photos.
package testutil

import (
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tphakala/bonsai-go/internal/conf"
	"github.com/tphakala/bonsai-go/internal/datastore"
)

// Settings returns settings rooted in a fresh temporary data directory,
// equivalent to the defaults written by conf for a new install.
func Settings(t *testing.T) *conf.Settings {
	t.Helper()
	dataDir := t.TempDir()

	return &conf.Settings{
		Main: conf.MainSettings{Name: "Bonsai Tracker", DataDir: dataDir},
		Database: conf.DatabaseSettings{
			Type:               conf.DatabaseSQLite,
			SQLite:             conf.SQLiteSettings{Path: filepath.Join(dataDir, "bonsai.db")},
			SlowQueryThreshold: time.Second,
		},
		Images: conf.ImageSettings{
			Path:              filepath.Join(dataDir, "images"),
			AllowedExtensions: []string{".jpg", ".jpeg", ".png", ".webp"},
			MaxUploadSize:     "25MB",
		},
		Export: conf.ExportSettings{
			Path:         filepath.Join(dataDir, "exports"),
			MinFreeSpace: "0B",
		},
	}
}

// NewSQLiteStore opens a migrated SQLite store in a temporary directory and
// closes it when the test ends.
func NewSQLiteStore(t *testing.T) datastore.Interface {
	t.Helper()
	return NewSQLiteStoreWithSettings(t, Settings(t))
}

// NewSQLiteStoreWithSettings opens a migrated SQLite store for settings.
func NewSQLiteStoreWithSettings(t *testing.T, settings *conf.Settings) datastore.Interface {
	t.Helper()

	store, err := datastore.New(settings)
	require.NoError(t, err)
	require.NoError(t, store.Open())
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// WriteJPEG writes a small solid-colour JPEG to path and returns its bytes.
func WriteJPEG(t *testing.T, path string, c color.Color) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 8, 6))
	for y := range 6 {
		for x := range 8 {
			img.Set(x, y, c)
		}
	}

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, jpeg.Encode(f, img, nil))
	require.NoError(t, f.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return data
}
