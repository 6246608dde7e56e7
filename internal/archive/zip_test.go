package archive

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/bonsai-go/internal/errors"
)

func TestMemberPath(t *testing.T) {
	t.Parallel()
	dest := t.TempDir()

	tests := []struct {
		name   string
		member string
		want   string
	}{
		{"data file", "trees_data.json", filepath.Join(dest, "trees_data.json")},
		{"photo", "images/BON-001/20240101.jpg", filepath.Join(dest, "images", "BON-001", "20240101.jpg")},
		{"backslashes", `images\BON-001\a.jpg`, filepath.Join(dest, "images", "BON-001", "a.jpg")},
		{"parent", "../evil.txt", ""},
		{"nested parent", "images/../../evil.txt", ""},
		{"absolute", "/etc/passwd", ""},
		{"windows parent", `..\evil.txt`, ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := memberPath(dest, tt.member)
			if tt.want == "" {
				require.Error(t, err)
				assert.True(t, errors.IsCategory(err, errors.CategoryArchive))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestZipRoundTripKeepsLayout(t *testing.T) {
	t.Parallel()
	src := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(src, ImagesDir, "BON-002"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(src, DataFileName), []byte("[]"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(src, ImagesDir, "BON-002", "20240101.jpg"), []byte("jpeg"), 0o600))

	archivePath := filepath.Join(t.TempDir(), "out.zip")
	f, err := os.Create(archivePath)
	require.NoError(t, err)
	require.NoError(t, writeZip(src, f))
	require.NoError(t, f.Close())

	dest := t.TempDir()
	require.NoError(t, extractZip(archivePath, dest))

	data, err := os.ReadFile(filepath.Join(dest, ImagesDir, "BON-002", "20240101.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", string(data))
	assert.FileExists(t, filepath.Join(dest, DataFileName))
}

func TestExtractZipRejectsCorruptArchive(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "broken.zip")
	require.NoError(t, os.WriteFile(path, []byte("definitely not a zip"), 0o600))

	err := extractZip(path, t.TempDir())
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryArchive))
}
