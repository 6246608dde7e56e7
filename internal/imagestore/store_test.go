package imagestore

import (
	"bytes"
	"context"
	"encoding/binary"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/bonsai-go/internal/conf"
	"github.com/tphakala/bonsai-go/internal/errors"
)

var fixedNow = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

func newTestStore(t *testing.T, fixOrientation bool) *Store {
	t.Helper()
	store, err := New(&conf.ImageSettings{
		Path:              filepath.Join(t.TempDir(), "images"),
		AllowedExtensions: []string{".jpg", ".jpeg", ".png"},
		MaxUploadSize:     "1MB",
		FixOrientation:    fixOrientation,
	})
	require.NoError(t, err)
	store.now = func() time.Time { return fixedNow }
	return store
}

func encodeJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, color.RGBA{R: 120, G: 160, B: 60, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

// withExif splices an APP1 segment carrying DateTimeOriginal and Orientation
// into JPEG data.
func withExif(t *testing.T, jpegData []byte, taken string, orientation uint16) []byte {
	t.Helper()
	require.Len(t, taken, 19)
	le := binary.LittleEndian

	const (
		ifd0Offset    = 8
		exifIFDOffset = ifd0Offset + 2 + 2*12 + 4
		stringOffset  = exifIFDOffset + 2 + 12 + 4
	)
	tiff := make([]byte, stringOffset+20)
	copy(tiff, "II")
	le.PutUint16(tiff[2:], 42)
	le.PutUint32(tiff[4:], ifd0Offset)

	entry := func(at int, tag, typ uint16, count, value uint32) {
		le.PutUint16(tiff[at:], tag)
		le.PutUint16(tiff[at+2:], typ)
		le.PutUint32(tiff[at+4:], count)
		le.PutUint32(tiff[at+8:], value)
	}

	le.PutUint16(tiff[ifd0Offset:], 2)
	entry(ifd0Offset+2, 0x0112, 3, 1, uint32(orientation)) // Orientation, SHORT
	entry(ifd0Offset+14, 0x8769, 4, 1, exifIFDOffset)      // ExifIFDPointer, LONG

	le.PutUint16(tiff[exifIFDOffset:], 1)
	entry(exifIFDOffset+2, 0x9003, 2, 20, stringOffset) // DateTimeOriginal, ASCII
	copy(tiff[stringOffset:], taken)

	payload := append([]byte("Exif\x00\x00"), tiff...)
	segment := []byte{0xFF, 0xE1, 0, 0}
	binary.BigEndian.PutUint16(segment[2:], uint16(len(payload)+2))
	segment = append(segment, payload...)

	out := append([]byte{}, jpegData[:2]...) // SOI
	out = append(out, segment...)
	return append(out, jpegData[2:]...)
}

func TestSaveUsesUploadTimeWithoutExif(t *testing.T) {
	t.Parallel()
	store := newTestStore(t, false)
	ctx := context.Background()
	data := encodeJPEG(t, 8, 6)

	first, err := store.Save(ctx, bytes.NewReader(data), "IMG_0001.JPG")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(store.Dir(), "tree_20240102_030405.jpg"), first.Path)
	assert.True(t, first.PhotoDate.Equal(fixedNow))
	assert.False(t, first.FromExif)

	second, err := store.Save(ctx, bytes.NewReader(data), "IMG_0002.jpg")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(store.Dir(), "tree_20240102_030405_2.jpg"), second.Path)

	stored, err := os.ReadFile(first.Path)
	require.NoError(t, err)
	assert.Equal(t, data, stored)
}

func TestSaveReadsExifDate(t *testing.T) {
	t.Parallel()
	store := newTestStore(t, false)
	data := withExif(t, encodeJPEG(t, 8, 6), "2023:05:14 09:30:00", 1)

	saved, err := store.Save(context.Background(), bytes.NewReader(data), "tree.jpg")
	require.NoError(t, err)
	assert.True(t, saved.FromExif)
	assert.True(t, saved.PhotoDate.Equal(time.Date(2023, 5, 14, 9, 30, 0, 0, time.Local)),
		"got %v", saved.PhotoDate)
}

func TestSaveCorrectsOrientation(t *testing.T) {
	t.Parallel()
	data := withExif(t, encodeJPEG(t, 8, 6), "2023:05:14 09:30:00", 6)

	tests := []struct {
		name           string
		fix            bool
		wantW, wantH   int
		wantSameBytes  bool
	}{
		{"fix enabled rotates", true, 6, 8, false},
		{"fix disabled keeps bytes", false, 8, 6, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newTestStore(t, tt.fix)
			saved, err := store.Save(context.Background(), bytes.NewReader(data), "tree.jpg")
			require.NoError(t, err)

			stored, err := os.ReadFile(saved.Path)
			require.NoError(t, err)
			cfg, err := jpeg.DecodeConfig(bytes.NewReader(stored))
			require.NoError(t, err)
			assert.Equal(t, tt.wantW, cfg.Width)
			assert.Equal(t, tt.wantH, cfg.Height)
			assert.Equal(t, tt.wantSameBytes, bytes.Equal(data, stored))
			assert.True(t, saved.FromExif, "date is read before re-encoding")
		})
	}
}

func TestSaveRejectsInvalidUploads(t *testing.T) {
	t.Parallel()
	store := newTestStore(t, false)
	ctx := context.Background()

	var pngBuf bytes.Buffer
	require.NoError(t, png.Encode(&pngBuf, image.NewRGBA(image.Rect(0, 0, 2, 2))))

	tests := []struct {
		name string
		data []byte
		file string
	}{
		{"extension not allowed", pngBuf.Bytes(), "tree.gif"},
		{"not an image", []byte("definitely not a jpeg"), "tree.jpg"},
		{"too large", bytes.Repeat([]byte{0xFF}, 1024*1024+1), "tree.png"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := store.Save(ctx, bytes.NewReader(tt.data), tt.file)
			require.Error(t, err)
			assert.True(t, errors.IsValidation(err), "got %v", err)
		})
	}

	entries, err := os.ReadDir(store.Dir())
	require.NoError(t, err)
	assert.Empty(t, entries, "rejected uploads leave no files")

	saved, err := store.Save(ctx, bytes.NewReader(pngBuf.Bytes()), "tree.PNG")
	require.NoError(t, err)
	assert.Equal(t, ".png", filepath.Ext(saved.Path))
}

func TestRemoveStaysInsideStore(t *testing.T) {
	t.Parallel()
	store := newTestStore(t, false)

	outside := filepath.Join(t.TempDir(), "keep.jpg")
	require.NoError(t, os.WriteFile(outside, []byte("x"), 0o600))
	require.Error(t, store.Remove(outside))
	assert.FileExists(t, outside)

	require.NoError(t, store.Remove(filepath.Join(store.Dir(), "missing.jpg")))

	path, err := store.Reserve("photo", ".jpg")
	require.NoError(t, err)
	assert.Equal(t, 1, store.RemoveAll([]string{path}))
	assert.NoFileExists(t, path)
}

func TestStagingPromote(t *testing.T) {
	t.Parallel()
	store := newTestStore(t, false)

	staging, err := store.StagingDir()
	require.NoError(t, err)
	assert.True(t, store.Contains(staging))

	staged := filepath.Join(staging, "20240101.jpg")
	require.NoError(t, os.WriteFile(staged, []byte("photo"), 0o600))

	final, err := store.Reserve("BON-001_20240101", ".jpg")
	require.NoError(t, err)
	require.NoError(t, store.Promote(staged, final))

	got, err := os.ReadFile(final)
	require.NoError(t, err)
	assert.Equal(t, "photo", string(got))
	assert.NoFileExists(t, staged)
}

func TestApplyOrientationMapsPixels(t *testing.T) {
	t.Parallel()
	red := color.RGBA{R: 255, A: 255}
	blue := color.RGBA{B: 255, A: 255}

	src := image.NewRGBA(image.Rect(0, 0, 2, 1))
	src.Set(0, 0, red)
	src.Set(1, 0, blue)

	tests := []struct {
		orientation int
		size        image.Point
		redAt       image.Point
		blueAt      image.Point
	}{
		{1, image.Pt(2, 1), image.Pt(0, 0), image.Pt(1, 0)},
		{2, image.Pt(2, 1), image.Pt(1, 0), image.Pt(0, 0)},
		{3, image.Pt(2, 1), image.Pt(1, 0), image.Pt(0, 0)},
		{6, image.Pt(1, 2), image.Pt(0, 0), image.Pt(0, 1)},
		{8, image.Pt(1, 2), image.Pt(0, 1), image.Pt(0, 0)},
	}
	for _, tt := range tests {
		got := applyOrientation(src, tt.orientation)
		assert.Equal(t, tt.size, got.Bounds().Size(), "orientation %d", tt.orientation)
		assert.Equal(t, red, color.RGBAModel.Convert(got.At(tt.redAt.X, tt.redAt.Y)), "orientation %d", tt.orientation)
		assert.Equal(t, blue, color.RGBAModel.Convert(got.At(tt.blueAt.X, tt.blueAt.Y)), "orientation %d", tt.orientation)
	}
}
