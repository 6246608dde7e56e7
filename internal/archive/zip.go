package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/tphakala/bonsai-go/internal/errors"
)

// Extraction limits.
const (
	maxEntrySize   = 512 << 20 // largest single member
	maxArchiveSize = 16 << 30  // sum of all members
	maxEntries     = 100_000
)

// storedExtensions are already compressed and are stored without deflate.
var storedExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".webp": true, ".gif": true, ".xlsx": true,
}

// writeZip adds every regular file under srcDir to a zip written to w,
// using slash separated paths relative to srcDir.
func writeZip(srcDir string, w io.Writer) error {
	zw := zip.NewWriter(w)

	err := filepath.WalkDir(srcDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(srcDir, p)
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}

		header, err := zip.FileInfoHeader(info)
		if err != nil {
			return err
		}
		header.Name = filepath.ToSlash(rel)
		header.Method = zip.Deflate
		if storedExtensions[strings.ToLower(filepath.Ext(p))] {
			header.Method = zip.Store
		}

		dst, err := zw.CreateHeader(header)
		if err != nil {
			return err
		}
		src, err := os.Open(p)
		if err != nil {
			return err
		}
		defer src.Close()

		_, err = io.Copy(dst, src)
		return err
	})
	if err != nil {
		_ = zw.Close()
		return err
	}
	return zw.Close()
}

// extractZip unpacks archivePath into destDir. Members that would land
// outside destDir, links and oversized members are rejected.
func extractZip(archivePath, destDir string) error {
	zr, err := zip.OpenReader(archivePath)
	if errors.Is(err, zip.ErrInsecurePath) {
		zr.Close()
		return archiveError("archive %s has a member with an unsafe path", filepath.Base(archivePath))
	}
	if err != nil {
		return errors.New(err).
			Component("archive").
			Category(errors.CategoryArchive).
			Context("operation", "open_archive").
			Context("path", archivePath).
			Build()
	}
	defer zr.Close()

	if len(zr.File) > maxEntries {
		return archiveError("archive has %d members, limit is %d", len(zr.File), maxEntries)
	}

	var total uint64
	for _, f := range zr.File {
		target, err := memberPath(destDir, f.Name)
		if err != nil {
			return err
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o750); err != nil {
				return err
			}
			continue
		}
		if !f.Mode().IsRegular() {
			return archiveError("archive member %q is not a regular file", f.Name)
		}
		if f.UncompressedSize64 > maxEntrySize {
			return archiveError("archive member %q is too large", f.Name)
		}
		total += f.UncompressedSize64
		if total > maxArchiveSize {
			return archiveError("archive content exceeds %d bytes", uint64(maxArchiveSize))
		}

		if err := extractMember(f, target); err != nil {
			return err
		}
	}
	return nil
}

// memberPath resolves a zip member name inside destDir.
func memberPath(destDir, name string) (string, error) {
	slashed := strings.ReplaceAll(name, `\`, "/")
	if slashed == "" || path.IsAbs(slashed) || slices.Contains(strings.Split(slashed, "/"), "..") {
		return "", archiveError("archive member %q has an unsafe path", name)
	}
	target := filepath.Join(destDir, filepath.FromSlash(path.Clean(slashed)))
	if !strings.HasPrefix(target, filepath.Clean(destDir)+string(filepath.Separator)) {
		return "", archiveError("archive member %q escapes the extraction directory", name)
	}
	return target, nil
}

func extractMember(f *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
		return err
	}

	src, err := f.Open()
	if err != nil {
		return fmt.Errorf("open archive member %s: %w", f.Name, err)
	}
	defer src.Close()

	dst, err := os.OpenFile(target, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}

	// Guard against a header that understates the real size.
	n, err := io.Copy(dst, io.LimitReader(src, maxEntrySize+1))
	closeErr := dst.Close()
	if err != nil {
		return fmt.Errorf("extract %s: %w", f.Name, err)
	}
	if n > maxEntrySize {
		return archiveError("archive member %q is too large", f.Name)
	}
	return closeErr
}

func archiveError(format string, args ...any) error {
	return errors.Newf(format, args...).
		Component("archive").
		Category(errors.CategoryArchive).
		Build()
}
