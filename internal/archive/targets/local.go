package targets

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/tphakala/bonsai-go/internal/conf"
	"github.com/tphakala/bonsai-go/internal/errors"
)

// LocalTarget copies archives into a directory, typically a mounted NAS share.
type LocalTarget struct {
	dir   string
	retry RetryConfig
}

// NewLocalTarget creates the target directory if needed.
func NewLocalTarget(settings conf.LocalTargetSettings) (*LocalTarget, error) {
	if settings.Path == "" {
		return nil, errors.Newf("local target path is not configured").
			Component("archive.targets").
			Category(errors.CategoryConfiguration).
			Build()
	}
	if err := os.MkdirAll(settings.Path, PermDir); err != nil {
		return nil, targetError(err, "local", "create_directory", errors.CategoryFileIO)
	}
	return &LocalTarget{dir: settings.Path, retry: DefaultRetryConfig()}, nil
}

// Name returns "local".
func (t *LocalTarget) Name() string {
	return "local"
}

// Upload copies the archive through a temporary file that is renamed into
// place, so readers never see a partial archive.
func (t *LocalTarget) Upload(ctx context.Context, localPath string) error {
	target := filepath.Join(t.dir, filepath.Base(localPath))
	err := WithRetry(ctx, t.retry, func() error {
		return atomicCopy(localPath, target)
	})
	if err != nil {
		return targetError(err, t.Name(), "upload", errors.CategoryFileIO)
	}
	return nil
}

func atomicCopy(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".upload-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpPath, PermFile); err != nil {
		return err
	}
	return os.Rename(tmpPath, dst)
}
