package targets

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/jlaffaye/ftp"

	"github.com/tphakala/bonsai-go/internal/conf"
	"github.com/tphakala/bonsai-go/internal/errors"
	"github.com/tphakala/bonsai-go/internal/logger"
)

// FTPTarget uploads archives to an FTP server.
type FTPTarget struct {
	settings conf.FTPTargetSettings
	retry    RetryConfig
}

// NewFTPTarget applies port and timeout defaults to settings.
func NewFTPTarget(settings conf.FTPTargetSettings) *FTPTarget {
	if settings.Port == 0 {
		settings.Port = DefaultFTPPort
	}
	if settings.Timeout == 0 {
		settings.Timeout = DefaultTimeout
	}
	settings.Path = strings.TrimRight(settings.Path, "/")
	return &FTPTarget{settings: settings, retry: DefaultRetryConfig()}
}

// Name returns "ftp".
func (t *FTPTarget) Name() string {
	return "ftp"
}

// Upload stores the archive under a temporary name and renames it once the
// transfer completes.
func (t *FTPTarget) Upload(ctx context.Context, localPath string) error {
	return WithRetry(ctx, t.retry, func() error {
		conn, err := t.connect(ctx)
		if err != nil {
			return err
		}
		defer func() {
			if err := conn.Quit(); err != nil {
				GetLogger().Debug("failed to close FTP connection", logger.Error(err))
			}
		}()

		if err := t.ensureDir(conn); err != nil {
			return err
		}
		return t.atomicUpload(conn, localPath, path.Join(t.settings.Path, filepath.Base(localPath)))
	})
}

func (t *FTPTarget) connect(ctx context.Context) (*ftp.ServerConn, error) {
	addr := fmt.Sprintf("%s:%d", t.settings.Host, t.settings.Port)
	conn, err := ftp.Dial(addr, ftp.DialWithTimeout(t.settings.Timeout), ftp.DialWithContext(ctx))
	if err != nil {
		return nil, targetError(err, t.Name(), "connect", errors.CategoryNetwork)
	}

	if t.settings.Username != "" {
		if err := conn.Login(t.settings.Username, t.settings.Password); err != nil {
			_ = conn.Quit()
			return nil, targetError(err, t.Name(), "login", errors.CategoryNetwork)
		}
	}
	return conn, nil
}

// ensureDir creates the upload directory. Servers report an existing
// directory in different ways, so those errors are ignored.
func (t *FTPTarget) ensureDir(conn *ftp.ServerConn) error {
	if t.settings.Path == "" {
		return nil
	}
	err := conn.MakeDir(t.settings.Path)
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "exists") || strings.Contains(msg, "550") {
		return nil
	}
	return targetError(err, t.Name(), "create_directory", errors.CategoryNetwork)
}

func (t *FTPTarget) atomicUpload(conn *ftp.ServerConn, localPath, remotePath string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return targetError(err, t.Name(), "open_archive", errors.CategoryFileIO)
	}
	defer f.Close()

	tempName := path.Join(path.Dir(remotePath), fmt.Sprintf(".upload-%d", time.Now().UnixNano()))
	if err := conn.Stor(tempName, f); err != nil {
		_ = conn.Delete(tempName)
		return targetError(err, t.Name(), "store", errors.CategoryNetwork)
	}
	if err := conn.Rename(tempName, remotePath); err != nil {
		_ = conn.Delete(tempName)
		return targetError(err, t.Name(), "rename", errors.CategoryNetwork)
	}
	return nil
}
