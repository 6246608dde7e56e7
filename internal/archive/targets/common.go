// Package targets copies exported collection archives to off-site storage:
// another local directory, an FTP server or an SFTP server.
package targets

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tphakala/bonsai-go/internal/conf"
	"github.com/tphakala/bonsai-go/internal/errors"
	"github.com/tphakala/bonsai-go/internal/logger"
)

const (
	PermDir  = 0o750
	PermFile = 0o640

	DefaultMaxRetries   = 3
	DefaultRetryBackoff = time.Second
	DefaultTimeout      = 30 * time.Second

	DefaultFTPPort = 21
	DefaultSSHPort = 22
)

// Target receives copies of exported archives.
type Target interface {
	Name() string
	// Upload copies the archive at localPath to the target, keeping its base name.
	Upload(ctx context.Context, localPath string) error
}

// transientErrorPatterns are error substrings worth retrying.
var transientErrorPatterns = []string{
	"connection reset",
	"connection refused",
	"connection closed",
	"timeout",
	"temporary",
	"broken pipe",
	"no route to host",
	"EOF",
	"ssh: handshake failed",
	"resource temporarily unavailable",
}

// IsTransientError reports whether err is likely to succeed on retry.
func IsTransientError(err error) bool {
	if err == nil {
		return false
	}
	if os.IsTimeout(err) {
		return true
	}

	msg := err.Error()
	for _, pattern := range transientErrorPatterns {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}

// RetryConfig controls WithRetry.
type RetryConfig struct {
	MaxRetries int
	Backoff    time.Duration
}

// DefaultRetryConfig returns three attempts with a one second base backoff.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{MaxRetries: DefaultMaxRetries, Backoff: DefaultRetryBackoff}
}

// WithRetry runs op until it succeeds, fails permanently or the attempts run
// out. Waits grow linearly: backoff, 2*backoff, ...
func WithRetry(ctx context.Context, cfg RetryConfig, op func() error) error {
	var lastErr error

	for attempt := range cfg.MaxRetries {
		if err := ctx.Err(); err != nil {
			return cancelled(err)
		}

		err := op()
		if err == nil {
			return nil
		}
		if !IsTransientError(err) {
			return err
		}
		lastErr = err
		GetLogger().Debug("retrying after transient error",
			logger.Int("attempt", attempt+1),
			logger.Int("max_retries", cfg.MaxRetries),
			logger.Error(err))

		select {
		case <-ctx.Done():
			return cancelled(ctx.Err())
		case <-time.After(cfg.Backoff * time.Duration(attempt+1)):
		}
	}

	return errors.New(fmt.Errorf("operation failed after %d attempts: %w", cfg.MaxRetries, lastErr)).
		Component("archive.targets").
		Category(errors.CategoryNetwork).
		Build()
}

// FromSettings builds every enabled target.
func FromSettings(settings *conf.TargetSettings) ([]Target, error) {
	var targets []Target

	if settings.Local.Enabled {
		t, err := NewLocalTarget(settings.Local)
		if err != nil {
			return nil, err
		}
		targets = append(targets, t)
	}
	if settings.FTP.Enabled {
		targets = append(targets, NewFTPTarget(settings.FTP))
	}
	if settings.SFTP.Enabled {
		t, err := NewSFTPTarget(settings.SFTP)
		if err != nil {
			return nil, err
		}
		targets = append(targets, t)
	}
	return targets, nil
}

// UploadAll copies the archive to every target. A failing target does not
// stop the others; all failures are returned joined.
func UploadAll(ctx context.Context, targets []Target, localPath string) error {
	var errs []error
	for _, t := range targets {
		start := time.Now()
		if err := t.Upload(ctx, localPath); err != nil {
			GetLogger().Error("archive upload failed",
				logger.String("target", t.Name()),
				logger.String("archive", localPath),
				logger.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", t.Name(), err))
			continue
		}
		GetLogger().Info("archive uploaded",
			logger.String("target", t.Name()),
			logger.String("archive", filepath.Base(localPath)),
			logger.Duration("duration", time.Since(start)))
	}
	return errors.Join(errs...)
}

func cancelled(err error) error {
	return errors.New(err).
		Component("archive.targets").
		Category(errors.CategoryCancellation).
		Build()
}

func targetError(err error, target, operation string, category errors.ErrorCategory) error {
	return errors.New(err).
		Component("archive.targets").
		Category(category).
		Context("target", target).
		Context("operation", operation).
		Build()
}
