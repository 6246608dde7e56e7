package targets

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/bonsai-go/internal/conf"
	"github.com/tphakala/bonsai-go/internal/errors"
)

func writeArchive(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "bonsai_export_20240610_120000.zip")
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func TestLocalTargetUpload(t *testing.T) {
	t.Parallel()
	dir := filepath.Join(t.TempDir(), "nas", "bonsai")
	target, err := NewLocalTarget(conf.LocalTargetSettings{Enabled: true, Path: dir})
	require.NoError(t, err)

	archive := writeArchive(t, "zip bytes")
	require.NoError(t, target.Upload(context.Background(), archive))

	data, err := os.ReadFile(filepath.Join(dir, filepath.Base(archive)))
	require.NoError(t, err)
	assert.Equal(t, "zip bytes", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file must be renamed away")
}

func TestLocalTargetMissingSource(t *testing.T) {
	t.Parallel()
	target, err := NewLocalTarget(conf.LocalTargetSettings{Enabled: true, Path: t.TempDir()})
	require.NoError(t, err)

	err = target.Upload(context.Background(), filepath.Join(t.TempDir(), "missing.zip"))
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryFileIO))
}

func TestWithRetry(t *testing.T) {
	t.Parallel()
	cfg := RetryConfig{MaxRetries: 3, Backoff: time.Millisecond}

	tests := []struct {
		name      string
		errs      []error
		wantCalls int
		wantErr   bool
	}{
		{"succeeds first time", []error{nil}, 1, false},
		{"recovers from transient error", []error{fmt.Errorf("connection reset by peer"), nil}, 2, false},
		{"permanent error stops", []error{fmt.Errorf("permission denied")}, 1, true},
		{"gives up after max retries", []error{
			fmt.Errorf("i/o timeout"), fmt.Errorf("i/o timeout"), fmt.Errorf("i/o timeout"),
		}, 3, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			calls := 0
			err := WithRetry(context.Background(), cfg, func() error {
				err := tt.errs[calls]
				calls++
				return err
			})
			assert.Equal(t, tt.wantCalls, calls)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestWithRetryStopsWhenCancelled(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := WithRetry(ctx, DefaultRetryConfig(), func() error {
		called = true
		return nil
	})
	require.Error(t, err)
	assert.False(t, called)
	assert.True(t, errors.IsCategory(err, errors.CategoryCancellation))
}

func TestFromSettings(t *testing.T) {
	t.Parallel()

	targets, err := FromSettings(&conf.TargetSettings{})
	require.NoError(t, err)
	assert.Empty(t, targets)

	targets, err = FromSettings(&conf.TargetSettings{
		Local: conf.LocalTargetSettings{Enabled: true, Path: t.TempDir()},
		FTP:   conf.FTPTargetSettings{Enabled: true, Host: "ftp.example.com"},
	})
	require.NoError(t, err)
	require.Len(t, targets, 2)
	assert.Equal(t, "local", targets[0].Name())
	assert.Equal(t, "ftp", targets[1].Name())

	ftpTarget, ok := targets[1].(*FTPTarget)
	require.True(t, ok)
	assert.Equal(t, DefaultFTPPort, ftpTarget.settings.Port)
	assert.Equal(t, DefaultTimeout, ftpTarget.settings.Timeout)

	_, err = FromSettings(&conf.TargetSettings{
		SFTP: conf.SFTPTargetSettings{Enabled: true, Host: "nas", KnownHostsFile: filepath.Join(t.TempDir(), "none")},
	})
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryConfiguration))
}

type stubTarget struct {
	name     string
	err      error
	uploaded []string
}

func (s *stubTarget) Name() string { return s.name }

func (s *stubTarget) Upload(_ context.Context, p string) error {
	s.uploaded = append(s.uploaded, p)
	return s.err
}

func TestUploadAllContinuesAfterFailure(t *testing.T) {
	t.Parallel()
	failing := &stubTarget{name: "ftp", err: fmt.Errorf("login failed")}
	working := &stubTarget{name: "local"}

	err := UploadAll(context.Background(), []Target{failing, working}, "/tmp/a.zip")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ftp: login failed")
	assert.Equal(t, []string{"/tmp/a.zip"}, working.uploaded)
}
