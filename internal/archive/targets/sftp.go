package targets

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"github.com/tphakala/bonsai-go/internal/conf"
	"github.com/tphakala/bonsai-go/internal/errors"
)

// SFTPTarget uploads archives over SSH. Host keys are checked against a
// known_hosts file.
type SFTPTarget struct {
	settings conf.SFTPTargetSettings
	retry    RetryConfig
}

// NewSFTPTarget applies defaults and checks that credentials and a
// known_hosts file are available.
func NewSFTPTarget(settings conf.SFTPTargetSettings) (*SFTPTarget, error) {
	if settings.Port == 0 {
		settings.Port = DefaultSSHPort
	}
	if settings.Timeout == 0 {
		settings.Timeout = DefaultTimeout
	}
	if settings.KnownHostsFile == "" {
		settings.KnownHostsFile = DefaultKnownHostsFile()
	}
	settings.Path = strings.TrimRight(settings.Path, "/")

	if settings.Password == "" && settings.KeyFile == "" {
		return nil, configError("sftp target needs a password or key file")
	}
	if _, err := os.Stat(settings.KnownHostsFile); err != nil {
		return nil, configError("sftp known_hosts file %q is not readable: %v", settings.KnownHostsFile, err)
	}
	return &SFTPTarget{settings: settings, retry: DefaultRetryConfig()}, nil
}

// DefaultKnownHostsFile returns ~/.ssh/known_hosts.
func DefaultKnownHostsFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".ssh", "known_hosts")
}

// Name returns "sftp".
func (t *SFTPTarget) Name() string {
	return "sftp"
}

// Upload writes the archive to a temporary remote file and renames it.
func (t *SFTPTarget) Upload(ctx context.Context, localPath string) error {
	return WithRetry(ctx, t.retry, func() error {
		client, closeConn, err := t.connect(ctx)
		if err != nil {
			return err
		}
		defer closeConn()

		if t.settings.Path != "" {
			if err := client.MkdirAll(t.settings.Path); err != nil {
				return targetError(err, t.Name(), "create_directory", errors.CategoryNetwork)
			}
		}
		return t.atomicUpload(client, localPath, path.Join(t.settings.Path, filepath.Base(localPath)))
	})
}

func (t *SFTPTarget) clientConfig() (*ssh.ClientConfig, error) {
	hostKeys, err := knownhosts.New(t.settings.KnownHostsFile)
	if err != nil {
		return nil, configError("failed to load known_hosts: %v", err)
	}

	var auth []ssh.AuthMethod
	if t.settings.KeyFile != "" {
		key, err := os.ReadFile(t.settings.KeyFile)
		if err != nil {
			return nil, configError("failed to read sftp private key: %v", err)
		}
		signer, err := ssh.ParsePrivateKey(key)
		if err != nil {
			return nil, configError("failed to parse sftp private key: %v", err)
		}
		auth = append(auth, ssh.PublicKeys(signer))
	}
	if t.settings.Password != "" {
		auth = append(auth, ssh.Password(t.settings.Password))
	}

	return &ssh.ClientConfig{
		User:            t.settings.Username,
		Auth:            auth,
		HostKeyCallback: hostKeys,
		Timeout:         t.settings.Timeout,
	}, nil
}

func (t *SFTPTarget) connect(ctx context.Context) (*sftp.Client, func(), error) {
	config, err := t.clientConfig()
	if err != nil {
		return nil, nil, err
	}

	addr := net.JoinHostPort(t.settings.Host, fmt.Sprint(t.settings.Port))
	dialer := net.Dialer{Timeout: t.settings.Timeout}
	netConn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, nil, targetError(err, t.Name(), "connect", errors.CategoryNetwork)
	}
	_ = netConn.SetDeadline(time.Now().Add(t.settings.Timeout))

	sshConn, chans, reqs, err := ssh.NewClientConn(netConn, addr, config)
	if err != nil {
		netConn.Close()
		return nil, nil, targetError(err, t.Name(), "handshake", errors.CategoryNetwork)
	}
	_ = netConn.SetDeadline(time.Time{})
	sshClient := ssh.NewClient(sshConn, chans, reqs)

	client, err := sftp.NewClient(sshClient)
	if err != nil {
		sshClient.Close()
		return nil, nil, targetError(err, t.Name(), "start_sftp", errors.CategoryNetwork)
	}

	closeConn := func() {
		client.Close()
		sshClient.Close()
	}
	return client, closeConn, nil
}

func (t *SFTPTarget) atomicUpload(client *sftp.Client, localPath, remotePath string) error {
	src, err := os.Open(localPath)
	if err != nil {
		return targetError(err, t.Name(), "open_archive", errors.CategoryFileIO)
	}
	defer src.Close()

	tempName := path.Join(path.Dir(remotePath), fmt.Sprintf(".upload-%d", time.Now().UnixNano()))
	dst, err := client.Create(tempName)
	if err != nil {
		return targetError(err, t.Name(), "create_remote_file", errors.CategoryNetwork)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		_ = client.Remove(tempName)
		return targetError(err, t.Name(), "write", errors.CategoryNetwork)
	}
	if err := dst.Close(); err != nil {
		_ = client.Remove(tempName)
		return targetError(err, t.Name(), "close_remote_file", errors.CategoryNetwork)
	}
	if err := client.PosixRename(tempName, remotePath); err != nil {
		_ = client.Remove(tempName)
		return targetError(err, t.Name(), "rename", errors.CategoryNetwork)
	}
	return nil
}

func configError(format string, args ...any) error {
	return errors.Newf(format, args...).
		Component("archive.targets").
		Category(errors.CategoryConfiguration).
		Build()
}
