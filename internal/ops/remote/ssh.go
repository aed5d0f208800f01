package remote

import (
	"bytes"
	"context"
	"errors"
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
	"golang.org/x/crypto/ssh/agent"
	"golang.org/x/crypto/ssh/knownhosts"
)

// SSHConfig configures connections to deployment hosts
type SSHConfig struct {
	// User defaults to $USER
	User string
	// KeyFile is an optional private key; the ssh agent is used as well when available
	KeyFile string
	// KnownHosts is the known_hosts file used to verify host keys
	KnownHosts string
	Port       int
	Timeout    time.Duration
	// Stdout receives streamed command output; nil discards it
	Stdout io.Writer
}

// SSH runs commands on a remote host over ssh and moves files with sftp
type SSH struct {
	host   string
	client *ssh.Client
	sftp   *sftp.Client
	stdout io.Writer
}

// NewDialer returns a Dialer that opens SSH runners with cfg
func NewDialer(cfg SSHConfig) Dialer {
	return func(ctx context.Context, host string) (Runner, error) {
		return DialSSH(ctx, host, cfg)
	}
}

// DialSSH connects to host
func DialSSH(ctx context.Context, host string, cfg SSHConfig) (*SSH, error) {
	clientCfg, err := clientConfig(cfg)
	if err != nil {
		return nil, err
	}

	port := cfg.Port
	if port == 0 {
		port = 22
	}
	addr := net.JoinHostPort(host, fmt.Sprint(port))

	d := net.Dialer{Timeout: clientCfg.Timeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", addr, err)
	}
	c, chans, reqs, err := ssh.NewClientConn(conn, addr, clientCfg)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("ssh handshake with %s failed: %w", addr, err)
	}
	client := ssh.NewClient(c, chans, reqs)

	sc, err := sftp.NewClient(client)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to start sftp on %s: %w", host, err)
	}

	return &SSH{host: host, client: client, sftp: sc, stdout: cfg.Stdout}, nil
}

func clientConfig(cfg SSHConfig) (*ssh.ClientConfig, error) {
	user := cfg.User
	if user == "" {
		user = os.Getenv("USER")
	}

	var auth []ssh.AuthMethod
	if sock := os.Getenv("SSH_AUTH_SOCK"); sock != "" {
		if conn, err := net.Dial("unix", sock); err == nil {
			auth = append(auth, ssh.PublicKeysCallback(agent.NewClient(conn).Signers))
		}
	}
	if cfg.KeyFile != "" {
		key, err := os.ReadFile(expandHome(cfg.KeyFile))
		if err != nil {
			return nil, fmt.Errorf("failed to read ssh key: %w", err)
		}
		signer, err := ssh.ParsePrivateKey(key)
		if err != nil {
			return nil, fmt.Errorf("failed to parse ssh key %s: %w", cfg.KeyFile, err)
		}
		auth = append(auth, ssh.PublicKeys(signer))
	}
	if len(auth) == 0 {
		return nil, errors.New("no ssh credentials: start an ssh agent or configure ssh_key")
	}

	hostKeys, err := knownhosts.New(expandHome(cfg.KnownHosts))
	if err != nil {
		return nil, fmt.Errorf("failed to load known hosts: %w", err)
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &ssh.ClientConfig{
		User:            user,
		Auth:            auth,
		HostKeyCallback: hostKeys,
		Timeout:         timeout,
	}, nil
}

func (s *SSH) Host() string { return s.host }

func (s *SSH) Run(ctx context.Context, cmd string, opts ...Option) (Result, error) {
	o := Apply(opts)
	if o.User != "" {
		cmd = SudoCommand(cmd, o.User)
	}
	return s.exec(ctx, cmd, o)
}

func (s *SSH) Sudo(ctx context.Context, cmd string, opts ...Option) (Result, error) {
	o := Apply(opts)
	return s.exec(ctx, SudoCommand(cmd, o.User), o)
}

func (s *SSH) exec(ctx context.Context, cmd string, o Options) (Result, error) {
	session, err := s.client.NewSession()
	if err != nil {
		return Result{}, fmt.Errorf("[%s] failed to open session: %w", s.host, err)
	}
	defer session.Close()

	var out bytes.Buffer
	w := io.Writer(&out)
	if s.stdout != nil && !o.Quiet {
		w = io.MultiWriter(&out, s.stdout)
	}
	session.Stdout = w
	session.Stderr = w

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = session.Signal(ssh.SIGKILL)
			session.Close()
		case <-done:
		}
	}()

	res := Result{}
	err = session.Run(cmd)
	res.Output = out.String()
	if err != nil {
		var exitErr *ssh.ExitError
		if !errors.As(err, &exitErr) {
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			return res, fmt.Errorf("[%s] %s: %w", s.host, cmd, err)
		}
		res.ExitCode = exitErr.ExitStatus()
	}
	return Check(s.host, cmd, res, o)
}

// Put uploads localPath. With useSudo the file goes through a temporary path and is
// moved into place as root.
func (s *SSH) Put(ctx context.Context, localPath, remotePath string, useSudo bool) error {
	target := remotePath
	if useSudo {
		target = path.Join("/tmp", fmt.Sprintf(".put-%d-%s", time.Now().UnixNano(), path.Base(remotePath)))
	}

	if err := s.upload(localPath, target); err != nil {
		return err
	}

	if useSudo {
		if _, err := s.Sudo(ctx, Quote("mv", target, remotePath)); err != nil {
			return err
		}
	}
	return nil
}

func (s *SSH) upload(localPath, remotePath string) error {
	in, err := os.Open(localPath)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := s.sftp.Create(remotePath)
	if err != nil {
		return fmt.Errorf("[%s] failed to create %s: %w", s.host, remotePath, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("[%s] failed to upload %s: %w", s.host, remotePath, err)
	}
	return out.Close()
}

// Get downloads remotePath. Directories are copied recursively into localPath.
func (s *SSH) Get(ctx context.Context, remotePath, localPath string) error {
	info, err := s.sftp.Stat(remotePath)
	if err != nil {
		return fmt.Errorf("[%s] %s: %w", s.host, remotePath, err)
	}
	if !info.IsDir() {
		return s.download(remotePath, localPath)
	}

	walker := s.sftp.Walk(remotePath)
	for walker.Step() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := walker.Err(); err != nil {
			return fmt.Errorf("[%s] walking %s: %w", s.host, remotePath, err)
		}
		rel := strings.TrimPrefix(strings.TrimPrefix(walker.Path(), remotePath), "/")
		dst := filepath.Join(localPath, filepath.FromSlash(rel))
		if walker.Stat().IsDir() {
			if err := os.MkdirAll(dst, 0o755); err != nil {
				return err
			}
			continue
		}
		if err := s.download(walker.Path(), dst); err != nil {
			return err
		}
	}
	return nil
}

func (s *SSH) download(remotePath, localPath string) error {
	in, err := s.sftp.Open(remotePath)
	if err != nil {
		return fmt.Errorf("[%s] failed to open %s: %w", s.host, remotePath, err)
	}
	defer in.Close()

	out, err := os.Create(localPath)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("[%s] failed to download %s: %w", s.host, remotePath, err)
	}
	return out.Close()
}

func (s *SSH) Exists(ctx context.Context, p string) (bool, error) {
	_, err := s.sftp.Stat(p)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	// unreadable as the login user; ask root
	res, err := s.Sudo(ctx, Quote("test", "-e", p), WarnOnly(), Quiet())
	if err != nil {
		return false, err
	}
	return res.Succeeded(), nil
}

func (s *SSH) Close() error {
	s.sftp.Close()
	return s.client.Close()
}

func expandHome(p string) string {
	if !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, p[2:])
}
