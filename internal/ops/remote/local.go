package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
)

// Local runs commands on the operator's machine
type Local struct {
	// Dir is the working directory of every command
	Dir string
	// Stdout receives streamed command output; nil discards it
	Stdout io.Writer
}

// NewLocal creates a local runner rooted at dir
func NewLocal(dir string, stdout io.Writer) *Local {
	return &Local{Dir: dir, Stdout: stdout}
}

func (l *Local) Host() string { return "localhost" }

func (l *Local) Run(ctx context.Context, cmd string, opts ...Option) (Result, error) {
	o := Apply(opts)
	if o.User != "" {
		cmd = SudoCommand(cmd, o.User)
	}
	return l.exec(ctx, cmd, o)
}

func (l *Local) Sudo(ctx context.Context, cmd string, opts ...Option) (Result, error) {
	o := Apply(opts)
	return l.exec(ctx, SudoCommand(cmd, o.User), o)
}

func (l *Local) exec(ctx context.Context, cmd string, o Options) (Result, error) {
	c := exec.CommandContext(ctx, "sh", "-c", cmd)
	c.Dir = l.Dir

	var out bytes.Buffer
	w := io.Writer(&out)
	if l.Stdout != nil && !o.Quiet {
		w = io.MultiWriter(&out, l.Stdout)
	}
	c.Stdout = w
	c.Stderr = w

	res := Result{}
	err := c.Run()
	res.Output = out.String()
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return res, fmt.Errorf("[localhost] %s: %w", cmd, err)
		}
		res.ExitCode = exitErr.ExitCode()
	}
	return Check(l.Host(), cmd, res, o)
}

// Put copies a file within the local filesystem
func (l *Local) Put(ctx context.Context, localPath, remotePath string, useSudo bool) error {
	if useSudo {
		_, err := l.Sudo(ctx, Quote("cp", l.path(localPath), remotePath))
		return err
	}
	return copyFile(l.path(localPath), l.path(remotePath))
}

// Get copies a file or directory tree within the local filesystem
func (l *Local) Get(ctx context.Context, remotePath, localPath string) error {
	_, err := l.Run(ctx, Quote("cp", "-r", l.path(remotePath), l.path(localPath)))
	return err
}

func (l *Local) Exists(ctx context.Context, path string) (bool, error) {
	_, err := os.Stat(l.path(path))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}

func (l *Local) Close() error { return nil }

func (l *Local) path(p string) string {
	if filepath.IsAbs(p) || l.Dir == "" {
		return p
	}
	return filepath.Join(l.Dir, p)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
