// Package secrets keeps the per-environment pillar secrets in step with the salt master
// and pushes the salt tree.
package secrets

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/serviceinfo/serviceinfo/internal/ops/env"
	"github.com/serviceinfo/serviceinfo/internal/ops/remote"
	"github.com/serviceinfo/serviceinfo/internal/ops/salt"
	"github.com/serviceinfo/serviceinfo/internal/pkg/logger"
)

const (
	fileName    = "secrets.sls"
	scratchName = "secrets.sls.remote"
	remoteRoot  = "/srv/pillar"
	stagingDir  = "/tmp/salt"
)

// Config configures a Syncer
type Config struct {
	// ConfRoot is the local salt tree (states and pillar)
	ConfRoot string
	// SSHUser is used in the rsync destination; empty uses the ssh default
	SSHUser string
	Confirm Confirmer
	// Out receives the secrets diff
	Out io.Writer
}

// Syncer pushes the local salt tree to an environment's master
type Syncer struct {
	master remote.Runner
	local  remote.Runner
	salt   *salt.Salt
	env    *env.Environment
	cfg    Config
	logger *logger.Logger
}

// New creates a Syncer. master runs on the salt master, local on the operator's machine.
func New(master, local remote.Runner, s *salt.Salt, e *env.Environment, cfg Config, log *logger.Logger) *Syncer {
	if cfg.ConfRoot == "" {
		cfg.ConfRoot = "conf"
	}
	if cfg.Out == nil {
		cfg.Out = io.Discard
	}
	return &Syncer{
		master: master,
		local:  local,
		salt:   s,
		env:    e,
		cfg:    cfg,
		logger: log,
	}
}

// LocalPath is the local secrets file of the environment
func (s *Syncer) LocalPath() string {
	return filepath.Join(s.cfg.ConfRoot, "pillar", s.env.Name, fileName)
}

// RemotePath is the secrets file on the master
func (s *Syncer) RemotePath() string {
	return path.Join(remoteRoot, s.env.Name, fileName)
}

// ScratchPath is where the remote copy is kept while comparing
func (s *Syncer) ScratchPath() string {
	return filepath.Join(s.cfg.ConfRoot, "pillar", s.env.Name, scratchName)
}

// HaveSecrets reports whether the local secrets file exists
func (s *Syncer) HaveSecrets() bool {
	_, err := os.Stat(s.LocalPath())
	return err == nil
}

// GetSecrets fetches the secrets file from the master, keeping any local copy as .bak
func (s *Syncer) GetSecrets(ctx context.Context) error {
	local := s.LocalPath()
	if s.HaveSecrets() {
		if err := copyFile(local, local+".bak"); err != nil {
			return fmt.Errorf("failed to back up %s: %w", local, err)
		}
	}
	if err := os.MkdirAll(filepath.Dir(local), 0o755); err != nil {
		return err
	}
	if err := s.master.Get(ctx, s.RemotePath(), local); err != nil {
		return fmt.Errorf("failed to fetch secrets: %w", err)
	}
	s.logger.With("file", local).Info("Fetched secrets from master")
	return nil
}

// Diff returns the unified diff from the remote copy to the local file. The remote
// copy is left at ScratchPath. exists reports whether the master had a secrets file.
func (s *Syncer) Diff(ctx context.Context) (diff string, exists bool, err error) {
	exists, err = s.master.Exists(ctx, s.RemotePath())
	if err != nil {
		return "", false, err
	}

	scratch := s.ScratchPath()
	if exists {
		if err := s.master.Get(ctx, s.RemotePath(), scratch); err != nil {
			return "", true, err
		}
	} else if err := os.WriteFile(scratch, nil, 0o600); err != nil {
		return "", false, err
	}

	remoteData, err := os.ReadFile(scratch)
	if err != nil {
		return "", exists, err
	}
	localData, err := os.ReadFile(s.LocalPath())
	if err != nil {
		return "", exists, err
	}

	diff, err = difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(remoteData)),
		B:        difflib.SplitLines(string(localData)),
		FromFile: scratchName,
		ToFile:   fileName,
		Context:  3,
	})
	return diff, exists, err
}

// Sync pushes the salt tree to the master. Local secrets are fetched first when missing.
// Otherwise local changes to secrets that exist remotely must be confirmed; declining
// stops before anything is pushed and leaves the remote copy at ScratchPath.
func (s *Syncer) Sync(ctx context.Context) error {
	if _, err := s.master.Sudo(ctx, "mkdir -p /srv"); err != nil {
		return err
	}

	if !s.HaveSecrets() {
		if err := s.GetSecrets(ctx); err != nil {
			return err
		}
	} else if err := s.reconcile(ctx); err != nil {
		return err
	}

	if _, err := s.local.Run(ctx, remote.Quote("rsync", "-pthrvz", "--delete", s.confDir(), s.destination())); err != nil {
		return err
	}
	for _, cmd := range []string{
		"rm -rf /srv/salt /srv/pillar",
		"mv /tmp/salt/* /srv/",
		"rm -rf /tmp/salt/",
	} {
		if _, err := s.master.Sudo(ctx, cmd); err != nil {
			return err
		}
	}

	return s.salt.Margarita(ctx)
}

func (s *Syncer) reconcile(ctx context.Context) error {
	diff, exists, err := s.Diff(ctx)
	if err != nil {
		return err
	}

	if diff != "" {
		fmt.Fprint(s.cfg.Out, diff)
		if exists {
			ok, err := s.cfg.Confirm.Confirm("Above changes will be made to secrets.sls. Continue?", false)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("file has been copied to %s, resolve conflicts then retry: %w",
					s.ScratchPath(), remote.ErrAborted)
			}
		}
	}

	return os.Remove(s.ScratchPath())
}

func (s *Syncer) confDir() string {
	return strings.TrimRight(s.cfg.ConfRoot, "/") + "/"
}

func (s *Syncer) destination() string {
	host := s.master.Host()
	if s.cfg.SSHUser != "" {
		host = s.cfg.SSHUser + "@" + host
	}
	return host + ":" + stagingDir
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0o600)
}
