// Package refresh replaces a non-production environment's database and media with a
// production snapshot or a local backup.
package refresh

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"

	"github.com/serviceinfo/serviceinfo/internal/ops/env"
	"github.com/serviceinfo/serviceinfo/internal/ops/remote"
	"github.com/serviceinfo/serviceinfo/internal/pkg/logger"
)

// ErrProductionRefresh is returned when asked to refresh production
var ErrProductionRefresh = errors.New("production cannot be refreshed")

// Phase names a step of a refresh
type Phase string

const (
	PhaseAcquire Phase = "acquire"
	PhaseStage   Phase = "stage"
	PhaseSwap    Phase = "swap"
	PhaseRestart Phase = "restart"
)

const (
	mediaDir = "media"
	tmpDir   = "/tmp"
)

// PhaseError reports the phase a refresh failed in. Recovery, when set, is the manual
// command that restores the previous state.
type PhaseError struct {
	Phase    Phase
	Recovery string
	Err      error
}

func (e *PhaseError) Error() string {
	msg := fmt.Sprintf("refresh failed during %s: %v", e.Phase, e.Err)
	if e.Recovery != "" {
		msg += "; to restore the previous state run on the master: " + e.Recovery
	}
	return msg
}

func (e *PhaseError) Unwrap() error {
	return e.Err
}

// Confirmer asks the operator a yes/no question
type Confirmer interface {
	Confirm(question string, def bool) (bool, error)
}

// Config configures a Refresher
type Config struct {
	// WorkDir is the local scratch directory; the local runner must run commands in it
	WorkDir string
	// SSHUser is used in rsync targets; empty uses the ssh default
	SSHUser string
	Confirm Confirmer
	Out     io.Writer
}

// Refresher refreshes one environment
type Refresher struct {
	env    *env.Environment
	dial   remote.Dialer
	local  remote.Runner
	cfg    Config
	logger *logger.Logger
}

// New creates a Refresher for e. dial opens the environment and production masters.
func New(e *env.Environment, dial remote.Dialer, local remote.Runner, cfg Config, log *logger.Logger) *Refresher {
	if cfg.WorkDir == "" {
		cfg.WorkDir = "."
	}
	if cfg.Out == nil {
		cfg.Out = io.Discard
	}
	return &Refresher{env: e, dial: dial, local: local, cfg: cfg, logger: log}
}

func (r *Refresher) dumpName() string {
	return r.env.Project + ".sql"
}

func (r *Refresher) remoteDump() string {
	return path.Join(tmpDir, r.dumpName())
}

func (r *Refresher) db(command string) string {
	return r.env.DBWrapper + " " + command
}

// Refresh loads a fresh database and media into the environment. With an empty
// fromPath the snapshot comes from the production master, otherwise fromPath must hold
// service_info.sql and public/media.
func (r *Refresher) Refresh(ctx context.Context, fromPath string) error {
	if r.env.IsProduction() {
		return ErrProductionRefresh
	}

	log := r.logger.WithFields(map[string]interface{}{
		"environment": r.env.Name,
		"source":      source(fromPath),
	})

	if err := r.acquire(ctx, fromPath); err != nil {
		return &PhaseError{Phase: PhaseAcquire, Err: err}
	}
	log.Info("Snapshot acquired")

	target, err := r.dial(ctx, r.env.Master)
	if err != nil {
		return &PhaseError{Phase: PhaseStage, Err: err}
	}
	defer target.Close()

	if err := r.stage(ctx, target); err != nil {
		return &PhaseError{Phase: PhaseStage, Err: err}
	}
	log.Info("Application stopped")

	if recovery, err := r.swap(ctx, target); err != nil {
		return &PhaseError{Phase: PhaseSwap, Recovery: recovery, Err: err}
	}
	log.Info("Database and media replaced")

	if err := r.restart(ctx, target); err != nil {
		return &PhaseError{Phase: PhaseRestart, Err: err}
	}
	log.Info("Refresh complete")
	return nil
}

// RefreshFromBackup restores the environment from a local backup directory
func (r *Refresher) RefreshFromBackup(ctx context.Context, backupPath string) error {
	if backupPath == "" {
		return errors.New("backup path is required")
	}
	if err := r.Refresh(ctx, backupPath); err != nil {
		return err
	}
	fmt.Fprintln(r.cfg.Out, "Backup has been restored. It sometimes takes a few minutes for the load "+
		"balancer to realize things are healthy again.")
	return nil
}

func (r *Refresher) acquire(ctx context.Context, fromPath string) error {
	if fromPath != "" {
		if _, err := r.local.Run(ctx, remote.Quote("cp", filepath.Join(fromPath, r.dumpName()), r.dumpName())); err != nil {
			return err
		}
		_, err := r.local.Run(ctx, remote.Quote("cp", "-r", filepath.Join(fromPath, "public", mediaDir), "."))
		return err
	}

	prod, err := r.dial(ctx, r.env.ProductionMaster)
	if err != nil {
		return err
	}
	defer prod.Close()

	prodDB := r.env.Project + "_" + env.Production
	dump := r.remoteDump()
	if _, err := prod.Sudo(ctx, r.db(fmt.Sprintf("pg_dump -Ox %s -U %s > %s", prodDB, prodDB, dump))); err != nil {
		return err
	}
	if err := prod.Get(ctx, dump, r.localPath(r.dumpName())); err != nil {
		return err
	}
	if err := prod.Get(ctx, r.env.MediaSource, r.localPath(mediaDir)); err != nil {
		return err
	}
	_, err = prod.Sudo(ctx, "rm -f "+dump)
	return err
}

func (r *Refresher) stage(ctx context.Context, target remote.Runner) error {
	if err := target.Put(ctx, r.localPath(r.dumpName()), r.remoteDump(), false); err != nil {
		return err
	}
	_, err := target.Sudo(ctx, "supervisorctl stop all")
	return err
}

// swap replaces the live database and media. The returned recovery command is set
// once the live database has been renamed away.
func (r *Refresher) swap(ctx context.Context, target remote.Runner) (string, error) {
	db := r.env.DBName()
	restore := r.db(fmt.Sprintf(`psql master -c "alter database %s_backup rename to %s"`, db, db))

	run := func(cmd string, opts ...remote.Option) error {
		_, err := target.Sudo(ctx, cmd, opts...)
		return err
	}

	if err := run(r.db(fmt.Sprintf("dropdb --if-exists %s_backup", db))); err != nil {
		return "", err
	}
	if err := run(r.db(fmt.Sprintf(`psql master -c "alter database %s rename to %s_backup"`, db, db))); err != nil {
		return "", err
	}
	if err := run(r.db(fmt.Sprintf("createdb -E UTF-8 -O %s %s", db, db))); err != nil {
		return restore, err
	}

	restore = r.db(fmt.Sprintf("dropdb --if-exists %s", db)) + " && " + restore
	if err := run(r.db(fmt.Sprintf(`psql %s -c "CREATE EXTENSION postgis;"`, db))); err != nil {
		return restore, err
	}
	if err := run(r.db(fmt.Sprintf("psql -U %s -d %s -f %s", db, db, r.remoteDump()))); err != nil {
		return restore, err
	}
	if err := run("rm -f " + r.remoteDump()); err != nil {
		return "", err
	}

	media := r.env.MediaSource
	staged := path.Join(tmpDir, mediaDir)
	if _, err := r.local.Run(ctx, remote.Quote("rsync", "-zPae", "ssh", "--delete", mediaDir, r.sshHost(r.env.Master)+":"+tmpDir+"/")); err != nil {
		return "", err
	}
	if err := run("rm -rf " + media + ".backup"); err != nil {
		return "", err
	}
	if err := run(fmt.Sprintf("mv %s %s.backup", media, media), remote.WarnOnly()); err != nil {
		return "", err
	}

	restoreMedia := fmt.Sprintf("rm -rf %s && mv %s.backup %s", media, media, media)
	if err := run(fmt.Sprintf("cp -r %s %s", staged, media)); err != nil {
		return restoreMedia, err
	}
	if err := run(fmt.Sprintf("chown -R %s:%s %s", r.env.Project, r.env.Project, media)); err != nil {
		return "", err
	}
	return "", run("rm -rf " + staged)
}

func (r *Refresher) restart(ctx context.Context, target remote.Runner) error {
	commands := []string{"migrate"}
	commands = append(commands, r.env.RefreshFixCommands()...)
	commands = append(commands, "rebuild-index")

	for _, cmd := range commands {
		if _, err := target.Sudo(ctx, r.env.ManageCommand(cmd), remote.AsUser(r.env.Project)); err != nil {
			return err
		}
	}
	if _, err := target.Sudo(ctx, "supervisorctl start all"); err != nil {
		return err
	}
	_, err := r.local.Run(ctx, remote.Quote("rm", "-rf", r.dumpName(), mediaDir))
	return err
}

func (r *Refresher) localPath(name string) string {
	return filepath.Join(r.cfg.WorkDir, name)
}

func (r *Refresher) sshHost(host string) string {
	if r.cfg.SSHUser == "" {
		return host
	}
	return r.cfg.SSHUser + "@" + host
}

func source(fromPath string) string {
	if fromPath == "" {
		return env.Production
	}
	return fromPath
}
