package refresh

import (
	"context"
	"fmt"
	"path"
	"path/filepath"

	"github.com/serviceinfo/serviceinfo/internal/ops/remote"
)

// GetDBDump dumps the environment database on its master and downloads it into the
// work directory. clean adds DROP statements to the dump. It returns the local file name.
func (r *Refresher) GetDBDump(ctx context.Context, clean bool) (string, error) {
	db := r.env.DBName()
	dumpFile := db + ".sql"
	remoteFile := path.Join(r.env.ProjectRoot, dumpFile)

	flags := "-Ox"
	if clean {
		flags += "c"
	}

	target, err := r.dial(ctx, r.env.Master)
	if err != nil {
		return "", err
	}
	defer target.Close()

	cmd := r.db(fmt.Sprintf("pg_dump %s %s -U %s > %s", flags, db, db, remoteFile))
	if _, err := target.Sudo(ctx, cmd, remote.AsUser(r.env.Project)); err != nil {
		return "", err
	}
	if err := target.Get(ctx, remoteFile, r.localPath(dumpFile)); err != nil {
		return "", err
	}

	r.logger.With("file", dumpFile).Info("Database dump downloaded")
	return dumpFile, nil
}

// ResetLocalDB replaces the local database with a dump of the environment
func (r *Refresher) ResetLocalDB(ctx context.Context) error {
	question := fmt.Sprintf("Are you sure you want to reset your local database with the %s database?", r.env.Name)
	ok, err := r.cfg.Confirm.Confirm(question, false)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("local database reset: %w", remote.ErrAborted)
	}

	dumpFile, err := r.GetDBDump(ctx, false)
	if err != nil {
		return err
	}

	localDB := r.env.Project
	if _, err := r.local.Run(ctx, "dropdb "+localDB, remote.WarnOnly()); err != nil {
		return err
	}
	for _, cmd := range []string{
		"createdb -E UTF-8 " + localDB,
		fmt.Sprintf(`psql %s -c "CREATE EXTENSION postgis;"`, localDB),
		fmt.Sprintf("cat %s | psql %s", remote.Quote(dumpFile), localDB),
	} {
		if _, err := r.local.Run(ctx, cmd); err != nil {
			return err
		}
	}
	return nil
}

// ResetLocalMedia copies the environment's media into dir/public
func (r *Refresher) ResetLocalMedia(ctx context.Context, dir string) error {
	if dir == "" {
		return fmt.Errorf("project directory is required")
	}
	src := r.sshHost(r.env.Master) + ":" + r.env.MediaSource
	_, err := r.local.Run(ctx, remote.Quote("rsync", "-rvaz", src, filepath.Join(dir, "public")))
	return err
}
