package refresh

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/serviceinfo/serviceinfo/internal/ops/env"
	"github.com/serviceinfo/serviceinfo/internal/ops/remote"
	"github.com/serviceinfo/serviceinfo/internal/ops/remote/remotetest"
	"github.com/serviceinfo/serviceinfo/internal/pkg/logger"
)

const (
	stagingHost = "staging.example.com"
	wrapper     = "/var/www/service_info/run_with_db.sh"
	media       = "/var/www/service_info/public/media"
	manage      = "SERVICEINFO_ENV=staging /var/www/service_info/manage.sh"
)

type fixture struct {
	env        *env.Environment
	target     *remotetest.Recorder
	production *remotetest.Recorder
	local      *remotetest.Recorder
	refresher  *Refresher
	out        *strings.Builder
	workDir    string
}

func newFixture(t *testing.T, name string, confirm Confirmer) *fixture {
	t.Helper()
	e := env.New(name, stagingHost, "serviceinfo-staging.rescue.org")

	target := remotetest.New(stagingHost)
	production := remotetest.New(e.ProductionMaster)
	local := remotetest.New("localhost")
	remotetest.Shared(target, production, local)

	work := t.TempDir()
	out := &strings.Builder{}
	r := New(e, remotetest.Dialer(target, production), local, Config{
		WorkDir: work,
		Confirm: confirm,
		Out:     out,
	}, logger.Nop())

	return &fixture{
		env:        e,
		target:     target,
		production: production,
		local:      local,
		refresher:  r,
		out:        out,
		workDir:    work,
	}
}

func swapAndRestart() []string {
	return []string{
		"put: service_info.sql -> /tmp/service_info.sql",
		"sudo: supervisorctl stop all",
		"sudo: " + wrapper + " dropdb --if-exists service_info_staging_backup",
		"sudo: " + wrapper + ` psql master -c "alter database service_info_staging rename to service_info_staging_backup"`,
		"sudo: " + wrapper + " createdb -E UTF-8 -O service_info_staging service_info_staging",
		"sudo: " + wrapper + ` psql service_info_staging -c "CREATE EXTENSION postgis;"`,
		"sudo: " + wrapper + " psql -U service_info_staging -d service_info_staging -f /tmp/service_info.sql",
		"sudo: rm -f /tmp/service_info.sql",
		"run: rsync -zPae ssh --delete media staging.example.com:/tmp/",
		"sudo: rm -rf " + media + ".backup",
		"sudo: mv " + media + " " + media + ".backup",
		"sudo: cp -r /tmp/media " + media,
		"sudo: chown -R service_info:service_info " + media,
		"sudo: rm -rf /tmp/media",
		"sudo[service_info]: " + manage + " migrate",
		"sudo[service_info]: " + manage + " change-site --from=serviceinfo.rescue.org --to=serviceinfo-staging.rescue.org",
		"sudo[service_info]: " + manage + " rebuild-index",
		"sudo: supervisorctl start all",
		"run: rm -rf service_info.sql media",
	}
}

func TestRefresh_ProductionRefused(t *testing.T) {
	f := newFixture(t, env.Production, nil)

	err := f.refresher.Refresh(context.Background(), "")
	assert.ErrorIs(t, err, ErrProductionRefresh)
	assert.Empty(t, f.local.Calls())
}

func TestRefresh_ProductionMasterRefused(t *testing.T) {
	e := env.New("prod", stagingHost, "")
	e.Master = e.ProductionMaster
	e.Hosts = []string{e.ProductionMaster}

	target := remotetest.New(e.Master)
	local := remotetest.New("localhost")
	remotetest.Shared(target, local)
	r := New(e, remotetest.Dialer(target), local, Config{
		WorkDir: t.TempDir(),
		Out:     &strings.Builder{},
	}, logger.Nop())

	err := r.Refresh(context.Background(), "")
	assert.ErrorIs(t, err, ErrProductionRefresh)
	err = r.RefreshFromBackup(context.Background(), "/backups/2026-10-01")
	assert.ErrorIs(t, err, ErrProductionRefresh)
	assert.Empty(t, local.Calls())
}

func TestRefresh_FromProduction(t *testing.T) {
	f := newFixture(t, "staging", nil)
	f.production.Files["/tmp/service_info.sql"] = "-- dump\n"
	f.production.Files[media] = "media archive"

	require.NoError(t, f.refresher.Refresh(context.Background(), ""))

	want := append([]string{
		"sudo: " + wrapper + " pg_dump -Ox service_info_production -U service_info_production > /tmp/service_info.sql",
		"get: /tmp/service_info.sql -> service_info.sql",
		"get: " + media + " -> media",
		"sudo: rm -f /tmp/service_info.sql",
	}, swapAndRestart()...)
	assert.Equal(t, want, f.local.Commands())

	assert.Equal(t, "-- dump\n", f.target.Files["/tmp/service_info.sql"])

	for _, c := range f.local.Calls() {
		if strings.HasPrefix(c.Command, "mv ") {
			assert.True(t, c.WarnOnly, "media move tolerates a missing directory")
		}
	}
}

func TestRefresh_FromPath(t *testing.T) {
	f := newFixture(t, "staging", nil)
	require.NoError(t, os.WriteFile(filepath.Join(f.workDir, "service_info.sql"), []byte("-- backup\n"), 0o600))

	require.NoError(t, f.refresher.RefreshFromBackup(context.Background(), "/backups/2026-10-01"))

	want := append([]string{
		"run: cp /backups/2026-10-01/service_info.sql service_info.sql",
		"run: cp -r /backups/2026-10-01/public/media .",
	}, swapAndRestart()...)
	assert.Equal(t, want, f.local.Commands())
	assert.Contains(t, f.out.String(), "Backup has been restored")

	for _, c := range f.local.Calls() {
		assert.NotEqual(t, f.env.ProductionMaster, c.Host)
	}
}

func TestRefresh_CustomFixCommands(t *testing.T) {
	f := newFixture(t, "staging", nil)
	f.env.FixCommands = []string{"clear-sessions"}
	require.NoError(t, os.WriteFile(filepath.Join(f.workDir, "service_info.sql"), []byte("-- backup\n"), 0o600))

	require.NoError(t, f.refresher.Refresh(context.Background(), "/backups/latest"))

	cmds := f.local.Commands()
	assert.Contains(t, cmds, "sudo[service_info]: "+manage+" clear-sessions")
	for _, c := range cmds {
		assert.NotContains(t, c, "change-site")
	}
}

func TestRefresh_LoadFailureReportsRecovery(t *testing.T) {
	f := newFixture(t, "staging", nil)
	require.NoError(t, os.WriteFile(filepath.Join(f.workDir, "service_info.sql"), []byte("-- backup\n"), 0o600))
	f.target.Fail["-f /tmp/service_info.sql"] = 3

	err := f.refresher.Refresh(context.Background(), "/backups/latest")
	require.Error(t, err)

	var phaseErr *PhaseError
	require.True(t, errors.As(err, &phaseErr))
	assert.Equal(t, PhaseSwap, phaseErr.Phase)
	assert.Contains(t, phaseErr.Recovery, "alter database service_info_staging_backup rename to service_info_staging")
	assert.Contains(t, phaseErr.Recovery, "dropdb --if-exists service_info_staging")
	assert.Contains(t, err.Error(), "swap")

	var cmdErr *remote.CommandError
	require.True(t, errors.As(err, &cmdErr))
	assert.Equal(t, 3, cmdErr.ExitCode)

	for _, c := range f.local.Commands() {
		assert.NotContains(t, c, "supervisorctl start")
	}
}

func TestRefresh_StopFailureHasNoRecovery(t *testing.T) {
	f := newFixture(t, "staging", nil)
	require.NoError(t, os.WriteFile(filepath.Join(f.workDir, "service_info.sql"), []byte("-- backup\n"), 0o600))
	f.target.Fail["supervisorctl stop"] = 1

	err := f.refresher.Refresh(context.Background(), "/backups/latest")

	var phaseErr *PhaseError
	require.True(t, errors.As(err, &phaseErr))
	assert.Equal(t, PhaseStage, phaseErr.Phase)
	assert.Empty(t, phaseErr.Recovery)
}

func TestGetDBDump(t *testing.T) {
	f := newFixture(t, "staging", nil)
	f.target.Files["/var/www/service_info/service_info_staging.sql"] = "-- dump\n"

	name, err := f.refresher.GetDBDump(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, "service_info_staging.sql", name)

	assert.Equal(t, []string{
		"sudo[service_info]: " + wrapper + " pg_dump -Oxc service_info_staging -U service_info_staging > /var/www/service_info/service_info_staging.sql",
		"get: /var/www/service_info/service_info_staging.sql -> service_info_staging.sql",
	}, f.local.Commands())

	data, err := os.ReadFile(filepath.Join(f.workDir, name))
	require.NoError(t, err)
	assert.Equal(t, "-- dump\n", string(data))
}

type answer bool

func (a answer) Confirm(string, bool) (bool, error) { return bool(a), nil }

func TestResetLocalDB(t *testing.T) {
	t.Run("declined", func(t *testing.T) {
		f := newFixture(t, "staging", answer(false))
		err := f.refresher.ResetLocalDB(context.Background())
		assert.ErrorIs(t, err, remote.ErrAborted)
		assert.Empty(t, f.local.Calls())
	})

	t.Run("confirmed", func(t *testing.T) {
		f := newFixture(t, "staging", answer(true))
		f.target.Files["/var/www/service_info/service_info_staging.sql"] = "-- dump\n"
		f.local.Fail["dropdb service_info"] = 1

		require.NoError(t, f.refresher.ResetLocalDB(context.Background()))

		cmds := f.local.Commands()
		assert.Equal(t, []string{
			"run: dropdb service_info",
			"run: createdb -E UTF-8 service_info",
			`run: psql service_info -c "CREATE EXTENSION postgis;"`,
			"run: cat service_info_staging.sql | psql service_info",
		}, cmds[2:])
	})
}

func TestResetLocalMedia(t *testing.T) {
	f := newFixture(t, "staging", nil)

	require.NoError(t, f.refresher.ResetLocalMedia(context.Background(), "/home/dev/service-info"))
	assert.Equal(t, []string{
		"run: rsync -rvaz staging.example.com:" + media + " /home/dev/service-info/public",
	}, f.local.Commands())

	assert.Error(t, f.refresher.ResetLocalMedia(context.Background(), ""))
}
