package secrets

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/serviceinfo/serviceinfo/internal/ops/env"
	"github.com/serviceinfo/serviceinfo/internal/ops/remote"
	"github.com/serviceinfo/serviceinfo/internal/ops/remote/remotetest"
	"github.com/serviceinfo/serviceinfo/internal/ops/salt"
	"github.com/serviceinfo/serviceinfo/internal/pkg/logger"
)

const (
	masterHost = "master.example.com"
	remoteFile = "/srv/pillar/staging/secrets.sls"
)

type fixture struct {
	master *remotetest.Recorder
	local  *remotetest.Recorder
	syncer *Syncer
	out    *strings.Builder
	asked  *int
}

type countingConfirmer struct {
	answer bool
	asked  *int
}

func (c countingConfirmer) Confirm(string, bool) (bool, error) {
	*c.asked++
	return c.answer, nil
}

func newFixture(t *testing.T, answer bool) *fixture {
	t.Helper()
	conf := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(conf, "pillar", "staging"), 0o755))

	master := remotetest.New(masterHost)
	local := remotetest.New("localhost")
	remotetest.Shared(master, local)

	e := env.New("staging", masterHost, "staging.example.com")
	log := logger.Nop()
	out := &strings.Builder{}
	asked := 0

	s := New(master, local, salt.New(master, e, env.DefaultSaltVersion, conf, log), e, Config{
		ConfRoot: conf,
		SSHUser:  "deploy",
		Confirm:  countingConfirmer{answer: answer, asked: &asked},
		Out:      out,
	}, log)

	return &fixture{master: master, local: local, syncer: s, out: out, asked: &asked}
}

func (f *fixture) writeLocal(t *testing.T, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(f.syncer.LocalPath(), []byte(content), 0o600))
}

func pushCommands(conf string) []string {
	return []string{
		"run: rsync -pthrvz --delete " + conf + "/ deploy@master.example.com:/tmp/salt",
		"sudo: rm -rf /srv/salt /srv/pillar",
		"sudo: mv /tmp/salt/* /srv/",
		"sudo: rm -rf /tmp/salt/",
		"sudo: salt '*' -linfo state.sls margarita",
		"sudo: service salt-master restart",
	}
}

func TestPaths(t *testing.T) {
	f := newFixture(t, true)
	assert.Equal(t, remoteFile, f.syncer.RemotePath())
	assert.True(t, strings.HasSuffix(f.syncer.LocalPath(), "pillar/staging/secrets.sls"))
	assert.True(t, strings.HasSuffix(f.syncer.ScratchPath(), "pillar/staging/secrets.sls.remote"))
	assert.False(t, f.syncer.HaveSecrets())
}

func TestGetSecrets_KeepsBackup(t *testing.T) {
	f := newFixture(t, true)
	f.writeLocal(t, "old: 1\n")
	f.master.Files[remoteFile] = "new: 2\n"

	require.NoError(t, f.syncer.GetSecrets(context.Background()))

	current, err := os.ReadFile(f.syncer.LocalPath())
	require.NoError(t, err)
	assert.Equal(t, "new: 2\n", string(current))

	backup, err := os.ReadFile(f.syncer.LocalPath() + ".bak")
	require.NoError(t, err)
	assert.Equal(t, "old: 1\n", string(backup))
}

func TestSync_MissingLocalFetchesFirst(t *testing.T) {
	f := newFixture(t, false)
	f.master.Files[remoteFile] = "db_password: s3cret\n"

	require.NoError(t, f.syncer.Sync(context.Background()))

	assert.True(t, f.syncer.HaveSecrets())
	assert.Zero(t, *f.asked)

	conf := f.syncer.cfg.ConfRoot
	want := append([]string{
		"sudo: mkdir -p /srv",
		"get: " + remoteFile + " -> secrets.sls",
	}, pushCommands(conf)...)
	assert.Equal(t, want, f.master.Commands())
}

func TestSync_NoDifference(t *testing.T) {
	f := newFixture(t, false)
	f.writeLocal(t, "db_password: s3cret\n")
	f.master.Files[remoteFile] = "db_password: s3cret\n"

	require.NoError(t, f.syncer.Sync(context.Background()))

	assert.Zero(t, *f.asked)
	assert.Empty(t, f.out.String())
	assert.NoFileExists(t, f.syncer.ScratchPath())
}

func TestSync_DifferenceConfirmed(t *testing.T) {
	f := newFixture(t, true)
	f.writeLocal(t, "db_password: new\n")
	f.master.Files[remoteFile] = "db_password: old\n"

	require.NoError(t, f.syncer.Sync(context.Background()))

	assert.Equal(t, 1, *f.asked)
	assert.Contains(t, f.out.String(), "-db_password: old")
	assert.Contains(t, f.out.String(), "+db_password: new")
	assert.NoFileExists(t, f.syncer.ScratchPath())

	cmds := f.master.Commands()
	assert.Equal(t, pushCommands(f.syncer.cfg.ConfRoot), cmds[len(cmds)-6:])
}

func TestSync_DifferenceDeclined(t *testing.T) {
	f := newFixture(t, false)
	f.writeLocal(t, "db_password: new\n")
	f.master.Files[remoteFile] = "db_password: old\n"

	err := f.syncer.Sync(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, remote.ErrAborted)
	assert.Contains(t, err.Error(), "resolve conflicts")

	scratch, readErr := os.ReadFile(f.syncer.ScratchPath())
	require.NoError(t, readErr)
	assert.Equal(t, "db_password: old\n", string(scratch))

	for _, c := range f.master.Commands() {
		assert.NotContains(t, c, "rsync")
		assert.NotContains(t, c, "margarita")
	}
}

func TestSync_NewRemoteNeedsNoConfirmation(t *testing.T) {
	f := newFixture(t, false)
	f.writeLocal(t, "db_password: first\n")

	require.NoError(t, f.syncer.Sync(context.Background()))

	assert.Zero(t, *f.asked)
	assert.Contains(t, f.out.String(), "+db_password: first")
	assert.NoFileExists(t, f.syncer.ScratchPath())
}

func TestParseAnswer(t *testing.T) {
	tests := []struct {
		answer string
		def    bool
		want   bool
	}{
		{"y\n", false, true},
		{"YES", false, true},
		{"n", true, false},
		{"", true, true},
		{"", false, false},
		{"maybe", false, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseAnswer(tt.answer, tt.def), "%q default %v", tt.answer, tt.def)
	}
}

func TestTerminalConfirmer(t *testing.T) {
	ok, err := (&TerminalConfirmer{AssumeYes: true}).Confirm("Continue?", false)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = (&TerminalConfirmer{}).Confirm("Continue?", false)
	assert.ErrorIs(t, err, ErrNotInteractive)

	ok, err = Answer(false).Confirm("Continue?", true)
	require.NoError(t, err)
	assert.False(t, ok)
}
