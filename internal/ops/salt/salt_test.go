package salt

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/serviceinfo/serviceinfo/internal/ops/env"
	"github.com/serviceinfo/serviceinfo/internal/ops/remote/remotetest"
	"github.com/serviceinfo/serviceinfo/internal/pkg/logger"
)

const (
	masterHost = "master.example.com"
	webHost    = "web1.example.com"
	version    = "2015.5.1"
)

func newSalt(t *testing.T, r *remotetest.Recorder) *Salt {
	t.Helper()
	conf := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(conf, bootstrapScript), []byte("#!/bin/sh\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(conf, "master.conf"), []byte("file_roots: {}\n"), 0o600))
	e := env.New("staging", masterHost, "staging.example.com")
	return New(r, e, version, conf, logger.Nop())
}

func TestParseVersion(t *testing.T) {
	tests := []struct {
		output string
		want   string
	}{
		{"salt 2015.5.1 (Lithium)", "2015.5.1"},
		{"salt-minion 2014.7.0", "2014.7.0"},
		{"command not found", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.output, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseVersion(tt.output))
		})
	}
}

func TestValidateRoles(t *testing.T) {
	assert.NoError(t, ValidateRoles("web", "worker", "salt-master"))
	assert.NoError(t, ValidateRoles())

	err := ValidateRoles("web", "database")
	assert.ErrorIs(t, err, ErrInvalidRole)
	assert.Contains(t, err.Error(), "database")
}

func TestRenderMinionConfig(t *testing.T) {
	e := env.New("staging", masterHost, "staging.example.com")

	t.Run("remote minion points at the master", func(t *testing.T) {
		data, err := RenderMinionConfig(e, webHost, []string{"web", "worker"})
		require.NoError(t, err)

		var cfg MinionConfig
		require.NoError(t, yaml.Unmarshal(data, &cfg))
		assert.Equal(t, masterHost, cfg.Master)
		assert.Equal(t, "mixed", cfg.Output)
		assert.Equal(t, "staging", cfg.Grains.Environment)
		assert.Equal(t, []string{"web", "worker"}, cfg.Grains.Roles)
		assert.Contains(t, cfg.MineFunctions, "network.interfaces")
		assert.Contains(t, cfg.MineFunctions, "network.ip_addrs")
	})

	t.Run("master minion uses localhost", func(t *testing.T) {
		data, err := RenderMinionConfig(e, masterHost, []string{"salt-master"})
		require.NoError(t, err)

		var cfg MinionConfig
		require.NoError(t, yaml.Unmarshal(data, &cfg))
		assert.Equal(t, "localhost", cfg.Master)
	})
}

func TestAddRoleToConfig(t *testing.T) {
	current := []byte(`master: master.example.com
output: mixed
log_level: warning
grains:
  environment: staging
  roles:
    - web
`)

	t.Run("appends and keeps other keys", func(t *testing.T) {
		data, err := AddRoleToConfig(current, "worker")
		require.NoError(t, err)

		var cfg map[string]interface{}
		require.NoError(t, yaml.Unmarshal(data, &cfg))
		assert.Equal(t, "warning", cfg["log_level"])
		assert.Equal(t, "master.example.com", cfg["master"])

		grains := cfg["grains"].(map[string]interface{})
		assert.Equal(t, "staging", grains["environment"])
		assert.Equal(t, []interface{}{"web", "worker"}, grains["roles"])
	})

	t.Run("existing role", func(t *testing.T) {
		_, err := AddRoleToConfig(current, "web")
		assert.ErrorIs(t, err, ErrRoleExists)
	})

	t.Run("invalid role", func(t *testing.T) {
		_, err := AddRoleToConfig(current, "database")
		assert.ErrorIs(t, err, ErrInvalidRole)
	})

	t.Run("no grains yet", func(t *testing.T) {
		data, err := AddRoleToConfig([]byte("master: localhost\n"), "beat")
		require.NoError(t, err)

		var cfg MinionConfig
		require.NoError(t, yaml.Unmarshal(data, &cfg))
		assert.Equal(t, []string{"beat"}, cfg.Grains.Roles)
	})

	t.Run("roles not a list", func(t *testing.T) {
		_, err := AddRoleToConfig([]byte("grains:\n  roles: web\n"), "worker")
		assert.ErrorContains(t, err, "grains.roles is a string, not a list")
	})

	t.Run("grains not a mapping", func(t *testing.T) {
		_, err := AddRoleToConfig([]byte("grains: [web]\n"), "worker")
		assert.ErrorContains(t, err, "grains is a []interface {}, not a mapping")
	})
}

func TestInstall(t *testing.T) {
	ctx := context.Background()

	t.Run("current version only restarts", func(t *testing.T) {
		r := remotetest.New(masterHost)
		r.Output["salt --version"] = "salt 2015.5.1 (Lithium)"

		installed, err := newSalt(t, r).Install(ctx, version, true, false, true)
		require.NoError(t, err)
		assert.False(t, installed)
		assert.Equal(t, []string{
			"run: salt --version",
			"sudo: service salt-master restart",
		}, r.Commands())
	})

	t.Run("outdated minion is purged and bootstrapped", func(t *testing.T) {
		r := remotetest.New(webHost)
		r.Output["salt-minion --version"] = "salt-minion 2014.7.0 (Helium)"

		installed, err := newSalt(t, r).Install(ctx, version, false, true, true)
		require.NoError(t, err)
		assert.True(t, installed)
		assert.Equal(t, []string{
			"run: salt-minion --version",
			"sudo: apt-get purge salt-minion -y",
			"put: install_salt.sh -> install_salt.sh",
			"sudo: sh install_salt.sh -D git v2015.5.1",
		}, r.Commands())
	})

	t.Run("missing master installs without minion", func(t *testing.T) {
		r := remotetest.New(masterHost)
		r.Fail["--version"] = 127

		installed, err := newSalt(t, r).Install(ctx, version, true, false, true)
		require.NoError(t, err)
		assert.True(t, installed)
		assert.Equal(t, []string{
			"run: salt --version",
			"put: install_salt.sh -> install_salt.sh",
			"sudo: sh install_salt.sh -D -M -N git v2015.5.1",
		}, r.Commands())
	})
}

func TestSetupMinion(t *testing.T) {
	ctx := context.Background()
	master := remotetest.New(masterHost)
	minion := remotetest.New(webHost)
	remotetest.Shared(master, minion)
	minion.Output["--version"] = "salt-minion 2015.5.1"
	minion.Output["hostname -f"] = "web1.internal\n"

	err := newSalt(t, minion).SetupMinion(ctx, newSalt(t, master), "web")
	require.NoError(t, err)

	cmds := minion.Commands()
	require.Len(t, cmds, 7)
	assert.Equal(t, "sudo: mkdir -p /etc/salt", cmds[0])
	assert.Regexp(t, `^put: minion-.*\.yaml -> /etc/salt/minion$`, cmds[1])
	assert.Equal(t, []string{
		"run: salt-minion --version",
		"sudo: service salt-minion restart",
		"run: hostname -f",
		"sudo: salt-key --accept=web1.internal -y",
		"sudo: salt-key -L",
	}, cmds[2:])
	assert.Equal(t, masterHost, minion.Calls()[5].Host)

	var cfg MinionConfig
	require.NoError(t, yaml.Unmarshal([]byte(minion.Files["/etc/salt/minion"]), &cfg))
	assert.Equal(t, masterHost, cfg.Master)
	assert.Equal(t, []string{"web"}, cfg.Grains.Roles)

	t.Run("invalid role touches nothing", func(t *testing.T) {
		r := remotetest.New(webHost)
		err := newSalt(t, r).SetupMinion(ctx, newSalt(t, master), "database")
		assert.ErrorIs(t, err, ErrInvalidRole)
		assert.Empty(t, r.Calls())
	})
}

func TestAddRole(t *testing.T) {
	r := remotetest.New(webHost)
	r.Files["/etc/salt/minion"] = "master: master.example.com\ngrains:\n  environment: staging\n  roles:\n    - web\n"

	require.NoError(t, newSalt(t, r).AddRole(context.Background(), "worker"))

	var cfg MinionConfig
	require.NoError(t, yaml.Unmarshal([]byte(r.Files["/etc/salt/minion"]), &cfg))
	assert.Equal(t, []string{"web", "worker"}, cfg.Grains.Roles)

	cmds := r.Commands()
	assert.Equal(t, "sudo: service salt-minion restart", cmds[len(cmds)-1])

	err := newSalt(t, r).AddRole(context.Background(), "worker")
	assert.ErrorIs(t, err, ErrRoleExists)
}

func TestDeploy(t *testing.T) {
	r := remotetest.New(masterHost)
	synced := false
	sync := func(context.Context) error {
		synced = true
		return nil
	}

	require.NoError(t, newSalt(t, r).Deploy(context.Background(), "debug", sync))
	assert.True(t, synced)
	assert.Equal(t, []string{
		"sudo: salt -G 'environment:staging' -ldebug saltutil.sync_all",
		"sudo: salt -G 'environment:staging' -ldebug state.highstate",
	}, r.Commands())

	for _, c := range r.Calls() {
		assert.True(t, c.WarnOnly, c.Command)
	}
}

func TestDeploy_SyncFailure(t *testing.T) {
	r := remotetest.New(masterHost)
	boom := errors.New("rsync failed")

	err := newSalt(t, r).Deploy(context.Background(), "", func(context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, r.Calls())
}

func TestCommands(t *testing.T) {
	ctx := context.Background()
	r := remotetest.New(masterHost)
	s := newSalt(t, r)

	require.NoError(t, s.Cmd(ctx, "test.ping", "", ""))
	require.NoError(t, s.Margarita(ctx))
	require.NoError(t, s.DeleteKey(ctx, "old-web"))
	require.NoError(t, s.ManageRun(ctx, "migrate --noinput"))

	assert.Equal(t, []string{
		"sudo: salt '*' -linfo test.ping",
		"sudo: salt '*' -linfo state.sls margarita",
		"sudo: service salt-master restart",
		"sudo: salt-key -L",
		"sudo: salt-key --delete=old-web -y",
		"sudo: salt-key -L",
		"sudo[service_info]: SERVICEINFO_ENV=staging /var/www/service_info/manage.sh migrate --noinput",
	}, r.Commands())
}
