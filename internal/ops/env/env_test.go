package env

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, []string{"production", "staging", "testing"}, cfg.Names())
	assert.Equal(t, DefaultSaltVersion, cfg.SaltVersion)
	assert.Equal(t, "conf", cfg.ConfRoot)

	staging, err := cfg.Get("staging")
	require.NoError(t, err)
	assert.Equal(t, "staging", staging.Name)
	assert.Equal(t, "ec2-54-93-66-254.eu-central-1.compute.amazonaws.com", staging.Master)
	assert.Equal(t, []string{staging.Master}, staging.Hosts)
	assert.Equal(t, "/var/www/service_info", staging.ProjectRoot)
	assert.Equal(t, "/var/www/service_info/public/media", staging.MediaSource)
	assert.Equal(t, "/var/www/service_info/run_with_db.sh", staging.DBWrapper)
	assert.Equal(t, "ec2-54-93-51-232.eu-central-1.compute.amazonaws.com", staging.ProductionMaster)
	assert.Equal(t, "service_info_staging", staging.DBName())
	assert.False(t, staging.IsProduction())

	prod, err := cfg.Get("production")
	require.NoError(t, err)
	assert.True(t, prod.IsProduction())
	assert.Equal(t, prod.ProductionMaster, prod.Master)

	_, err = cfg.Get("qa")
	assert.ErrorContains(t, err, "unknown environment")
}

func TestLoadFile_Overrides(t *testing.T) {
	file := filepath.Join(t.TempDir(), "ops.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
salt_version: "2016.3.0"
environments:
  staging:
    master: staging.internal
  qa:
    master: qa.internal
    hosts: [qa-1.internal, qa-2.internal]
    domain: qa.example.org
    fix_commands: ["migrate"]
`), 0o600))

	cfg, err := LoadFile(file)
	require.NoError(t, err)

	assert.Equal(t, "2016.3.0", cfg.SaltVersion)
	assert.Equal(t, []string{"production", "qa", "staging", "testing"}, cfg.Names())

	staging, _ := cfg.Get("staging")
	assert.Equal(t, "staging.internal", staging.Master)
	assert.Equal(t, "serviceinfo-staging.rescue.org", staging.Domain)

	qa, _ := cfg.Get("qa")
	assert.Equal(t, []string{"qa-1.internal", "qa-2.internal"}, qa.Hosts)
	assert.Equal(t, []string{"migrate"}, qa.RefreshFixCommands())
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("SERVICEINFO_OPS_ENVIRONMENTS_TESTING_MASTER", "override.internal")

	cfg, err := Load(viper.New())
	require.NoError(t, err)

	e, _ := cfg.Get("testing")
	assert.Equal(t, "override.internal", e.Master)
}

func TestEnvironment_Commands(t *testing.T) {
	cfg, err := Load(viper.New())
	require.NoError(t, err)
	staging, _ := cfg.Get("staging")

	assert.Equal(t,
		"SERVICEINFO_ENV=staging /var/www/service_info/manage.sh migrate",
		staging.ManageCommand("migrate"))
	assert.Equal(t,
		[]string{"change-site --from=serviceinfo.rescue.org --to=serviceinfo-staging.rescue.org"},
		staging.RefreshFixCommands())

	prod, _ := cfg.Get("production")
	assert.Empty(t, prod.RefreshFixCommands())
}

func TestEnvironment_IsProduction(t *testing.T) {
	tests := []struct {
		name   string
		env    *Environment
		isProd bool
	}{
		{"named production", New(Production, "other.internal", ""), true},
		{"staging", New("staging", "staging.internal", ""), false},
		{"master is production master", New("prod", defaultProductionMaster, ""), true},
		{"host is production master", &Environment{
			Name:             "qa",
			Master:           "qa.internal",
			Hosts:            []string{"qa-1.internal", defaultProductionMaster},
			ProductionMaster: defaultProductionMaster,
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.isProd, tt.env.IsProduction())
		})
	}
}
