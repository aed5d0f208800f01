// Package env describes the deployment environments the ops CLI can target.
package env

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/spf13/viper"
)

const (
	// DefaultProject is the project name used for paths, database names and the app user
	DefaultProject = "service_info"
	// DefaultSaltVersion is the salt release installed on new nodes
	DefaultSaltVersion = "2015.5.1"
	// Production is the name of the environment that refresh refuses to touch
	Production = "production"

	defaultProductionMaster = "ec2-54-93-51-232.eu-central-1.compute.amazonaws.com"
	defaultProductionDomain = "serviceinfo.rescue.org"
)

// Environment is one deployment target
type Environment struct {
	Name   string   `mapstructure:"-"`
	Master string   `mapstructure:"master"`
	Hosts  []string `mapstructure:"hosts"`
	// Domain is the public domain of the site in this environment
	Domain string `mapstructure:"domain"`

	Project          string `mapstructure:"project"`
	ProjectRoot      string `mapstructure:"project_root"`
	MediaSource      string `mapstructure:"media_source"`
	DBWrapper        string `mapstructure:"db_wrapper"`
	ProductionMaster string `mapstructure:"production_master"`
	ProductionDomain string `mapstructure:"production_domain"`

	// FixCommands are management commands run after a refresh, before reindexing
	FixCommands []string `mapstructure:"fix_commands"`
}

// IsProduction reports whether e is the production environment or points at
// the production master under another name
func (e *Environment) IsProduction() bool {
	if e.Name == Production {
		return true
	}
	if e.ProductionMaster == "" {
		return false
	}
	if strings.EqualFold(e.Master, e.ProductionMaster) {
		return true
	}
	for _, h := range e.Hosts {
		if strings.EqualFold(h, e.ProductionMaster) {
			return true
		}
	}
	return false
}

// DBName is the database (and database user) of the environment
func (e *Environment) DBName() string {
	return e.Project + "_" + e.Name
}

// ManageCommand returns the shell command running a management command on an app host
func (e *Environment) ManageCommand(command string) string {
	return fmt.Sprintf("SERVICEINFO_ENV=%s %s %s", e.Name, path.Join(e.ProjectRoot, "manage.sh"), command)
}

// RefreshFixCommands returns the one-time fix commands to run after a refresh
func (e *Environment) RefreshFixCommands() []string {
	if e.FixCommands != nil {
		return e.FixCommands
	}
	if e.ProductionDomain == "" || e.Domain == "" || e.ProductionDomain == e.Domain {
		return nil
	}
	return []string{fmt.Sprintf("change-site --from=%s --to=%s", e.ProductionDomain, e.Domain)}
}

// Config is the ops CLI configuration
type Config struct {
	SaltVersion  string                  `mapstructure:"salt_version"`
	SaltLogLevel string                  `mapstructure:"salt_log_level"`
	ConfRoot     string                  `mapstructure:"conf_root"`
	SSHUser      string                  `mapstructure:"ssh_user"`
	SSHKey       string                  `mapstructure:"ssh_key"`
	KnownHosts   string                  `mapstructure:"known_hosts"`
	Environments map[string]*Environment `mapstructure:"environments"`
}

// SetDefaults registers the built-in environments and settings on v
func SetDefaults(v *viper.Viper) {
	v.SetDefault("salt_version", DefaultSaltVersion)
	v.SetDefault("salt_log_level", "info")
	v.SetDefault("conf_root", "conf")
	v.SetDefault("known_hosts", "~/.ssh/known_hosts")

	v.SetDefault("environments.staging.master", "ec2-54-93-66-254.eu-central-1.compute.amazonaws.com")
	v.SetDefault("environments.staging.domain", "serviceinfo-staging.rescue.org")
	v.SetDefault("environments.testing.master", "serviceinfo-testing.caktusgroup.com")
	v.SetDefault("environments.testing.domain", "serviceinfo-testing.caktusgroup.com")
	v.SetDefault("environments.production.master", defaultProductionMaster)
	v.SetDefault("environments.production.domain", defaultProductionDomain)
}

// Load reads the configuration from v. Keys may come from a config file, from
// SERVICEINFO_OPS_* environment variables, or from the built-in defaults.
func Load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix("SERVICEINFO_OPS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("invalid ops configuration: %w", err)
	}

	for name, e := range cfg.Environments {
		if e == nil {
			return nil, fmt.Errorf("environment %q is empty", name)
		}
		e.Name = name
		fill(e)
		if e.Master == "" {
			return nil, fmt.Errorf("environment %q has no master host", name)
		}
	}

	return &cfg, nil
}

// LoadFile loads configuration from file, which may be empty to use defaults only
func LoadFile(file string) (*Config, error) {
	v := viper.New()
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", file, err)
		}
	}
	return Load(v)
}

// New returns an environment with the derived defaults filled in
func New(name, master, domain string) *Environment {
	e := &Environment{Name: name, Master: master, Domain: domain}
	fill(e)
	return e
}

func fill(e *Environment) {
	if e.Project == "" {
		e.Project = DefaultProject
	}
	if e.ProjectRoot == "" {
		e.ProjectRoot = path.Join("/var", "www", e.Project)
	}
	if e.MediaSource == "" {
		e.MediaSource = path.Join(e.ProjectRoot, "public", "media")
	}
	if e.DBWrapper == "" {
		e.DBWrapper = path.Join(e.ProjectRoot, "run_with_db.sh")
	}
	if e.ProductionMaster == "" {
		e.ProductionMaster = defaultProductionMaster
	}
	if e.ProductionDomain == "" {
		e.ProductionDomain = defaultProductionDomain
	}
	if len(e.Hosts) == 0 {
		e.Hosts = []string{e.Master}
	}
}

// Get returns the named environment
func (c *Config) Get(name string) (*Environment, error) {
	e, ok := c.Environments[name]
	if !ok {
		return nil, fmt.Errorf("unknown environment %q (known: %s)", name, strings.Join(c.Names(), ", "))
	}
	return e, nil
}

// Names returns the environment names in sorted order
func (c *Config) Names() []string {
	names := make([]string, 0, len(c.Environments))
	for name := range c.Environments {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
