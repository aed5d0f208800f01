// Package salt drives the salt master and minions of an environment.
package salt

import (
	"context"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/serviceinfo/serviceinfo/internal/ops/env"
	"github.com/serviceinfo/serviceinfo/internal/ops/remote"
	"github.com/serviceinfo/serviceinfo/internal/pkg/logger"
)

const (
	// DefaultLogLevel is passed to salt with -l
	DefaultLogLevel = "info"
	// AllMinions targets every minion
	AllMinions = "'*'"

	minionConfigPath = "/etc/salt/minion"
	masterConfigPath = "/etc/salt/master"
	bootstrapScript  = "install_salt.sh"
)

// ValidRoles are the roles a minion may carry
var ValidRoles = []string{"salt-master", "web", "worker", "balancer", "queue", "cache", "beat"}

var (
	// ErrInvalidRole is returned for roles outside ValidRoles
	ErrInvalidRole = errors.New("not a valid server role for this project")
	// ErrRoleExists is returned when adding a role the minion already has
	ErrRoleExists = errors.New("server is already configured with this role")
)

var versionPattern = regexp.MustCompile(`[\d.]+`)

// ParseVersion extracts the first run of digits and dots from `salt --version` output
func ParseVersion(output string) string {
	return versionPattern.FindString(output)
}

// ValidateRoles checks every role against ValidRoles
func ValidateRoles(roles ...string) error {
	for _, r := range roles {
		if !isValidRole(r) {
			return fmt.Errorf("%s: %w", r, ErrInvalidRole)
		}
	}
	return nil
}

func isValidRole(role string) bool {
	for _, v := range ValidRoles {
		if v == role {
			return true
		}
	}
	return false
}

// Salt runs salt operations on one host of an environment
type Salt struct {
	runner  remote.Runner
	env     *env.Environment
	version string
	// local directory holding master.conf and the bootstrap script
	confRoot string
	logger   *logger.Logger
}

// New creates a Salt for the host r is connected to
func New(r remote.Runner, e *env.Environment, version, confRoot string, log *logger.Logger) *Salt {
	return &Salt{
		runner:   r,
		env:      e,
		version:  version,
		confRoot: confRoot,
		logger:   log,
	}
}

// InstalledVersion returns the version reported by `command --version`, or "" when
// the command is missing or fails
func (s *Salt) InstalledVersion(ctx context.Context, command string) (string, error) {
	res, err := s.runner.Run(ctx, command+" --version", remote.WarnOnly(), remote.Quiet())
	if err != nil {
		return "", err
	}
	if !res.Succeeded() {
		return "", nil
	}
	return ParseVersion(res.Output), nil
}

// Install installs or upgrades the salt master and/or minion when their version
// differs from version. Packages that are already current are restarted when restart
// is set. It reports whether a bootstrap install ran.
func (s *Salt) Install(ctx context.Context, version string, master, minion, restart bool) (bool, error) {
	installMaster, err := s.prepare(ctx, "salt", "salt-master", version, master, restart)
	if err != nil {
		return false, err
	}
	installMinion, err := s.prepare(ctx, "salt-minion", "salt-minion", version, minion, restart)
	if err != nil {
		return false, err
	}

	if !installMaster && !installMinion {
		return false, nil
	}

	var args []string
	if installMaster {
		args = append(args, "-M")
	}
	if !installMinion {
		args = append(args, "-N")
	}

	if err := s.runner.Put(ctx, s.confPath(bootstrapScript), bootstrapScript, false); err != nil {
		return false, err
	}
	cmd := "sh " + bootstrapScript + " -D"
	if len(args) > 0 {
		cmd += " " + strings.Join(args, " ")
	}
	cmd += " git v" + version
	if _, err := s.runner.Sudo(ctx, cmd); err != nil {
		return false, err
	}

	s.logger.WithFields(map[string]interface{}{
		"host":    s.runner.Host(),
		"version": version,
		"master":  installMaster,
		"minion":  installMinion,
	}).Info("Salt installed")
	return true, nil
}

// prepare decides whether pkg needs a bootstrap install, purging a packaged install
// of another version
func (s *Salt) prepare(ctx context.Context, command, pkg, version string, wanted, restart bool) (bool, error) {
	if !wanted {
		return false, nil
	}

	current, err := s.InstalledVersion(ctx, command)
	if err != nil {
		return false, err
	}
	install := current != version

	if install && current != "" {
		if _, err := s.runner.Sudo(ctx, "apt-get purge "+pkg+" -y"); err != nil {
			return false, err
		}
	}
	if restart && !install {
		if _, err := s.runner.Sudo(ctx, "service "+pkg+" restart"); err != nil {
			return false, err
		}
	}
	return install, nil
}

// SetupMaster pushes the master configuration and installs salt-master
func (s *Salt) SetupMaster(ctx context.Context) error {
	if _, err := s.runner.Sudo(ctx, "mkdir -p /etc/salt"); err != nil {
		return err
	}
	if err := s.runner.Put(ctx, s.confPath("master.conf"), masterConfigPath, true); err != nil {
		return err
	}
	_, err := s.Install(ctx, s.version, true, false, true)
	return err
}

// SetupMinion configures the host as a minion with roles and accepts its key on the master.
// master is the Salt of the environment's master host.
func (s *Salt) SetupMinion(ctx context.Context, master *Salt, roles ...string) error {
	if err := ValidateRoles(roles...); err != nil {
		return err
	}

	data, err := RenderMinionConfig(s.env, s.runner.Host(), roles)
	if err != nil {
		return err
	}
	if err := s.putConfig(ctx, data); err != nil {
		return err
	}

	if _, err := s.Install(ctx, s.version, false, true, true); err != nil {
		return err
	}

	res, err := s.runner.Run(ctx, "hostname -f", remote.Quiet())
	if err != nil {
		return err
	}
	return master.AcceptKey(ctx, strings.TrimSpace(res.Output))
}

// AddRole adds role to the minion configuration and restarts the minion
func (s *Salt) AddRole(ctx context.Context, role string) error {
	if err := ValidateRoles(role); err != nil {
		return err
	}

	tmp, err := os.CreateTemp("", "minion-*.yaml")
	if err != nil {
		return err
	}
	tmp.Close()
	defer os.Remove(tmp.Name())

	if err := s.runner.Get(ctx, minionConfigPath, tmp.Name()); err != nil {
		return err
	}
	current, err := os.ReadFile(tmp.Name())
	if err != nil {
		return err
	}

	updated, err := AddRoleToConfig(current, role)
	if err != nil {
		return err
	}
	if err := os.WriteFile(tmp.Name(), updated, 0o600); err != nil {
		return err
	}
	if err := s.runner.Put(ctx, tmp.Name(), minionConfigPath, true); err != nil {
		return err
	}

	_, err = s.runner.Sudo(ctx, "service salt-minion restart")
	return err
}

func (s *Salt) putConfig(ctx context.Context, data []byte) error {
	tmp, err := os.CreateTemp("", "minion-*.yaml")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if _, err := s.runner.Sudo(ctx, "mkdir -p /etc/salt"); err != nil {
		return err
	}
	return s.runner.Put(ctx, tmp.Name(), minionConfigPath, true)
}

// Cmd runs an arbitrary salt command. Failures only warn.
func (s *Salt) Cmd(ctx context.Context, cmd, target, loglevel string) error {
	if target == "" {
		target = AllMinions
	}
	if loglevel == "" {
		loglevel = DefaultLogLevel
	}
	_, err := s.runner.Sudo(ctx, fmt.Sprintf("salt %s -l%s %s", target, loglevel, cmd), remote.WarnOnly())
	return err
}

// Highstate converges target
func (s *Salt) Highstate(ctx context.Context, target, loglevel string) error {
	s.logger.Info("This can take a long time without output, be patient")
	return s.Cmd(ctx, "state.highstate", target, loglevel)
}

// State applies one state
func (s *Salt) State(ctx context.Context, name, target string) error {
	return s.Cmd(ctx, "state.sls "+name, target, "")
}

// AcceptKey accepts a minion key on the master
func (s *Salt) AcceptKey(ctx context.Context, name string) error {
	if _, err := s.runner.Sudo(ctx, fmt.Sprintf("salt-key --accept=%s -y", name)); err != nil {
		return err
	}
	_, err := s.runner.Sudo(ctx, "salt-key -L")
	return err
}

// DeleteKey removes a minion key from the master
func (s *Salt) DeleteKey(ctx context.Context, name string) error {
	if _, err := s.runner.Sudo(ctx, "salt-key -L"); err != nil {
		return err
	}
	if _, err := s.runner.Sudo(ctx, fmt.Sprintf("salt-key --delete=%s -y", name)); err != nil {
		return err
	}
	_, err := s.runner.Sudo(ctx, "salt-key -L")
	return err
}

// Margarita applies the margarita state and restarts the master
func (s *Salt) Margarita(ctx context.Context) error {
	if err := s.State(ctx, "margarita", ""); err != nil {
		return err
	}
	_, err := s.runner.Sudo(ctx, "service salt-master restart")
	return err
}

// Deploy pushes states with sync (skipped for the local environment), syncs modules
// and runs highstate on the environment's minions
func (s *Salt) Deploy(ctx context.Context, loglevel string, sync func(context.Context) error) error {
	if s.env.Name != "local" && sync != nil {
		if err := sync(ctx); err != nil {
			return err
		}
	}
	target := fmt.Sprintf("-G 'environment:%s'", s.env.Name)
	if err := s.Cmd(ctx, "saltutil.sync_all", target, loglevel); err != nil {
		return err
	}
	return s.Highstate(ctx, target, loglevel)
}

// ManageRun runs a management command as the project user
func (s *Salt) ManageRun(ctx context.Context, command string) error {
	_, err := s.runner.Sudo(ctx, s.env.ManageCommand(command), remote.AsUser(s.env.Project))
	return err
}

func (s *Salt) confPath(name string) string {
	if s.confRoot == "" {
		return name
	}
	return strings.TrimRight(s.confRoot, "/") + "/" + name
}
