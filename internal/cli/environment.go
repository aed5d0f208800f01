package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/serviceinfo/serviceinfo/internal/ops/env"
	"github.com/serviceinfo/serviceinfo/internal/ops/refresh"
	"github.com/serviceinfo/serviceinfo/internal/ops/remote"
	"github.com/serviceinfo/serviceinfo/internal/ops/salt"
	"github.com/serviceinfo/serviceinfo/internal/ops/secrets"
)

func newEnvCmd(a *app, e *env.Environment) *cobra.Command {
	cmd := &cobra.Command{
		Use:   e.Name,
		Short: fmt.Sprintf("Act on the %s environment (master %s)", e.Name, e.Master),
	}

	cmd.AddCommand(newSaltCmds(a, e)...)
	cmd.AddCommand(newSecretsCmds(a, e)...)
	cmd.AddCommand(newRefreshCmds(a, e)...)
	cmd.AddCommand(newSSHCmd(a, e))
	cmd.AddCommand(newCheckCmd(a, e))

	return cmd
}

// session is an open connection to an environment's master
type session struct {
	env    *env.Environment
	master remote.Runner
	salt   *salt.Salt
}

// withMaster connects to the master of e for the duration of fn
func (a *app) withMaster(ctx context.Context, e *env.Environment, fn func(s *session) error) error {
	r, err := a.deps.Dial(ctx, e.Master)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", e.Master, err)
	}
	defer r.Close()

	return fn(&session{env: e, master: r, salt: a.newSalt(r, e)})
}

func (a *app) newSalt(r remote.Runner, e *env.Environment) *salt.Salt {
	return salt.New(r, e, a.cfg.SaltVersion, a.cfg.ConfRoot, a.log())
}

func (a *app) newSyncer(s *session) *secrets.Syncer {
	return secrets.New(s.master, a.deps.Local("."), s.salt, s.env, secrets.Config{
		ConfRoot: a.cfg.ConfRoot,
		SSHUser:  a.cfg.SSHUser,
		Confirm:  a.deps.Confirm,
		Out:      a.deps.Out,
	}, a.log())
}

func (a *app) newRefresher(e *env.Environment) *refresh.Refresher {
	return refresh.New(e, a.deps.Dial, a.deps.Local("."), refresh.Config{
		WorkDir: ".",
		SSHUser: a.cfg.SSHUser,
		Confirm: a.deps.Confirm,
		Out:     a.deps.Out,
	}, a.log())
}

func (a *app) sshTarget(host string) string {
	if a.cfg.SSHUser == "" {
		return host
	}
	return a.cfg.SSHUser + "@" + host
}

func newSSHCmd(a *app, e *env.Environment) *cobra.Command {
	return &cobra.Command{
		Use:   "ssh",
		Short: "Open an interactive shell on the first host",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sshArgs := []string{}
			if a.cfg.SSHKey != "" {
				sshArgs = append(sshArgs, "-i", a.cfg.SSHKey)
			}
			sshArgs = append(sshArgs, a.sshTarget(e.Hosts[0]))
			return a.deps.Shell(cmd.Context(), "ssh", sshArgs...)
		},
	}
}
