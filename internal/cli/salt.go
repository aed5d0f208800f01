package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/serviceinfo/serviceinfo/internal/ops/env"
	"github.com/serviceinfo/serviceinfo/internal/ops/salt"
)

func newSaltCmds(a *app, e *env.Environment) []*cobra.Command {
	return []*cobra.Command{
		newInstallSaltCmd(a, e),
		newSetupMasterCmd(a, e),
		newSetupMinionCmd(a, e),
		newAddRoleCmd(a, e),
		newSaltCmd(a, e),
		newHighstateCmd(a, e),
		newStateCmd(a, e),
		newKeyCmd(a, e, "accept-key", "Accept a minion key on the master", (*salt.Salt).AcceptKey),
		newKeyCmd(a, e, "delete-key", "Delete a minion key from the master", (*salt.Salt).DeleteKey),
		newMargaritaCmd(a, e),
		newDeployCmd(a, e),
		newManageRunCmd(a, e),
	}
}

func newInstallSaltCmd(a *app, e *env.Environment) *cobra.Command {
	var master, minion, restart bool
	var host string

	cmd := &cobra.Command{
		Use:   "install-salt [version]",
		Short: "Install or upgrade salt on a host",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			version := a.cfg.SaltVersion
			if len(args) == 1 {
				version = args[0]
			}
			if host == "" {
				host = e.Master
			}
			r, err := a.deps.Dial(cmd.Context(), host)
			if err != nil {
				return err
			}
			defer r.Close()

			installed, err := a.newSalt(r, e).Install(cmd.Context(), version, master, minion, restart)
			if err != nil {
				return err
			}
			if !installed {
				fmt.Fprintf(cmd.OutOrStdout(), "salt %s already installed on %s\n", version, host)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&master, "master", false, "install salt-master")
	cmd.Flags().BoolVar(&minion, "minion", false, "install salt-minion")
	cmd.Flags().BoolVar(&restart, "restart", true, "restart services that are already current")
	cmd.Flags().StringVar(&host, "host", "", "host to install on (default the master)")
	return cmd
}

func newSetupMasterCmd(a *app, e *env.Environment) *cobra.Command {
	return &cobra.Command{
		Use:   "setup-master",
		Short: "Provision the salt master",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withMaster(cmd.Context(), e, func(s *session) error {
				return s.salt.SetupMaster(cmd.Context())
			})
		},
	}
}

func newSetupMinionCmd(a *app, e *env.Environment) *cobra.Command {
	var hosts []string

	cmd := &cobra.Command{
		Use:   "setup-minion <role>...",
		Short: "Configure hosts as minions with the given roles",
		Long:  "Configure hosts as minions with the given roles. Valid roles: " + strings.Join(salt.ValidRoles, ", "),
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := salt.ValidateRoles(args...); err != nil {
				return err
			}
			if len(hosts) == 0 {
				hosts = e.Hosts
			}
			return a.withMaster(cmd.Context(), e, func(s *session) error {
				return a.eachHost(cmd.Context(), e, hosts, func(ctx context.Context, minion *salt.Salt) error {
					return minion.SetupMinion(ctx, s.salt, args...)
				})
			})
		},
	}

	cmd.Flags().StringSliceVar(&hosts, "host", nil, "hosts to configure (default all hosts of the environment)")
	return cmd
}

func newAddRoleCmd(a *app, e *env.Environment) *cobra.Command {
	var hosts []string

	cmd := &cobra.Command{
		Use:   "add-role <role>",
		Short: "Add a role to existing minions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(hosts) == 0 {
				hosts = e.Hosts
			}
			return a.eachHost(cmd.Context(), e, hosts, func(ctx context.Context, minion *salt.Salt) error {
				return minion.AddRole(ctx, args[0])
			})
		},
	}

	cmd.Flags().StringSliceVar(&hosts, "host", nil, "hosts to update (default all hosts of the environment)")
	return cmd
}

// eachHost runs fn against every host in order, stopping at the first failure
func (a *app) eachHost(ctx context.Context, e *env.Environment, hosts []string, fn func(context.Context, *salt.Salt) error) error {
	for _, host := range hosts {
		r, err := a.deps.Dial(ctx, host)
		if err != nil {
			return fmt.Errorf("failed to connect to %s: %w", host, err)
		}
		err = fn(ctx, a.newSalt(r, e))
		r.Close()
		if err != nil {
			return fmt.Errorf("%s: %w", host, err)
		}
	}
	return nil
}

func newSaltCmd(a *app, e *env.Environment) *cobra.Command {
	return &cobra.Command{
		Use:   "salt <command> [target] [loglevel]",
		Short: "Run a salt command on the master",
		Args:  cobra.RangeArgs(1, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, level := optionalArg(args, 1), optionalArg(args, 2)
			if level == "" {
				level = a.cfg.SaltLogLevel
			}
			return a.withMaster(cmd.Context(), e, func(s *session) error {
				return s.salt.Cmd(cmd.Context(), args[0], target, level)
			})
		},
	}
}

func newHighstateCmd(a *app, e *env.Environment) *cobra.Command {
	return &cobra.Command{
		Use:   "highstate [target] [loglevel]",
		Short: "Run highstate on minions",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			level := optionalArg(args, 1)
			if level == "" {
				level = a.cfg.SaltLogLevel
			}
			return a.withMaster(cmd.Context(), e, func(s *session) error {
				return s.salt.Highstate(cmd.Context(), optionalArg(args, 0), level)
			})
		},
	}
}

func newStateCmd(a *app, e *env.Environment) *cobra.Command {
	return &cobra.Command{
		Use:   "state <name> [target]",
		Short: "Apply one salt state",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withMaster(cmd.Context(), e, func(s *session) error {
				return s.salt.State(cmd.Context(), args[0], optionalArg(args, 1))
			})
		},
	}
}

func newKeyCmd(a *app, e *env.Environment, use, short string, fn func(*salt.Salt, context.Context, string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <minion>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withMaster(cmd.Context(), e, func(s *session) error {
				return fn(s.salt, cmd.Context(), args[0])
			})
		},
	}
}

func newMargaritaCmd(a *app, e *env.Environment) *cobra.Command {
	return &cobra.Command{
		Use:   "margarita",
		Short: "Apply the margarita state and restart the master",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withMaster(cmd.Context(), e, func(s *session) error {
				return s.salt.Margarita(cmd.Context())
			})
		},
	}
}

func newDeployCmd(a *app, e *env.Environment) *cobra.Command {
	return &cobra.Command{
		Use:   "deploy [loglevel]",
		Short: "Sync states and pillar, then highstate the environment",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			level := optionalArg(args, 0)
			if level == "" {
				level = a.cfg.SaltLogLevel
			}
			return a.withMaster(cmd.Context(), e, func(s *session) error {
				return s.salt.Deploy(cmd.Context(), level, a.newSyncer(s).Sync)
			})
		},
	}
}

func newManageRunCmd(a *app, e *env.Environment) *cobra.Command {
	return &cobra.Command{
		Use:   "manage-run <command> [args...]",
		Short: "Run a management command on the master as the project user",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withMaster(cmd.Context(), e, func(s *session) error {
				return s.salt.ManageRun(cmd.Context(), strings.Join(args, " "))
			})
		},
	}
}

func optionalArg(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}
