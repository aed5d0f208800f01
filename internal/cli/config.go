package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the ops configuration",
	}

	cmd.AddCommand(newConfigShowCmd(a))
	cmd.AddCommand(newConfigEnvsCmd(a))

	return cmd
}

func newConfigShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			format := a.outputFormat
			if format == "table" {
				format = "yaml"
			}
			return printOutput(cmd.OutOrStdout(), format, configView(a))
		},
	}
}

func newConfigEnvsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "envs",
		Short: "List the configured environments",
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.outputFormat != "table" {
				return printOutput(cmd.OutOrStdout(), a.outputFormat, configView(a)["environments"])
			}

			table := NewTable(cmd.OutOrStdout(), "NAME", "MASTER", "HOSTS", "DOMAIN")
			for _, name := range a.cfg.Names() {
				e, _ := a.cfg.Get(name)
				table.AddRow(name, truncate(e.Master, 60), strings.Join(e.Hosts, ","), e.Domain)
			}
			table.Render()
			return nil
		},
	}
}

// configView is the configuration as written in ops.yaml
func configView(a *app) map[string]interface{} {
	envs := map[string]interface{}{}
	for _, name := range a.cfg.Names() {
		e, _ := a.cfg.Get(name)
		envs[name] = map[string]interface{}{
			"master":            e.Master,
			"hosts":             e.Hosts,
			"domain":            e.Domain,
			"project":           e.Project,
			"project_root":      e.ProjectRoot,
			"media_source":      e.MediaSource,
			"db_wrapper":        e.DBWrapper,
			"production_master": e.ProductionMaster,
			"production_domain": e.ProductionDomain,
			"fix_commands":      e.RefreshFixCommands(),
		}
	}
	return map[string]interface{}{
		"salt_version":   a.cfg.SaltVersion,
		"salt_log_level": a.cfg.SaltLogLevel,
		"conf_root":      a.cfg.ConfRoot,
		"ssh_user":       a.cfg.SSHUser,
		"known_hosts":    a.cfg.KnownHosts,
		"environments":   envs,
	}
}
