package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/serviceinfo/serviceinfo/internal/ops/env"
)

func newRefreshCmds(a *app, e *env.Environment) []*cobra.Command {
	var from string
	refreshCmd := &cobra.Command{
		Use:   "refresh",
		Short: "Replace the database and media with production's, or with a local copy",
		Long: `Replace the database and media of a non-production environment.

Without --from the snapshot is taken from the production master. With --from the
directory must contain service_info.sql and public/media.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.newRefresher(e).Refresh(cmd.Context(), from)
		},
	}
	refreshCmd.Flags().StringVar(&from, "from", "", "directory holding service_info.sql and public/media")

	fromBackup := &cobra.Command{
		Use:   "refresh-from-backup <path>",
		Short: "Restore the database and media from a backup directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.newRefresher(e).RefreshFromBackup(cmd.Context(), args[0])
		},
	}

	var clean bool
	dump := &cobra.Command{
		Use:   "get-db-dump",
		Short: "Download a dump of the environment database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := a.newRefresher(e).GetDBDump(cmd.Context(), clean)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), file)
			return nil
		},
	}
	dump.Flags().BoolVar(&clean, "clean", false, "include DROP statements in the dump")

	resetDB := &cobra.Command{
		Use:   "reset-local-db",
		Short: "Replace the local database with the environment's",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.newRefresher(e).ResetLocalDB(cmd.Context())
		},
	}

	resetMedia := &cobra.Command{
		Use:   "reset-local-media <project-dir>",
		Short: "Copy the environment's media into a local checkout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.newRefresher(e).ResetLocalMedia(cmd.Context(), args[0])
		},
	}

	return []*cobra.Command{refreshCmd, fromBackup, dump, resetDB, resetMedia}
}
