package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/serviceinfo/serviceinfo/internal/ops/env"
)

func newSecretsCmds(a *app, e *env.Environment) []*cobra.Command {
	sync := &cobra.Command{
		Use:   "sync",
		Short: "Push local states and pillar to the master and apply margarita",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withMaster(cmd.Context(), e, func(s *session) error {
				return a.newSyncer(s).Sync(cmd.Context())
			})
		},
	}

	have := &cobra.Command{
		Use:   "have-secrets",
		Short: "Report whether the local secrets file exists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			syncer := a.newSyncer(&session{env: e})
			if !syncer.HaveSecrets() {
				return fmt.Errorf("%s is missing", syncer.LocalPath())
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is present\n", syncer.LocalPath())
			return nil
		},
	}

	get := &cobra.Command{
		Use:   "get-secrets",
		Short: "Fetch the secrets file from the master",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withMaster(cmd.Context(), e, func(s *session) error {
				return a.newSyncer(s).GetSecrets(cmd.Context())
			})
		},
	}

	return []*cobra.Command{sync, have, get}
}
