// Package manage holds the management commands run on application hosts.
package manage

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/serviceinfo/serviceinfo/internal/config"
	"github.com/serviceinfo/serviceinfo/internal/domain/site"
	"github.com/serviceinfo/serviceinfo/internal/pkg/logger"
	"github.com/serviceinfo/serviceinfo/internal/repository/postgres"
	"github.com/serviceinfo/serviceinfo/internal/services"
	"github.com/serviceinfo/serviceinfo/migrations"
)

// Opener connects to the application database
type Opener func() (*postgres.DB, error)

// PasswordReader prompts for a password without echo
type PasswordReader func(prompt string) (string, error)

type app struct {
	cfg          *config.Config
	open         Opener
	db           *postgres.DB
	logger       *logger.Logger
	readPassword PasswordReader
}

// NewRootCmd builds the manage command tree. open is called at most once; the caller
// closes the database it returns.
func NewRootCmd(cfg *config.Config, open Opener, readPassword PasswordReader, log *logger.Logger) *cobra.Command {
	a := &app{cfg: cfg, open: open, logger: log, readPassword: readPassword}

	root := &cobra.Command{
		Use:           "manage",
		Short:         "Service Info management commands",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newMigrateCmd(a))
	root.AddCommand(newRebuildIndexCmd(a))
	root.AddCommand(newChangeSiteCmd(a))
	root.AddCommand(newCreateSuperuserCmd(a))

	return root
}

func (a *app) database() (*postgres.DB, error) {
	if a.db != nil {
		return a.db, nil
	}
	db, err := a.open()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	a.db = db
	return db, nil
}

func newMigrateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := a.database()
			if err != nil {
				return err
			}
			fsys, err := migrations.ForDriver(db.Driver)
			if err != nil {
				return err
			}
			applied, err := postgres.RunMigrations(db, fsys)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(applied) == 0 {
				fmt.Fprintln(out, "No pending migrations")
			}
			for _, name := range applied {
				fmt.Fprintf(out, "Applied %s\n", name)
			}
			return nil
		},
	}
	// accepted for compatibility with deploy scripts
	cmd.Flags().Bool("noinput", false, "")
	_ = cmd.Flags().MarkHidden("noinput")
	return cmd
}

func newRebuildIndexCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rebuild-index",
		Short: "Regenerate the search index from current services",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := a.database()
			if err != nil {
				return err
			}
			searchService := services.NewSearchService(
				postgres.NewSearchRepository(db),
				postgres.NewServiceRepository(db),
				postgres.NewProviderRepository(db),
				postgres.NewAreaRepository(db),
				a.logger,
			)
			n, err := searchService.Rebuild(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d services\n", n)
			return nil
		},
	}
	cmd.Flags().Bool("noinput", false, "")
	_ = cmd.Flags().MarkHidden("noinput")
	return cmd
}

func newChangeSiteCmd(a *app) *cobra.Command {
	var from, to string

	cmd := &cobra.Command{
		Use:   "change-site",
		Short: "Change the domain of the site",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := a.database()
			if err != nil {
				return err
			}
			err = postgres.NewSiteRepository(db).ChangeDomain(cmd.Context(), from, to)
			if errors.Is(err, site.ErrDomainMismatch) {
				return fmt.Errorf("current site domain is not %s", from)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Site domain changed from %s to %s\n", from, to)
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "current domain")
	cmd.Flags().StringVar(&to, "to", "", "new domain")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func newCreateSuperuserCmd(a *app) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "create-superuser",
		Short: "Create an active superuser",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				p, err := a.promptPassword()
				if err != nil {
					return err
				}
				password = p
			}
			if len(password) < 8 {
				return errors.New("password must be at least 8 characters")
			}

			db, err := a.database()
			if err != nil {
				return err
			}
			users := services.NewUserService(postgres.NewUserRepository(db), a.cfg.Auth.BCryptCost, a.logger)
			u, err := users.CreateUser(cmd.Context(), email, password, true, true)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Superuser %s created (id %d)\n", u.Email, u.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&password, "password", "", "password (prompted when omitted)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func (a *app) promptPassword() (string, error) {
	first, err := a.readPassword("Password: ")
	if err != nil {
		return "", err
	}
	second, err := a.readPassword("Password (again): ")
	if err != nil {
		return "", err
	}
	if first != second {
		return "", errors.New("passwords do not match")
	}
	return first, nil
}

// TerminalPassword reads a password from the terminal without echo. Piped input is
// read as a plain line.
func TerminalPassword(in *os.File, out io.Writer) PasswordReader {
	reader := bufio.NewReader(in)
	return func(prompt string) (string, error) {
		fmt.Fprint(out, prompt)
		if term.IsTerminal(int(in.Fd())) {
			b, err := term.ReadPassword(int(in.Fd()))
			fmt.Fprintln(out)
			return string(b), err
		}
		line, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", err
		}
		return strings.TrimRight(line, "\r\n"), nil
	}
}
