package cli

import (
	"context"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/serviceinfo/serviceinfo/internal/ops/env"
	"github.com/serviceinfo/serviceinfo/internal/ops/remote"
	"github.com/serviceinfo/serviceinfo/internal/ops/secrets"
	"github.com/serviceinfo/serviceinfo/internal/pkg/logger"
)

const defaultConfigFile = "ops.yaml"

// Deps are the hooks the commands use to reach hosts and the operator
type Deps struct {
	Dial remote.Dialer
	// Local returns a runner for the operator's machine working in dir
	Local   func(dir string) remote.Runner
	Confirm secrets.Confirmer
	Out     io.Writer
	Logger  *logger.Logger
	// Shell runs an interactive program attached to the terminal
	Shell func(ctx context.Context, name string, args ...string) error
}

type app struct {
	cfg          *env.Config
	deps         *Deps
	cfgFile      string
	outputFormat string
	assumeYes    bool
	logLevel     string
}

// Execute loads the ops configuration and runs the command line
func Execute() error {
	file, level := preparse(os.Args[1:])
	cfg, err := env.LoadFile(file)
	if err != nil {
		return err
	}

	log := logger.New(logger.Config{Level: level, Format: "console", Output: os.Stderr})
	logger.Init(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return NewRootCmd(cfg, DefaultDeps(cfg, log)).ExecuteContext(ctx)
}

// DefaultDeps connects over ssh and prompts on the terminal
func DefaultDeps(cfg *env.Config, log *logger.Logger) *Deps {
	return &Deps{
		Dial: remote.NewDialer(remote.SSHConfig{
			User:       cfg.SSHUser,
			KeyFile:    cfg.SSHKey,
			KnownHosts: cfg.KnownHosts,
			Stdout:     os.Stdout,
		}),
		Local: func(dir string) remote.Runner {
			return remote.NewLocal(dir, os.Stdout)
		},
		Confirm: secrets.NewTerminalConfirmer(false),
		Out:     os.Stdout,
		Logger:  log,
		Shell: func(ctx context.Context, name string, args ...string) error {
			c := exec.CommandContext(ctx, name, args...)
			c.Stdin = os.Stdin
			c.Stdout = os.Stdout
			c.Stderr = os.Stderr
			return c.Run()
		},
	}
}

// NewRootCmd builds the command tree: one command per environment, each carrying
// the actions that can run against it
func NewRootCmd(cfg *env.Config, deps *Deps) *cobra.Command {
	a := &app{cfg: cfg, deps: deps}

	root := &cobra.Command{
		Use:   "serviceinfo-ops",
		Short: "Service Info operations - provisioning, deploys and environment refreshes",
		Long: `serviceinfo-ops drives the salt master and minions of each Service Info
environment, keeps pillar secrets in sync, refreshes non-production environments
from production and checks a deployment through the public API.

Select an environment first, then the action:

  serviceinfo-ops staging deploy
  serviceinfo-ops testing refresh --from /backups/latest`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if a.assumeYes {
				if tc, ok := a.deps.Confirm.(*secrets.TerminalConfirmer); ok {
					tc.AssumeYes = true
				}
			}
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(deps.Out)

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "ops config file (default ./"+defaultConfigFile+" when present)")
	flags.StringVarP(&a.outputFormat, "output", "o", "table", "output format: table, json, yaml")
	flags.BoolVarP(&a.assumeYes, "yes", "y", false, "answer yes to every confirmation")
	flags.StringVar(&a.logLevel, "log-level", "info", "log level: debug, info, warn, error")

	root.AddCommand(newConfigCmd(a))
	for _, name := range cfg.Names() {
		e, _ := cfg.Get(name)
		root.AddCommand(newEnvCmd(a, e))
	}

	return root
}

// preparse picks the config file and log level out of args before the command tree,
// which depends on the configured environments, exists
func preparse(args []string) (file, level string) {
	level = "info"
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			break
		}
		for _, name := range []string{"--config", "--log-level"} {
			var value string
			switch {
			case strings.HasPrefix(arg, name+"="):
				value = strings.TrimPrefix(arg, name+"=")
			case arg == name && i+1 < len(args):
				i++
				value = args[i]
			default:
				continue
			}
			if name == "--config" {
				file = value
			} else {
				level = value
			}
		}
	}

	if file == "" {
		file = os.Getenv("SERVICEINFO_OPS_CONFIG")
	}
	if file == "" {
		if _, err := os.Stat(defaultConfigFile); err == nil {
			file = defaultConfigFile
		}
	}
	return file, level
}

func (a *app) log() *logger.Logger {
	return a.deps.Logger
}
