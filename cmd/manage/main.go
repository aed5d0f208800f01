package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/serviceinfo/serviceinfo/internal/config"
	"github.com/serviceinfo/serviceinfo/internal/manage"
	"github.com/serviceinfo/serviceinfo/internal/pkg/logger"
	"github.com/serviceinfo/serviceinfo/internal/repository/postgres"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: "console",
		Output: os.Stderr,
	})
	logger.Init(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var db *postgres.DB
	open := func() (*postgres.DB, error) {
		var err error
		db, err = postgres.New(cfg.Database)
		return db, err
	}

	root := manage.NewRootCmd(cfg, open, manage.TerminalPassword(os.Stdin, os.Stderr), log)
	err = root.ExecuteContext(ctx)
	if db != nil {
		db.Close()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
