package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/serviceinfo/serviceinfo/docs"
	"github.com/serviceinfo/serviceinfo/internal/api/dto"
	"github.com/serviceinfo/serviceinfo/internal/api/handlers"
	"github.com/serviceinfo/serviceinfo/internal/api/router"
	"github.com/serviceinfo/serviceinfo/internal/config"
	"github.com/serviceinfo/serviceinfo/internal/mail"
	"github.com/serviceinfo/serviceinfo/internal/pkg/logger"
	"github.com/serviceinfo/serviceinfo/internal/pkg/validator"
	"github.com/serviceinfo/serviceinfo/internal/repository/postgres"
	"github.com/serviceinfo/serviceinfo/internal/services"
	"github.com/serviceinfo/serviceinfo/internal/worker"
	"github.com/serviceinfo/serviceinfo/migrations"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

// @title Service Info API
// @version 1.0
// @description Directory of humanitarian service providers, their services and service areas.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	logger.Init(log)

	if err := run(cfg, log); err != nil {
		log.ErrorWithErr(err, "Server exited with error")
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.New(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	fsys, err := migrations.ForDriver(cfg.Database.Driver)
	if err != nil {
		return err
	}
	applied, err := postgres.RunMigrations(db, fsys)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	log.WithFields(map[string]interface{}{
		"applied": applied,
	}).Info("Database migrated")

	sender, err := mail.NewSender(cfg.Mail, log)
	if err != nil {
		return err
	}
	queue := worker.NewMailQueue(sender, cfg.Mail.QueueSize, log)
	queue.Start(ctx)
	defer queue.Stop()

	// Repositories
	userRepo := postgres.NewUserRepository(db)
	providerRepo := postgres.NewProviderRepository(db)
	serviceRepo := postgres.NewServiceRepository(db)
	areaRepo := postgres.NewAreaRepository(db)
	searchRepo := postgres.NewSearchRepository(db)

	// Services
	userService := services.NewUserService(userRepo, cfg.Auth.BCryptCost, log)
	providerService := services.NewProviderService(providerRepo, userService, sender, cfg.Server.BaseURL, log)
	areaService := services.NewAreaService(areaRepo, log)
	searchService := services.NewSearchService(searchRepo, serviceRepo, providerRepo, areaRepo, log)
	serviceService := services.NewServiceService(serviceRepo, providerRepo, areaRepo, userRepo, queue, searchService, log)

	reindexer, err := worker.NewReindexer(searchService, cfg.Search.ReindexSchedule, log)
	if err != nil {
		return err
	}
	if err := reindexer.Start(ctx); err != nil {
		return err
	}
	defer reindexer.Stop()

	val := validator.NewWithPhoneRegex(cfg.PhoneRegex())
	urls := dto.NewURLs(cfg.Server.BaseURL)

	h := &router.Handlers{
		Health:     handlers.NewHealthHandler(db, version, log),
		Auth:       handlers.NewAuthHandler(userService, cfg, log, val),
		Activation: handlers.NewActivationHandler(userService, cfg.Account.ActivationRedirectURL, log),
		Provider:   handlers.NewProviderHandler(providerService, urls, log, val),
		Area:       handlers.NewAreaHandler(areaService, urls, log, val),
		Service:    handlers.NewServiceHandler(serviceService, providerService, searchService, urls, log, val),
		User:       handlers.NewUserHandler(userService, urls, log),
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.New(cfg, log, userService, h),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithFields(map[string]interface{}{
			"addr":        srv.Addr,
			"version":     version,
			"environment": cfg.Server.Environment,
		}).Info("Starting API server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}
