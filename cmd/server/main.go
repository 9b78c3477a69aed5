package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dom/kavholm-api/internal/api"
	"github.com/dom/kavholm-api/internal/config"
	"github.com/dom/kavholm-api/internal/logging"
	"github.com/dom/kavholm-api/internal/notify"
	"github.com/dom/kavholm-api/internal/repository/postgres"
	"github.com/dom/kavholm-api/internal/service"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := logging.New(logging.Options{Level: cfg.LogLevel, JSON: cfg.LogJSON})
	if err != nil {
		return err
	}

	ctx := context.Background()
	logger.Info(ctx, "config loaded",
		"application", cfg.ApplicationName,
		"environment", cfg.Environment,
		"port", cfg.Port,
		"client_url", cfg.ClientURL,
		"email_active", cfg.EmailServiceActive,
		"bcrypt_cost", cfg.BcryptWorkFactor,
	)

	// Initialize database
	db, err := postgres.NewConnection(cfg.DatabaseURL, postgres.ConnectionOptions{
		LogSQL: cfg.Environment == config.EnvDevelopment,
	})
	if err != nil {
		return err
	}
	defer postgres.Close(db)

	if err := postgres.Migrate(ctx, db); err != nil {
		return err
	}

	// Initialize repositories and services
	repos := postgres.NewRepositories(db)
	gateway := notify.NewGateway(service.NotifyConfig(cfg), logger.With("component", "email"))
	services := service.NewServices(repos, gateway, cfg, logger)

	if cfg.SeedAdmin() {
		err := services.Account.SeedAdmin(ctx, service.RegisterInput{
			Username:  cfg.AdminUsername,
			Email:     cfg.AdminEmail,
			FirstName: "Admin",
			LastName:  cfg.ApplicationName,
			Password:  cfg.AdminPassword,
		})
		if err != nil {
			return err
		}
	}

	router := api.NewRouter(services, cfg, logger)

	srv := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info(ctx, "server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	logger.Info(ctx, "shutting down server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	logger.Info(ctx, "server stopped")
	return nil
}
