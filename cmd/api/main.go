package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"spendsync/internal/config"
	"spendsync/internal/database"
	"spendsync/internal/lock"
	"spendsync/internal/logger"
	"spendsync/internal/mail"
	"spendsync/internal/parser"
	"spendsync/internal/secret"
	"spendsync/internal/server"
	"spendsync/internal/services"
	"spendsync/internal/validator"
)

// @title           SpendSync API
// @version         1.0
// @description     SpendSync imports bank transactions from notification emails, reconciles them per user and tracks spending against category budgets.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	dbManager, err := database.NewManager(database.NewConfig(appConfig))
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	defer func() {
		if err := dbManager.Close(); err != nil {
			log.Warnw("failed to close database", "error", err)
		}
	}()

	if err := dbManager.RunMigrations(database.DefaultMigrationsPath); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	sealer, err := secret.NewSealer(appConfig.MailTokenKey)
	if err != nil {
		if !errors.Is(err, secret.ErrNoKey) {
			return fmt.Errorf("invalid MAIL_TOKEN_KEY: %w", err)
		}
		log.Warn("MAIL_TOKEN_KEY not set; mailbox connections are disabled")
	}

	registry := parser.DefaultRegistry()
	if appConfig.RulesFile != "" {
		n, err := parser.LoadRuleFile(registry, appConfig.RulesFile)
		if err != nil {
			return fmt.Errorf("failed to load rules file: %w", err)
		}
		log.Infow("loaded custom rules", "file", appConfig.RulesFile, "count", n)
	}

	locker, err := lock.New(ctx, appConfig.RedisURL, 2*config.FetchTimeout)
	if err != nil {
		return fmt.Errorf("failed to create sync lock: %w", err)
	}

	validator.Register()

	db := dbManager.DB()
	notifier := services.NewOutboxNotifier(db, appConfig.NotifyWorkers, appConfig.NotifyBuffer)
	notifier.Start()

	transactionService := services.NewTransactionService(db, appConfig.DefaultCurrency)
	settingsService := services.NewSettingsService(db)
	mailService := services.NewMailConnectionService(db, sealer)
	syncRunService := services.NewSyncRunService(db)
	syncService := services.NewSyncService(services.SyncDeps{
		Transactions: transactionService,
		Settings:     settingsService,
		Mail:         mailService,
		Mailbox: &mail.GmailFactory{Options: mail.Options{
			Lookback:    appConfig.GmailLookback,
			MaxResults:  appConfig.GmailMaxResults,
			Concurrency: appConfig.FetchConcurrency,
		}},
		Registry: registry,
		Locker:   locker,
		Notifier: notifier,
		Runs:     syncRunService,
	})

	router := server.NewRouter(server.Options{
		JWTSecret:    []byte(appConfig.JWTSecret),
		IngestAPIKey: appConfig.IngestAPIKey,
		CORSOrigins:  appConfig.CORSOrigins,
	}, server.Services{
		Transactions:  transactionService,
		Categories:    services.NewCategoryService(db),
		Summary:       services.NewSummaryService(db, appConfig.MonthResetDay),
		Settings:      settingsService,
		Mail:          mailService,
		Notifications: services.NewNotificationService(db),
		Sync:          syncService,
		SyncRuns:      syncRunService,
		Registry:      registry,
	})

	srv := &http.Server{
		Addr:              ":" + appConfig.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      2 * config.FetchTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Infof("Starting SpendSync server on port %s", appConfig.Port)
		log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
		log.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warnw("server shutdown", "error", err)
	}
	if err := notifier.Stop(shutdownCtx); err != nil {
		log.Warnw("notifier did not drain", "error", err)
	}
	return nil
}
