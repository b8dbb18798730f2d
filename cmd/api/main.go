package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/jafarshop/marketapi/internal/api"
	"github.com/jafarshop/marketapi/internal/config"
	"github.com/jafarshop/marketapi/internal/jobs"
	"github.com/jafarshop/marketapi/internal/mailer"
	"github.com/jafarshop/marketapi/internal/push"
	"github.com/jafarshop/marketapi/internal/repository/postgres"
	"github.com/jafarshop/marketapi/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := newLogger(cfg.Environment)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// Connect to database
	db, err := postgres.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	repos := postgres.NewRepositories(db, logger)

	// Outbound channels
	mail := mailer.NewClient(cfg.Mailer, logger)
	if !mail.Enabled() {
		logger.Warn("Mailer API key not set, outbound email disabled")
	}
	emitter := push.LogEmitter{Logger: logger}

	// Services
	notifications := service.NewNotificationService(repos, emitter, cfg.Cache.AdminIDsTTL, logger)
	dispatcher := service.NewDispatcher(notifications, mail, logger)
	orders := service.NewOrderService(repos, dispatcher, cfg.Orders.DefaultCommissionRate, cfg.Orders.TaxRate, logger)
	disputes := service.NewDisputeService(repos, dispatcher, logger)

	// Background jobs
	sweep := jobs.NewCacheSweepJob(cfg.Cache.SweepInterval.String(), logger, notifications.AdminCache())
	if err := sweep.Start(); err != nil {
		logger.Fatal("Failed to start cache sweep job", zap.Error(err))
	}
	defer sweep.Stop()

	router := api.NewRouter(cfg, repos, orders, disputes, notifications, logger)

	logger.Info("Starting server",
		zap.String("port", cfg.Port),
		zap.String("environment", cfg.Environment),
	)
	if err := router.Run(":" + cfg.Port); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}

func newLogger(environment string) (*zap.Logger, error) {
	if environment == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
