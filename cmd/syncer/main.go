package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"boe_syncer/internal/config"
	"boe_syncer/internal/province"
	"boe_syncer/internal/publisher"
	"boe_syncer/internal/scheduler"
	"boe_syncer/internal/service"
	"boe_syncer/internal/source/boe"
	"boe_syncer/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	once := flag.Bool("once", false, "run a single sync and exit")
	flag.Parse()

	// Setup logger
	logger := setupLogger("info")

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger = setupLogger(cfg.LogLevel)

	db, err := sqlx.Connect("postgres", cfg.Database.DSN())
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Error("failed to ping database", "error", err)
		os.Exit(1)
	}
	logger.Info("connected to database")

	// Initialize RabbitMQ publisher
	rabbitMQ, err := publisher.NewRabbitMQ(publisher.Config{
		URL:        cfg.RabbitMQ.URL,
		Exchange:   cfg.RabbitMQ.Exchange,
		RoutingKey: cfg.RabbitMQ.RoutingKey,
		QueueName:  cfg.RabbitMQ.QueueName,
	}, logger)
	if err != nil {
		logger.Error("failed to connect to rabbitmq", "error", err)
		os.Exit(1)
	}
	defer rabbitMQ.Close()

	// Initialize store and classifier
	store := postgres.NewAnnouncementStore(db)
	classifier := province.NewClassifier(cfg.Provinces)

	// Initialize BOE source
	boeSource := boe.New(boe.Config{
		BaseURL:     cfg.Source.BaseURL,
		SectionCode: cfg.Source.SectionCode,
		UserAgent:   cfg.Source.UserAgent,
		Timeout:     cfg.Source.Timeout,
	}, logger)

	// Create sync service for the BOE source
	syncService := service.NewSyncService(
		boeSource,
		store,
		classifier,
		rabbitMQ,
		service.SystemClock{},
		logger,
		cfg.Sync,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	if *once {
		newRecords, err := syncService.SyncUpToToday(ctx)
		if err != nil {
			logger.Error("sync failed", "error", err)
			os.Exit(1)
		}
		logger.Info("single sync finished", "new_announcements", len(newRecords))
		return
	}

	sched := scheduler.NewScheduler(syncService, cfg.Sync.Interval, logger)

	logger.Info("starting announcement syncer",
		"source", boeSource.Name(),
		"interval", cfg.Sync.Interval,
		"bootstrap_days", cfg.Sync.BootstrapDays,
		"retain_days", cfg.Sync.RetainDays,
	)

	if err := sched.Start(ctx); err != nil && err != context.Canceled {
		logger.Error("scheduler error", "error", err)
		os.Exit(1)
	}
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}
	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(handler)
}
