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

	"tablesync/internal/config"
	"tablesync/internal/publisher"
	"tablesync/internal/ratelimit"
	"tablesync/internal/scheduler"
	"tablesync/internal/service"
	"tablesync/internal/source/tableapi"
	"tablesync/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	once := flag.Bool("once", false, "run exactly one sweep and exit")
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

	// Checkpoint event publishing is optional
	var pub service.Publisher
	if cfg.RabbitMQ.URL != "" {
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
		pub = rabbitMQ
	}

	// Initialize stores
	txManager := postgres.NewTransactionManager(db)
	recordStore := postgres.NewRecordStore(db, txManager)
	syncStateStore := postgres.NewSyncStateStore(db)

	// Initialize the tabular API source. The limiter is constructed
	// here so additional table syncs could share one request budget.
	limiter := ratelimit.New(cfg.Source.RequestsPerSecond)
	source := tableapi.New(tableapi.Config{
		BaseURL:     cfg.Source.BaseURL,
		WorkspaceID: cfg.Source.WorkspaceID,
		TableID:     cfg.Source.TableID,
		APIKey:      cfg.Source.APIKey,
		APISecret:   cfg.Source.APISecret,
		Timeout:     cfg.Source.Timeout,
		MaxAttempts: cfg.Source.Retry.MaxAttempts,
		BackoffBase: cfg.Source.Retry.BackoffBase,
	}, limiter, logger)

	engine := service.NewSyncEngine(
		source,
		recordStore,
		syncStateStore,
		pub,
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

	logger.Info("starting table syncer",
		"table_id", cfg.Source.TableID,
		"interval", cfg.Sync.Interval,
		"page_size", cfg.Sync.PageSize,
	)

	if *once {
		runCtx, runCancel := context.WithTimeout(ctx, cfg.Sync.RunTimeout)
		defer runCancel()
		if _, err := engine.Sync(runCtx); err != nil {
			os.Exit(1)
		}
		return
	}

	sched := scheduler.NewScheduler(engine, cfg.Sync.Interval, cfg.Sync.RunTimeout, logger)
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
