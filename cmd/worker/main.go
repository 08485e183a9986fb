package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/alvesdmateus/image-builder/internal/observability"
	"github.com/alvesdmateus/image-builder/internal/orchestrator"
	"github.com/alvesdmateus/image-builder/internal/queue"
	"github.com/alvesdmateus/image-builder/internal/state"
	"github.com/alvesdmateus/image-builder/pkg/config"
	"github.com/alvesdmateus/image-builder/pkg/database"
)

func main() {
	// Initialize logger
	zlog := zerolog.New(os.Stdout).With().Timestamp().Logger()
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	zlog.Info().Msg("Starting image-builder worker")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		zlog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	zlog.Info().
		Str("default_engine", cfg.Builder.DefaultEngine).
		Int("worker_concurrency", cfg.Worker.Concurrency).
		Msg("Configuration loaded")

	// Connect to database
	db, err := database.New(database.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		DBName:          cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		zlog.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer database.Close(db)

	// Run migrations
	if err := database.Migrate(db, &state.Build{}); err != nil {
		zlog.Fatal().Err(err).Msg("Failed to run database migrations")
	}

	repo := state.NewRepository(db)

	// Connect to Redis queue
	redisQueue, err := queue.NewRedisQueue(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		zlog.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer redisQueue.Close()

	// Create orchestrator engine and worker
	metrics := observability.NewMetrics("image_builder")
	engine := orchestrator.NewEngine(redisQueue, repo, orchestrator.BuildDefaults{
		Engine:            cfg.Builder.DefaultEngine,
		OutputsFile:       cfg.Builder.OutputsFile,
		MetadataGenerator: cfg.Metadata.Generator,
		MetadataRulesFile: cfg.Metadata.RulesFile,
	}, metrics, zlog)
	worker := orchestrator.NewWorker(engine, cfg.Worker.Concurrency, zlog)

	// Create context that listens for interrupt signals
	workerCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	workerErrChan := make(chan error, 1)
	go func() {
		if err := worker.Start(workerCtx); err != nil {
			workerErrChan <- err
		}
	}()

	zlog.Info().Msg("Worker started, processing build jobs...")

	// Wait for interrupt signal or worker error
	select {
	case <-workerCtx.Done():
		zlog.Info().Msg("Received shutdown signal, stopping worker gracefully...")
	case err := <-workerErrChan:
		zlog.Error().Err(err).Msg("Worker encountered an error")
	}

	zlog.Info().Msg("Worker shutdown complete")
}
