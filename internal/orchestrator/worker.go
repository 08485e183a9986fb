package orchestrator

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/alvesdmateus/image-builder/internal/queue"
)

// Worker processes build jobs from the queue with configurable concurrency.
// Each job is an independent run with its own temp directory and engine
// instance, so jobs are safe to process in parallel.
type Worker struct {
	engine      *Engine
	concurrency int
	pollTimeout time.Duration
	logger      zerolog.Logger
}

// NewWorker creates a new worker
func NewWorker(engine *Engine, concurrency int, logger zerolog.Logger) *Worker {
	if concurrency < 1 {
		concurrency = 1
	}

	return &Worker{
		engine:      engine,
		concurrency: concurrency,
		pollTimeout: 5 * time.Second, // Blocking poll timeout
		logger:      logger.With().Str("component", "worker").Logger(),
	}
}

// Start starts the worker with N concurrent job processors
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info().
		Int("concurrency", w.concurrency).
		Msg("Starting build worker")

	var wg sync.WaitGroup

	for i := 0; i < w.concurrency; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			if w.engine.metrics != nil {
				w.engine.metrics.WorkersActive.Inc()
				defer w.engine.metrics.WorkersActive.Dec()
			}
			w.processJobs(ctx, workerID)
		}(i)
	}

	// Wait for all workers to finish (when context is cancelled)
	wg.Wait()

	w.logger.Info().Msg("Build worker stopped")
	return nil
}

// refreshQueueDepth updates the queue depth gauge after each poll
func (w *Worker) refreshQueueDepth(ctx context.Context) {
	if w.engine.metrics == nil {
		return
	}
	if depth, err := w.engine.queue.GetQueueLength(ctx, queue.JobTypeBuild); err == nil {
		w.engine.metrics.QueueDepth.Set(float64(depth))
	}
}

// processJobs is the main worker loop that processes jobs from the queue
func (w *Worker) processJobs(ctx context.Context, workerID int) {
	logger := w.logger.With().Int("worker_id", workerID).Logger()
	logger.Info().Msg("Worker goroutine started")

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("Worker goroutine stopped (context cancelled)")
			return
		default:
			job, err := w.engine.queue.Dequeue(ctx, queue.JobTypeBuild, w.pollTimeout)
			if err != nil {
				if ctx.Err() != nil {
					continue
				}
				logger.Error().Err(err).Msg("Failed to dequeue job")
				continue
			}
			w.refreshQueueDepth(ctx)

			if job == nil {
				// Poll timeout, nothing queued
				continue
			}

			logger.Info().
				Str("job_id", job.ID).
				Msg("Processing build job")

			if err := w.engine.handleBuildJob(ctx, job); err != nil {
				logger.Error().
					Err(err).
					Str("job_id", job.ID).
					Msg("Build job failed")
				continue
			}

			logger.Info().
				Str("job_id", job.ID).
				Msg("Build job processed")
		}
	}
}
