package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/alvesdmateus/image-builder/internal/builder"
	"github.com/alvesdmateus/image-builder/internal/metadata"
	"github.com/alvesdmateus/image-builder/internal/observability"
	"github.com/alvesdmateus/image-builder/internal/queue"
	"github.com/alvesdmateus/image-builder/internal/report"
	"github.com/alvesdmateus/image-builder/internal/runcontext"
	"github.com/alvesdmateus/image-builder/internal/state"
)

// BuildDefaults carries the server-level build settings applied to every job
// that does not override them.
type BuildDefaults struct {
	Engine            string
	OutputsFile       string
	MetadataGenerator string
	MetadataRulesFile string
}

// Engine turns queued build jobs into build service runs
type Engine struct {
	queue    *queue.RedisQueue
	repo     *state.Repository
	defaults BuildDefaults
	metrics  *observability.Metrics
	logger   zerolog.Logger
}

// NewEngine creates a new orchestrator engine. A nil metrics disables
// instrumentation.
func NewEngine(q *queue.RedisQueue, repo *state.Repository, defaults BuildDefaults, metrics *observability.Metrics, logger zerolog.Logger) *Engine {
	return &Engine{
		queue:    q,
		repo:     repo,
		defaults: defaults,
		metrics:  metrics,
		logger:   logger.With().Str("component", "orchestrator").Logger(),
	}
}

// EnqueueBuildJob enqueues a build job to the queue
func (e *Engine) EnqueueBuildJob(ctx context.Context, payload *queue.BuildPayload) (string, error) {
	job := &queue.Job{
		ID:        uuid.New().String(),
		Type:      queue.JobTypeBuild,
		Payload:   *payload,
		CreatedAt: time.Now(),
	}

	e.logger.Info().
		Str("job_id", job.ID).
		Str("project_dir", payload.ProjectDir).
		Str("engine", payload.Engine).
		Msg("Enqueueing build job")

	if err := e.queue.Enqueue(ctx, job); err != nil {
		return "", fmt.Errorf("failed to enqueue build job: %w", err)
	}

	return job.ID, nil
}

// handleBuildJob runs one queued build to completion. Errors are recorded on
// the build record by the service's tracker; they are returned here only for
// worker logging.
func (e *Engine) handleBuildJob(ctx context.Context, job *queue.Job) error {
	payload := job.Payload
	start := time.Now()

	if e.metrics != nil {
		e.metrics.BuildsInProgress.Inc()
		defer e.metrics.BuildsInProgress.Dec()
	}

	runCtx, err := runcontext.Load(payload.ProjectDir)
	if err != nil {
		return fmt.Errorf("failed to load run context: %w", err)
	}

	service := builder.NewService(builder.ServiceConfig{
		RunContext:    runCtx,
		DefaultEngine: e.defaults.Engine,
	}, builder.NewTracker(e.repo), e.buildReporter())

	opts := e.jobOptions(&payload)

	engineName := payload.Engine
	if engineName == "" {
		engineName = e.defaults.Engine
	}
	if engineName == "" {
		engineName = builder.DefaultEngine
	}

	outputs, err := service.Run(ctx, opts)
	if err != nil {
		e.recordBuild(engineName, "failed", start)
		return fmt.Errorf("build job failed: %w", err)
	}
	e.recordBuild(engineName, "succeeded", start)

	e.logger.Info().
		Str("job_id", job.ID).
		Str("image_id", outputs.ImageID).
		Str("digest", outputs.Digest).
		Msg("Build job completed")

	return nil
}

// jobOptions resolves the build options for a queued job, falling back to the
// configured metadata defaults where the payload leaves them unset.
func (e *Engine) jobOptions(payload *queue.BuildPayload) *builder.Options {
	generator := payload.MetadataGenerator
	if generator == "" {
		generator = e.defaults.MetadataGenerator
	}
	rulesFile := payload.MetadataRulesFile
	if rulesFile == "" {
		rulesFile = e.defaults.MetadataRulesFile
	}

	return &builder.Options{
		Dockerfile:    payload.Dockerfile,
		ContextPath:   payload.ContextPath,
		Tags:          payload.Tags,
		Labels:        payload.Labels,
		BuildArgs:     payload.BuildArgs,
		Platforms:     payload.Platforms,
		Outputs:       payload.Outputs,
		EngineOptions: payload.EngineOptions,
		Engine:        payload.Engine,
		Metadata: metadata.Config{
			Enabled:   payload.GenerateMetadata,
			Generator: generator,
			RulesFile: rulesFile,
		},
	}
}

// buildReporter returns the log reporter, extended with the configured
// outputs file when one is set.
func (e *Engine) buildReporter() report.Reporter {
	if e.defaults.OutputsFile == "" {
		return report.NewLogReporter()
	}
	return report.NewMultiReporter(report.NewLogReporter(), report.NewFileReporter(e.defaults.OutputsFile))
}

func (e *Engine) recordBuild(engine, status string, start time.Time) {
	if e.metrics == nil {
		return
	}
	e.metrics.RecordBuild(engine, status, time.Since(start).Seconds())
}
