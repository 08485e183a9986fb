package builder

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/alvesdmateus/image-builder/internal/builder/buildtypes"
	"github.com/alvesdmateus/image-builder/internal/builder/engines"
	"github.com/alvesdmateus/image-builder/internal/executil"
	"github.com/alvesdmateus/image-builder/internal/metadata"
	"github.com/alvesdmateus/image-builder/internal/report"
	"github.com/alvesdmateus/image-builder/internal/runcontext"
)

// DefaultEngine is the engine used when neither the options nor the
// environment select one.
const DefaultEngine = "docker"

// engineEnvSuffix is the project-scoped environment variable suffix for the
// engine override, e.g. MY_APP_CONTAINER_ENGINE.
const engineEnvSuffix = "CONTAINER_ENGINE"

// tempDirPrefix prefixes the per-run temp directory name.
const tempDirPrefix = "image-builder-"

// ErrBuildExecution is returned when the external build process reported
// failure. Message carries the most relevant part of the tool's stderr.
type ErrBuildExecution struct {
	Message string
}

func (e ErrBuildExecution) Error() string {
	return "build failed: " + e.Message
}

// ServiceConfig contains configuration for the build service
type ServiceConfig struct {
	RunContext    runcontext.Context
	DefaultEngine string
	DryRun        bool
}

// Service orchestrates a single image build run: input resolution, engine
// construction, metadata generation, command execution, output extraction and
// guaranteed temp directory cleanup.
type Service struct {
	runCtx        runcontext.Context
	defaultEngine string
	dryRun        bool

	factory         EngineFactory
	runner          CommandRunner
	reporter        report.Reporter
	tracker         BuildTracker
	resolveMetadata MetadataResolver
}

// NewService creates a new build service. A nil tracker disables build
// history; a nil reporter falls back to log reporting.
func NewService(cfg ServiceConfig, tracker BuildTracker, reporter report.Reporter) *Service {
	runner := executil.NewRunner()
	runner.DryRun = cfg.DryRun

	if tracker == nil {
		tracker = NopTracker{}
	}
	if reporter == nil {
		reporter = report.NewLogReporter()
	}

	return &Service{
		runCtx:          cfg.RunContext,
		defaultEngine:   cfg.DefaultEngine,
		dryRun:          cfg.DryRun,
		factory:         engines.NewFactory(runner),
		runner:          runner,
		reporter:        reporter,
		tracker:         tracker,
		resolveMetadata: metadata.Resolve,
	}
}

// Run executes one build:
// 1. Compute a fresh temp directory path for the run (not created here)
// 2. Resolve the input context from options and project defaults
// 3. Resolve the engine provider and construct the engine
// 4. Initialize the engine
// 5. Apply generated metadata when requested
// 6. Build arguments, build the command, execute it
// 7. Classify the result and finalize on success (dry runs finalize nothing)
// 8. Extract and report outputs
// The temp directory is removed on every exit path. There is no retry.
func (s *Service) Run(ctx context.Context, opts *Options) (outputs *BuildOutputs, err error) {
	defaults := &buildtypes.DefaultContext{
		TempDir:     filepath.Join(os.TempDir(), tempDirPrefix+uuid.New().String()),
		ProjectName: s.runCtx.ProjectName,
		ProjectRoot: s.runCtx.ProjectRoot,
	}
	defer s.cleanup(defaults.TempDir)

	inputs, err := s.resolveInputs(opts)
	if err != nil {
		return nil, err
	}

	provider := s.resolveProvider(opts.Engine)
	engine, err := s.factory.CreateEngine(provider)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("engine", engine.Name()).
		Str("dockerfile", inputs.DockerfilePath).
		Str("context", inputs.ContextPath).
		Msg("Starting image build")

	build, err := s.tracker.StartBuild(ctx, defaults.ProjectName, engine.Name(), inputs.Tags)
	if err != nil {
		return nil, fmt.Errorf("failed to start build tracking: %w", err)
	}

	defer func() {
		if err != nil {
			if trackErr := s.tracker.FailBuild(context.Background(), build.ID.String(), err); trackErr != nil {
				log.Error().
					Err(trackErr).
					Str("buildID", build.ID.String()).
					Msg("Failed to track build failure")
			}
		}
	}()

	if err = engine.Initialize(ctx, inputs); err != nil {
		return nil, err
	}

	if opts.Metadata.Enabled {
		var gen metadata.Generator
		gen, err = s.resolveMetadata(opts.Metadata, s.runCtx)
		if err != nil {
			return nil, err
		}
		inputs.ApplyMetadata(gen.GetTags(), gen.GetLabels())

		log.Info().
			Strs("tags", inputs.Tags).
			Int("labels", len(inputs.Labels)).
			Msg("Applied generated metadata")
	}

	args := engine.BuildArgs(inputs, defaults)
	command := engine.Command(args)

	var result buildtypes.ExecResult
	result, err = s.runner.Run(ctx, command)
	if err != nil {
		return nil, err
	}

	if !Succeeded(result) {
		err = ErrBuildExecution{Message: failureMessage(result.Stderr)}
		return nil, err
	}

	// A dry run spawns no process, so there are no artifacts to finalize.
	if s.dryRun {
		outputs = &BuildOutputs{}
		if trackErr := s.tracker.CompleteBuild(ctx, build.ID.String(), outputs); trackErr != nil {
			log.Error().
				Err(trackErr).
				Str("buildID", build.ID.String()).
				Msg("Failed to complete build tracking")
		}
		log.Info().Msg("Dry run complete")
		return outputs, nil
	}

	if err = engine.Finalize(ctx, inputs, defaults); err != nil {
		return nil, err
	}

	outputs = &BuildOutputs{
		ImageID:  engine.ImageID(),
		Metadata: engine.Metadata(),
	}
	outputs.Digest = engine.Digest(outputs.Metadata)

	s.reportOutputs(outputs)

	if trackErr := s.tracker.CompleteBuild(ctx, build.ID.String(), outputs); trackErr != nil {
		// History is best effort; the build itself succeeded.
		log.Error().
			Err(trackErr).
			Str("buildID", build.ID.String()).
			Msg("Failed to complete build tracking")
	}

	log.Info().
		Str("buildID", build.ID.String()).
		Str("imageID", outputs.ImageID).
		Msg("Image build completed successfully")

	return outputs, nil
}

// resolveInputs builds the input context from caller options and project
// defaults. The Dockerfile must exist before any engine work starts.
func (s *Service) resolveInputs(opts *Options) (*InputContext, error) {
	dockerfile := opts.Dockerfile
	if dockerfile == "" {
		dockerfile = s.runCtx.DefaultDockerfile()
	}

	if !s.dryRun {
		if st, err := os.Stat(dockerfile); err != nil || st.IsDir() {
			return nil, fmt.Errorf("dockerfile %q not found or not a file", dockerfile)
		}
	}

	contextPath := opts.ContextPath
	if contextPath == "" {
		contextPath = s.runCtx.ProjectRoot
	}

	return &InputContext{
		DockerfilePath: dockerfile,
		ContextPath:    contextPath,
		Tags:           opts.Tags,
		Labels:         opts.Labels,
		BuildArgs:      opts.BuildArgs,
		Platforms:      opts.Platforms,
		Outputs:        opts.Outputs,
		EngineOptions:  opts.EngineOptions,
	}, nil
}

// resolveProvider picks the engine provider: explicit option, then the
// project-scoped environment override, then the configured default.
func (s *Service) resolveProvider(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if override := os.Getenv(s.runCtx.EnvKey(engineEnvSuffix)); override != "" {
		return override
	}
	if s.defaultEngine != "" {
		return s.defaultEngine
	}
	return DefaultEngine
}

// reportOutputs reports each present output exactly once
func (s *Service) reportOutputs(outputs *BuildOutputs) {
	pairs := []struct {
		key   string
		value string
	}{
		{report.KeyImageID, outputs.ImageID},
		{report.KeyDigest, outputs.Digest},
		{report.KeyMetadata, outputs.Metadata},
	}

	for _, p := range pairs {
		if p.value == "" {
			continue
		}
		if err := s.reporter.Report(p.key, p.value); err != nil {
			log.Warn().Err(err).Str("key", p.key).Msg("Failed to report build output")
		}
	}
}

// cleanup removes the run's temp directory tree if it exists on disk. Engines
// create it lazily, so a run that failed early leaves nothing to remove.
func (s *Service) cleanup(tempDir string) {
	if _, err := os.Stat(tempDir); os.IsNotExist(err) {
		return
	}

	if err := os.RemoveAll(tempDir); err != nil {
		log.Warn().Err(err).Str("tempDir", tempDir).Msg("Failed to remove temp directory")
		return
	}

	log.Debug().Str("tempDir", tempDir).Msg("Removed temp directory")
}

// Succeeded classifies an execution result. The build counts as successful
// when the exit code is zero, or when stderr is empty even on a non-zero
// exit: some wrapped build tools legitimately exit non-zero on benign
// conditions, so a non-zero exit combined with non-empty stderr is the sole
// failure condition.
func Succeeded(result buildtypes.ExecResult) bool {
	return result.ExitCode == 0 || result.Stderr == ""
}

// failureMessage extracts the most relevant part of a failing build's stderr:
// the last non-empty line, with the leading tool prefix (everything up to the
// first ": ") stripped.
func failureMessage(stderr string) string {
	line := executil.LastLine(stderr)
	if line == "" {
		return "build command failed"
	}
	if i := strings.Index(line, ": "); i >= 0 && i+2 < len(line) {
		return line[i+2:]
	}
	return line
}
