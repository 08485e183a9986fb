package builder

import (
	"context"

	"github.com/alvesdmateus/image-builder/internal/builder/buildtypes"
	"github.com/alvesdmateus/image-builder/internal/builder/engines"
	"github.com/alvesdmateus/image-builder/internal/metadata"
	"github.com/alvesdmateus/image-builder/internal/runcontext"
	"github.com/alvesdmateus/image-builder/internal/state"
)

// InputContext is an alias for buildtypes.InputContext
type InputContext = buildtypes.InputContext

// BuildOutputs is an alias for buildtypes.BuildOutputs
type BuildOutputs = buildtypes.BuildOutputs

// Options carries the caller-supplied build options for one run. Empty fields
// fall back to run-context defaults during input resolution.
type Options struct {
	Dockerfile    string
	ContextPath   string
	Tags          []string
	Labels        []string
	BuildArgs     map[string]string
	Platforms     []string
	Outputs       []string
	EngineOptions map[string]string

	// Engine selects the build engine. Resolution order: this field, then the
	// project-scoped environment override, then "docker".
	Engine string

	// Metadata configures the optional metadata generation step.
	Metadata metadata.Config
}

// CommandRunner executes an external build command and captures its result
type CommandRunner interface {
	Run(ctx context.Context, cmd buildtypes.BuildCommand) (buildtypes.ExecResult, error)
}

// EngineFactory creates a build engine from a provider identifier
type EngineFactory interface {
	CreateEngine(provider string) (engines.Engine, error)
}

// MetadataResolver resolves the configured metadata generator
type MetadataResolver func(cfg metadata.Config, runCtx runcontext.Context) (metadata.Generator, error)

// BuildTracker records build lifecycle events
type BuildTracker interface {
	// StartBuild creates a new build record
	StartBuild(ctx context.Context, projectName, engine string, tags []string) (*state.Build, error)

	// CompleteBuild marks a build as succeeded with its outputs
	CompleteBuild(ctx context.Context, buildID string, outputs *BuildOutputs) error

	// FailBuild marks a build as failed
	FailBuild(ctx context.Context, buildID string, err error) error
}
