package engines

import (
	"context"
	"strings"

	"github.com/alvesdmateus/image-builder/internal/builder/buildtypes"
	"github.com/alvesdmateus/image-builder/internal/executil"
)

// Engine encapsulates everything specific to one container build tool behind
// a uniform contract, so callers never branch on engine identity after
// construction.
type Engine interface {
	// Name returns the engine identifier (e.g. "docker", "buildx")
	Name() string

	// Initialize performs one-time engine setup, such as verifying the
	// daemon is reachable or creating a builder instance. A failure here is
	// fatal and aborts the run before any build command is issued.
	Initialize(ctx context.Context, inputs *buildtypes.InputContext) error

	// BuildArgs translates the resolved inputs into engine-specific command
	// line arguments. Deterministic: identical inputs produce an identical
	// argument sequence. Engines that emit artifact file paths create the
	// run's temp directory here so those paths are writable by the build.
	BuildArgs(inputs *buildtypes.InputContext, defaults *buildtypes.DefaultContext) []string

	// Command wraps the argument list with the engine's binary name.
	Command(args []string) buildtypes.BuildCommand

	// Finalize runs after the build process completed successfully and
	// gathers the artifacts it produced (image id file, metadata file).
	Finalize(ctx context.Context, inputs *buildtypes.InputContext, defaults *buildtypes.DefaultContext) error

	// ImageID returns the built image id captured during Finalize, or empty
	// when the engine did not produce one.
	ImageID() string

	// Metadata returns the raw build metadata captured during Finalize, or
	// empty when the engine does not export metadata.
	Metadata() string

	// Digest extracts the image content digest from the given metadata, or
	// empty when none is present. Absence is an expected outcome, not an
	// error.
	Digest(metadata string) string
}

// EngineType identifies a supported build engine
type EngineType string

const (
	EngineTypeDocker EngineType = "docker"
	EngineTypeBuildx EngineType = "buildx"
)

// Factory creates build engines from a provider identifier
type Factory struct {
	runner *executil.Runner
}

// NewFactory creates a new engine factory. The runner is handed to engines
// that shell out during Initialize; construction itself has no side effects.
func NewFactory(runner *executil.Runner) *Factory {
	return &Factory{runner: runner}
}

// CreateEngine creates the engine for the given provider identifier. The
// identifier is case-insensitive and defaults to docker when empty.
func (f *Factory) CreateEngine(provider string) (Engine, error) {
	name := EngineType(strings.ToLower(strings.TrimSpace(provider)))
	if name == "" {
		name = EngineTypeDocker
	}

	switch name {
	case EngineTypeDocker:
		return NewDockerEngine(), nil
	case EngineTypeBuildx:
		return NewBuildxEngine(f.runner), nil
	default:
		return nil, ErrUnknownEngine{Provider: provider}
	}
}

// ErrUnknownEngine is returned when an unknown engine provider is requested
type ErrUnknownEngine struct {
	Provider string
}

func (e ErrUnknownEngine) Error() string {
	return "unknown build engine: " + e.Provider
}

// ErrEngineInit is returned when an engine's environment is unusable
type ErrEngineInit struct {
	Engine string
	Err    error
}

func (e ErrEngineInit) Error() string {
	return "failed to initialize " + e.Engine + " engine: " + e.Err.Error()
}

func (e ErrEngineInit) Unwrap() error {
	return e.Err
}

// ErrEngineFinalize is returned when an expected post-build artifact is missing
type ErrEngineFinalize struct {
	Engine string
	Err    error
}

func (e ErrEngineFinalize) Error() string {
	return "failed to finalize " + e.Engine + " build: " + e.Err.Error()
}

func (e ErrEngineFinalize) Unwrap() error {
	return e.Err
}
