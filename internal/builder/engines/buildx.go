package engines

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/opencontainers/go-digest"
	"github.com/rs/zerolog/log"

	"github.com/alvesdmateus/image-builder/internal/builder/buildtypes"
	"github.com/alvesdmateus/image-builder/internal/executil"
)

// metadataFileName is the per-run file buildx writes its build metadata into.
const metadataFileName = "metadata.json"

// builderOption is the engine option naming the buildx builder instance to use.
const builderOption = "builder"

// BuildxEngine builds images with docker buildx: multi-platform builds,
// metadata export and the richer caching and output flags
type BuildxEngine struct {
	runner *executil.Runner

	imageID  string
	metadata string
}

// NewBuildxEngine creates a buildx engine adapter
func NewBuildxEngine(runner *executil.Runner) *BuildxEngine {
	return &BuildxEngine{runner: runner}
}

// Name returns the engine name
func (e *BuildxEngine) Name() string {
	return string(EngineTypeBuildx)
}

// Initialize verifies the buildx builder instance exists, creating one when
// it does not
func (e *BuildxEngine) Initialize(ctx context.Context, inputs *buildtypes.InputContext) error {
	name := inputs.EngineOptions[builderOption]

	inspectArgs := []string{"buildx", "inspect"}
	if name != "" {
		inspectArgs = append(inspectArgs, name)
	}

	result, err := e.runner.Run(ctx, buildtypes.BuildCommand{Command: "docker", Args: inspectArgs})
	if err != nil {
		return ErrEngineInit{Engine: e.Name(), Err: err}
	}
	if result.ExitCode == 0 {
		return nil
	}

	log.Info().Str("builder", name).Msg("Buildx builder instance not found, creating")

	createArgs := []string{"buildx", "create", "--use"}
	if name != "" {
		createArgs = append(createArgs, "--name", name)
	}

	result, err = e.runner.Run(ctx, buildtypes.BuildCommand{Command: "docker", Args: createArgs})
	if err != nil {
		return ErrEngineInit{Engine: e.Name(), Err: err}
	}
	if result.ExitCode != 0 {
		return ErrEngineInit{
			Engine: e.Name(),
			Err:    fmt.Errorf("failed to create builder instance: %s", executil.LastLine(result.Stderr)),
		}
	}

	return nil
}

// BuildArgs translates the inputs into buildx build arguments
func (e *BuildxEngine) BuildArgs(inputs *buildtypes.InputContext, defaults *buildtypes.DefaultContext) []string {
	args := []string{"buildx", "build", "--progress=plain"}
	args = append(args, "-f", inputs.DockerfilePath)

	for _, tag := range inputs.Tags {
		args = append(args, "-t", tag)
	}
	for _, label := range inputs.Labels {
		args = append(args, "--label", label)
	}
	args = appendSortedKV(args, "--build-arg", inputs.BuildArgs)

	if len(inputs.Platforms) > 0 {
		args = append(args, "--platform", strings.Join(inputs.Platforms, ","))
	}
	for _, out := range inputs.Outputs {
		args = append(args, "--output", out)
	}

	args = append(args,
		"--iidfile", artifactPath(defaults, iidFileName),
		"--metadata-file", artifactPath(defaults, metadataFileName),
	)
	args = appendEngineOptions(args, engineOptionsWithout(inputs.EngineOptions, builderOption))

	if name := inputs.EngineOptions[builderOption]; name != "" {
		args = append(args, "--builder", name)
	}

	return append(args, inputs.ContextPath)
}

// Command wraps the arguments with the docker binary
func (e *BuildxEngine) Command(args []string) buildtypes.BuildCommand {
	return buildtypes.BuildCommand{Command: "docker", Args: args}
}

// Finalize reads the metadata file buildx wrote during the build. The image
// id file is optional here: some output configurations never load an image
// into the local store.
func (e *BuildxEngine) Finalize(ctx context.Context, inputs *buildtypes.InputContext, defaults *buildtypes.DefaultContext) error {
	metadataPath := filepath.Join(defaults.TempDir, metadataFileName)

	data, err := os.ReadFile(metadataPath)
	if err != nil {
		return ErrEngineFinalize{Engine: e.Name(), Err: fmt.Errorf("build metadata file missing: %w", err)}
	}
	e.metadata = strings.TrimSpace(string(data))

	if iid, err := os.ReadFile(filepath.Join(defaults.TempDir, iidFileName)); err == nil {
		e.imageID = strings.TrimSpace(string(iid))
	} else {
		e.imageID = e.configDigest(e.metadata)
	}

	log.Debug().
		Str("imageID", e.imageID).
		Int("metadataBytes", len(e.metadata)).
		Msg("Buildx build finalized")
	return nil
}

// ImageID returns the image id captured during Finalize
func (e *BuildxEngine) ImageID() string {
	return e.imageID
}

// Metadata returns the raw metadata JSON captured during Finalize
func (e *BuildxEngine) Metadata() string {
	return e.metadata
}

// Digest extracts the validated image content digest from the metadata
func (e *BuildxEngine) Digest(metadata string) string {
	var meta struct {
		Digest string `json:"containerimage.digest"`
	}
	if err := json.Unmarshal([]byte(metadata), &meta); err != nil {
		return ""
	}

	parsed, err := digest.Parse(meta.Digest)
	if err != nil {
		return ""
	}
	return parsed.String()
}

// configDigest extracts the image config digest from the metadata, the
// closest equivalent of a local image id when no iid file was written
func (e *BuildxEngine) configDigest(metadata string) string {
	var meta struct {
		ConfigDigest string `json:"containerimage.config.digest"`
	}
	if err := json.Unmarshal([]byte(metadata), &meta); err != nil {
		return ""
	}
	return meta.ConfigDigest
}

// engineOptionsWithout copies opts minus the given keys, which are handled
// with dedicated flags rather than passthrough.
func engineOptionsWithout(opts map[string]string, keys ...string) map[string]string {
	filtered := make(map[string]string, len(opts))
	for k, v := range opts {
		filtered[k] = v
	}
	for _, k := range keys {
		delete(filtered, k)
	}
	return filtered
}
