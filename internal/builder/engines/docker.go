package engines

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/docker/docker/client"
	"github.com/rs/zerolog/log"

	"github.com/alvesdmateus/image-builder/internal/builder/buildtypes"
)

// iidFileName is the per-run file the build writes the image id into.
const iidFileName = "iidfile"

// DockerEngine builds images with the standard docker builder
type DockerEngine struct {
	imageID string
}

// NewDockerEngine creates a standard docker engine adapter
func NewDockerEngine() *DockerEngine {
	return &DockerEngine{}
}

// Name returns the engine name
func (e *DockerEngine) Name() string {
	return string(EngineTypeDocker)
}

// Initialize verifies the docker daemon is reachable
func (e *DockerEngine) Initialize(ctx context.Context, inputs *buildtypes.InputContext) error {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return ErrEngineInit{Engine: e.Name(), Err: fmt.Errorf("failed to create docker client: %w", err)}
	}
	defer cli.Close()

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if _, err := cli.Ping(pingCtx); err != nil {
		return ErrEngineInit{Engine: e.Name(), Err: fmt.Errorf("docker daemon not accessible: %w", err)}
	}

	log.Debug().Msg("Docker daemon reachable")
	return nil
}

// BuildArgs translates the inputs into docker build arguments
func (e *DockerEngine) BuildArgs(inputs *buildtypes.InputContext, defaults *buildtypes.DefaultContext) []string {
	args := []string{"build", "--progress=plain"}
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

	args = append(args, "--iidfile", artifactPath(defaults, iidFileName))
	args = appendEngineOptions(args, inputs.EngineOptions)

	return append(args, inputs.ContextPath)
}

// Command wraps the arguments with the docker binary
func (e *DockerEngine) Command(args []string) buildtypes.BuildCommand {
	return buildtypes.BuildCommand{Command: "docker", Args: args}
}

// Finalize reads the image id the build wrote to the iid file
func (e *DockerEngine) Finalize(ctx context.Context, inputs *buildtypes.InputContext, defaults *buildtypes.DefaultContext) error {
	path := filepath.Join(defaults.TempDir, iidFileName)

	data, err := os.ReadFile(path)
	if err != nil {
		return ErrEngineFinalize{Engine: e.Name(), Err: fmt.Errorf("image id file missing: %w", err)}
	}

	e.imageID = strings.TrimSpace(string(data))

	log.Debug().Str("imageID", e.imageID).Msg("Docker build finalized")
	return nil
}

// ImageID returns the image id captured during Finalize
func (e *DockerEngine) ImageID() string {
	return e.imageID
}

// Metadata returns empty: the standard builder does not export build metadata
func (e *DockerEngine) Metadata() string {
	return ""
}

// Digest returns empty: without metadata there is no content digest
func (e *DockerEngine) Digest(metadata string) string {
	return ""
}
