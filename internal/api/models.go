package api

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/alvesdmateus/image-builder/internal/state"
)

// EnqueueBuildRequest represents a request to queue an image build
type EnqueueBuildRequest struct {
	ProjectDir    string            `json:"project_dir"`
	Dockerfile    string            `json:"dockerfile,omitempty"`
	ContextPath   string            `json:"context_path,omitempty"`
	Tags          []string          `json:"tags,omitempty"`
	Labels        []string          `json:"labels,omitempty"`
	BuildArgs     map[string]string `json:"build_args,omitempty"`
	Platforms     []string          `json:"platforms,omitempty"`
	Outputs       []string          `json:"outputs,omitempty"`
	EngineOptions map[string]string `json:"engine_options,omitempty"`
	Engine        string            `json:"engine,omitempty"`

	GenerateMetadata  bool   `json:"generate_metadata,omitempty"`
	MetadataGenerator string `json:"metadata_generator,omitempty"`
	MetadataRulesFile string `json:"metadata_rules_file,omitempty"`
}

// EnqueueBuildResponse carries the id of the queued job
type EnqueueBuildResponse struct {
	JobID string `json:"job_id"`
}

// BuildResponse represents a build record in API responses
type BuildResponse struct {
	ID          uuid.UUID  `json:"id"`
	ProjectName string     `json:"project_name"`
	Engine      string     `json:"engine"`
	Status      string     `json:"status"`
	Tags        []string   `json:"tags,omitempty"`
	ImageID     string     `json:"image_id,omitempty"`
	Digest      string     `json:"digest,omitempty"`
	Error       string     `json:"error,omitempty"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// toBuildResponse converts a build record to its API representation
func toBuildResponse(build *state.Build) BuildResponse {
	var tags []string
	if build.Tags != "" {
		tags = strings.Split(build.Tags, ",")
	}

	return BuildResponse{
		ID:          build.ID,
		ProjectName: build.ProjectName,
		Engine:      build.Engine,
		Status:      build.Status,
		Tags:        tags,
		ImageID:     build.ImageID,
		Digest:      build.Digest,
		Error:       build.Error,
		StartedAt:   build.StartedAt,
		CompletedAt: build.CompletedAt,
	}
}
