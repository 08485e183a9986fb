package queue

import (
	"time"
)

// JobType represents the type of job to be processed
type JobType string

const (
	// JobTypeBuild represents an image build job
	JobTypeBuild JobType = "build"
)

// Job represents a work item in the queue
type Job struct {
	ID        string       `json:"id"`
	Type      JobType      `json:"type"`
	Payload   BuildPayload `json:"payload"`
	CreatedAt time.Time    `json:"created_at"`
}

// BuildPayload contains the options for a queued image build
type BuildPayload struct {
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
