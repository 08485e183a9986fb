package builder

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/alvesdmateus/image-builder/internal/state"
)

// Tracker implements BuildTracker backed by the state repository
type Tracker struct {
	repo *state.Repository
}

// NewTracker creates a new build tracker
func NewTracker(repo *state.Repository) *Tracker {
	return &Tracker{repo: repo}
}

// StartBuild creates a new build record in the database
func (t *Tracker) StartBuild(ctx context.Context, projectName, engine string, tags []string) (*state.Build, error) {
	build := &state.Build{
		ID:          uuid.New(),
		ProjectName: projectName,
		Engine:      engine,
		Status:      state.BuildStatusRunning,
		Tags:        strings.Join(tags, ","),
		StartedAt:   time.Now(),
	}

	if err := t.repo.CreateBuild(ctx, build); err != nil {
		return nil, fmt.Errorf("failed to create build record: %w", err)
	}

	log.Info().
		Str("buildID", build.ID.String()).
		Str("project", projectName).
		Str("engine", engine).
		Msg("Build record created")

	return build, nil
}

// CompleteBuild marks a build as succeeded and stores its outputs
func (t *Tracker) CompleteBuild(ctx context.Context, buildID string, outputs *BuildOutputs) error {
	build, err := t.getBuild(ctx, buildID)
	if err != nil {
		return err
	}

	now := time.Now()
	build.Status = state.BuildStatusSucceeded
	build.ImageID = outputs.ImageID
	build.Digest = outputs.Digest
	build.Metadata = outputs.Metadata
	build.CompletedAt = &now

	if err := t.repo.UpdateBuild(ctx, build); err != nil {
		return fmt.Errorf("failed to complete build record: %w", err)
	}

	return nil
}

// FailBuild marks a build as failed
func (t *Tracker) FailBuild(ctx context.Context, buildID string, buildErr error) error {
	build, err := t.getBuild(ctx, buildID)
	if err != nil {
		return err
	}

	now := time.Now()
	build.Status = state.BuildStatusFailed
	build.Error = buildErr.Error()
	build.CompletedAt = &now

	if err := t.repo.UpdateBuild(ctx, build); err != nil {
		return fmt.Errorf("failed to update build record: %w", err)
	}

	return nil
}

func (t *Tracker) getBuild(ctx context.Context, buildID string) (*state.Build, error) {
	id, err := uuid.Parse(buildID)
	if err != nil {
		return nil, fmt.Errorf("invalid build ID: %w", err)
	}

	build, err := t.repo.GetBuild(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get build: %w", err)
	}

	return build, nil
}

// NopTracker is a BuildTracker that records nothing, used when no database is
// configured (plain CLI runs).
type NopTracker struct{}

// StartBuild returns an ephemeral build record
func (NopTracker) StartBuild(ctx context.Context, projectName, engine string, tags []string) (*state.Build, error) {
	return &state.Build{
		ID:          uuid.New(),
		ProjectName: projectName,
		Engine:      engine,
		Status:      state.BuildStatusRunning,
		StartedAt:   time.Now(),
	}, nil
}

// CompleteBuild does nothing
func (NopTracker) CompleteBuild(ctx context.Context, buildID string, outputs *BuildOutputs) error {
	return nil
}

// FailBuild does nothing
func (NopTracker) FailBuild(ctx context.Context, buildID string, err error) error {
	return nil
}
