package state

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrBuildNotFound is returned when a build id does not exist
var ErrBuildNotFound = errors.New("build not found")

// Repository provides database operations for build records
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new state repository
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateBuild creates a new build record
func (r *Repository) CreateBuild(ctx context.Context, build *Build) error {
	if build.ID == uuid.Nil {
		build.ID = uuid.New()
	}

	if err := r.db.WithContext(ctx).Create(build).Error; err != nil {
		return fmt.Errorf("failed to create build: %w", err)
	}

	return nil
}

// GetBuild retrieves a build by ID
func (r *Repository) GetBuild(ctx context.Context, id uuid.UUID) (*Build, error) {
	var build Build

	if err := r.db.WithContext(ctx).First(&build, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrBuildNotFound, id)
		}
		return nil, fmt.Errorf("failed to get build: %w", err)
	}

	return &build, nil
}

// ListBuilds retrieves build records, newest first
func (r *Repository) ListBuilds(ctx context.Context, limit, offset int) ([]Build, error) {
	var builds []Build

	query := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset)

	if err := query.Find(&builds).Error; err != nil {
		return nil, fmt.Errorf("failed to list builds: %w", err)
	}

	return builds, nil
}

// UpdateBuild updates a build record
func (r *Repository) UpdateBuild(ctx context.Context, build *Build) error {
	if err := r.db.WithContext(ctx).Save(build).Error; err != nil {
		return fmt.Errorf("failed to update build: %w", err)
	}

	return nil
}

// CountBuilds returns the number of recorded builds
func (r *Repository) CountBuilds(ctx context.Context) (int64, error) {
	var count int64

	if err := r.db.WithContext(ctx).Model(&Build{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count builds: %w", err)
	}

	return count, nil
}
