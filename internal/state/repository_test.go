package state

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/alvesdmateus/image-builder/pkg/database"
)

func setupTestRepository(t *testing.T) *Repository {
	t.Helper()

	db, err := database.NewSQLite(":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { database.Close(db) })

	if err := AutoMigrate(db); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}

	return NewRepository(db)
}

func TestCreateAndGetBuild(t *testing.T) {
	repo := setupTestRepository(t)
	ctx := context.Background()

	build := &Build{
		ProjectName: "my-app",
		Engine:      "docker",
		Status:      BuildStatusRunning,
		Tags:        "my-app:abc123,my-app:latest",
		StartedAt:   time.Now(),
	}

	if err := repo.CreateBuild(ctx, build); err != nil {
		t.Fatalf("CreateBuild failed: %v", err)
	}
	if build.ID == uuid.Nil {
		t.Fatal("Expected an id to be assigned")
	}

	got, err := repo.GetBuild(ctx, build.ID)
	if err != nil {
		t.Fatalf("GetBuild failed: %v", err)
	}
	if got.ProjectName != "my-app" || got.Engine != "docker" {
		t.Errorf("Unexpected build record: %+v", got)
	}
	if got.Status != BuildStatusRunning {
		t.Errorf("Expected status RUNNING, got %s", got.Status)
	}
}

func TestGetBuildNotFound(t *testing.T) {
	repo := setupTestRepository(t)

	_, err := repo.GetBuild(context.Background(), uuid.New())
	if !errors.Is(err, ErrBuildNotFound) {
		t.Fatalf("Expected ErrBuildNotFound, got %v", err)
	}
}

func TestUpdateBuild(t *testing.T) {
	repo := setupTestRepository(t)
	ctx := context.Background()

	build := &Build{ProjectName: "my-app", Engine: "buildx", Status: BuildStatusRunning, StartedAt: time.Now()}
	if err := repo.CreateBuild(ctx, build); err != nil {
		t.Fatalf("CreateBuild failed: %v", err)
	}

	now := time.Now()
	build.Status = BuildStatusSucceeded
	build.ImageID = "sha256:abc"
	build.CompletedAt = &now
	if err := repo.UpdateBuild(ctx, build); err != nil {
		t.Fatalf("UpdateBuild failed: %v", err)
	}

	got, err := repo.GetBuild(ctx, build.ID)
	if err != nil {
		t.Fatalf("GetBuild failed: %v", err)
	}
	if got.Status != BuildStatusSucceeded {
		t.Errorf("Expected status SUCCEEDED, got %s", got.Status)
	}
	if got.ImageID != "sha256:abc" {
		t.Errorf("Expected image id to be persisted, got %s", got.ImageID)
	}
	if got.CompletedAt == nil {
		t.Error("Expected completion timestamp to be persisted")
	}
}

func TestListBuilds(t *testing.T) {
	repo := setupTestRepository(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		build := &Build{
			ProjectName: fmt.Sprintf("app-%d", i),
			Engine:      "docker",
			Status:      BuildStatusSucceeded,
			StartedAt:   time.Now(),
			CreatedAt:   time.Now().Add(time.Duration(i) * time.Second),
		}
		if err := repo.CreateBuild(ctx, build); err != nil {
			t.Fatalf("CreateBuild failed: %v", err)
		}
	}

	builds, err := repo.ListBuilds(ctx, 3, 0)
	if err != nil {
		t.Fatalf("ListBuilds failed: %v", err)
	}
	if len(builds) != 3 {
		t.Fatalf("Expected 3 builds, got %d", len(builds))
	}
	if builds[0].ProjectName != "app-4" {
		t.Errorf("Expected newest build first, got %s", builds[0].ProjectName)
	}

	count, err := repo.CountBuilds(ctx)
	if err != nil {
		t.Fatalf("CountBuilds failed: %v", err)
	}
	if count != 5 {
		t.Errorf("Expected 5 builds counted, got %d", count)
	}
}
