package state

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Build statuses
const (
	BuildStatusRunning   = "RUNNING"
	BuildStatusSucceeded = "SUCCEEDED"
	BuildStatusFailed    = "FAILED"
)

// Build records one image build run
type Build struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key"`
	ProjectName string    `gorm:"not null;index"`
	Engine      string    `gorm:"not null"`
	Status      string    `gorm:"not null"`
	Tags        string
	ImageID     string
	Digest      string
	Metadata    string
	Error       string
	StartedAt   time.Time
	CompletedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// AutoMigrate runs database migrations
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&Build{})
}
