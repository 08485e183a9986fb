package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != "3000" {
		t.Errorf("Expected default port 3000, got %s", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 10*time.Second {
		t.Errorf("Expected default read timeout 10s, got %s", cfg.Server.ReadTimeout)
	}
	if cfg.Database.Host != "localhost" || cfg.Database.Port != 5432 {
		t.Errorf("Unexpected database defaults: %s:%d", cfg.Database.Host, cfg.Database.Port)
	}
	if cfg.Database.DBName != "image_builder" {
		t.Errorf("Expected default database image_builder, got %s", cfg.Database.DBName)
	}
	if cfg.Redis.Addr != "localhost:6379" {
		t.Errorf("Expected default redis addr, got %s", cfg.Redis.Addr)
	}
	if cfg.Builder.DefaultEngine != "docker" {
		t.Errorf("Expected default engine docker, got %s", cfg.Builder.DefaultEngine)
	}
	if cfg.Metadata.Generator != "git" {
		t.Errorf("Expected default metadata generator git, got %s", cfg.Metadata.Generator)
	}
	if cfg.Worker.Concurrency != 2 {
		t.Errorf("Expected default worker concurrency 2, got %d", cfg.Worker.Concurrency)
	}
}

func TestLoadEnvironmentOverride(t *testing.T) {
	t.Setenv("SERVER_PORT", "8080")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("Expected environment override 8080, got %s", cfg.Server.Port)
	}
}
