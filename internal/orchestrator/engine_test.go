package orchestrator

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/alvesdmateus/image-builder/internal/queue"
	"github.com/alvesdmateus/image-builder/internal/report"
)

func newTestEngine(defaults BuildDefaults) *Engine {
	return NewEngine(nil, nil, defaults, nil, zerolog.Nop())
}

func TestJobOptionsUsesMetadataDefaults(t *testing.T) {
	engine := newTestEngine(BuildDefaults{
		Engine:            "docker",
		MetadataGenerator: "git",
		MetadataRulesFile: "/etc/image-builder/rules.yaml",
	})

	opts := engine.jobOptions(&queue.BuildPayload{
		ProjectDir:       "/src/app",
		GenerateMetadata: true,
	})

	if opts.Metadata.Generator != "git" {
		t.Errorf("Expected configured generator default, got %q", opts.Metadata.Generator)
	}
	if opts.Metadata.RulesFile != "/etc/image-builder/rules.yaml" {
		t.Errorf("Expected configured rules file default, got %q", opts.Metadata.RulesFile)
	}
}

func TestJobOptionsPayloadOverridesDefaults(t *testing.T) {
	engine := newTestEngine(BuildDefaults{
		MetadataGenerator: "git",
		MetadataRulesFile: "/etc/image-builder/rules.yaml",
	})

	opts := engine.jobOptions(&queue.BuildPayload{
		ProjectDir:        "/src/app",
		GenerateMetadata:  true,
		MetadataGenerator: "custom",
		MetadataRulesFile: "/src/app/rules.yaml",
	})

	if opts.Metadata.Generator != "custom" {
		t.Errorf("Expected payload generator to win, got %q", opts.Metadata.Generator)
	}
	if opts.Metadata.RulesFile != "/src/app/rules.yaml" {
		t.Errorf("Expected payload rules file to win, got %q", opts.Metadata.RulesFile)
	}
}

func TestBuildReporterWritesOutputsFile(t *testing.T) {
	outputsFile := filepath.Join(t.TempDir(), "outputs.env")
	engine := newTestEngine(BuildDefaults{OutputsFile: outputsFile})

	reporter := engine.buildReporter()
	if err := reporter.Report(report.KeyImageID, "sha256:abc"); err != nil {
		t.Fatalf("Report failed: %v", err)
	}

	data, err := os.ReadFile(outputsFile)
	if err != nil {
		t.Fatalf("Expected outputs file to be written: %v", err)
	}
	if !strings.Contains(string(data), "imageid=sha256:abc") {
		t.Errorf("Expected imageid line in outputs file, got %q", string(data))
	}
}

func TestBuildReporterWithoutOutputsFile(t *testing.T) {
	engine := newTestEngine(BuildDefaults{})

	if _, ok := engine.buildReporter().(*report.LogReporter); !ok {
		t.Errorf("Expected plain log reporter when no outputs file is configured")
	}
}
