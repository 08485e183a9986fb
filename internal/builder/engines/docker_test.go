package engines

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/alvesdmateus/image-builder/internal/builder/buildtypes"
)

func testInputs() *buildtypes.InputContext {
	return &buildtypes.InputContext{
		DockerfilePath: "/src/app/Dockerfile",
		ContextPath:    "/src/app",
		Tags:           []string{"app:abc123", "app:latest"},
		Labels:         []string{"org.opencontainers.image.revision=abc123"},
		BuildArgs:      map[string]string{"VERSION": "1.0", "COMMIT": "abc123"},
	}
}

func testDefaults(tempDir string) *buildtypes.DefaultContext {
	return &buildtypes.DefaultContext{
		TempDir:     tempDir,
		ProjectName: "app",
		ProjectRoot: "/src/app",
	}
}

func TestDockerBuildArgs(t *testing.T) {
	tempDir := filepath.Join(t.TempDir(), "run")
	engine := NewDockerEngine()
	args := engine.BuildArgs(testInputs(), testDefaults(tempDir))

	expected := []string{
		"build", "--progress=plain",
		"-f", "/src/app/Dockerfile",
		"-t", "app:abc123",
		"-t", "app:latest",
		"--label", "org.opencontainers.image.revision=abc123",
		"--build-arg", "COMMIT=abc123",
		"--build-arg", "VERSION=1.0",
		"--iidfile", filepath.Join(tempDir, "iidfile"),
		"/src/app",
	}

	if !reflect.DeepEqual(args, expected) {
		t.Errorf("BuildArgs mismatch:\n got  %v\n want %v", args, expected)
	}
}

func TestDockerBuildArgsDeterministic(t *testing.T) {
	engine := NewDockerEngine()
	inputs := testInputs()
	defaults := testDefaults(filepath.Join(t.TempDir(), "run"))

	first := engine.BuildArgs(inputs, defaults)
	for i := 0; i < 10; i++ {
		if got := engine.BuildArgs(inputs, defaults); !reflect.DeepEqual(got, first) {
			t.Fatalf("BuildArgs not deterministic:\n got  %v\n want %v", got, first)
		}
	}
}

func TestDockerBuildArgsEngineOptions(t *testing.T) {
	engine := NewDockerEngine()
	inputs := testInputs()
	inputs.EngineOptions = map[string]string{
		"no-cache": "",
		"target":   "release",
	}

	args := engine.BuildArgs(inputs, testDefaults(filepath.Join(t.TempDir(), "run")))

	assertContainsSequence(t, args, "--no-cache")
	assertContainsSequence(t, args, "--target=release")
}

// The docker CLI writes the iid file without creating parent directories, so
// BuildArgs must have created the temp directory by the time the build runs.
func TestDockerArtifactRoundTrip(t *testing.T) {
	tempDir := filepath.Join(t.TempDir(), "run")
	engine := NewDockerEngine()

	args := engine.BuildArgs(testInputs(), testDefaults(tempDir))

	iidPath := ""
	for i, a := range args {
		if a == "--iidfile" && i+1 < len(args) {
			iidPath = args[i+1]
		}
	}
	if iidPath == "" {
		t.Fatalf("Expected --iidfile in args %v", args)
	}

	if err := os.WriteFile(iidPath, []byte("sha256:abc\n"), 0644); err != nil {
		t.Fatalf("Image id file must be writable after BuildArgs: %v", err)
	}

	if err := engine.Finalize(context.Background(), testInputs(), testDefaults(tempDir)); err != nil {
		t.Fatalf("Finalize failed: %v", err)
	}
	if engine.ImageID() != "sha256:abc" {
		t.Errorf("Expected image id sha256:abc, got %s", engine.ImageID())
	}
}

func TestDockerCommand(t *testing.T) {
	engine := NewDockerEngine()

	cmd := engine.Command([]string{"build", "."})
	if cmd.Command != "docker" {
		t.Errorf("Expected docker binary, got %s", cmd.Command)
	}
	if !reflect.DeepEqual(cmd.Args, []string{"build", "."}) {
		t.Errorf("Expected args preserved, got %v", cmd.Args)
	}
}

func TestDockerFinalizeReadsImageID(t *testing.T) {
	tempDir := t.TempDir()
	iid := "sha256:0123456789abcdef"
	if err := os.WriteFile(filepath.Join(tempDir, iidFileName), []byte(iid+"\n"), 0644); err != nil {
		t.Fatal(err)
	}

	engine := NewDockerEngine()
	if err := engine.Finalize(context.Background(), testInputs(), testDefaults(tempDir)); err != nil {
		t.Fatalf("Finalize failed: %v", err)
	}

	if engine.ImageID() != iid {
		t.Errorf("Expected image id %s, got %s", iid, engine.ImageID())
	}
	if engine.Metadata() != "" {
		t.Errorf("Expected no metadata for docker engine, got %q", engine.Metadata())
	}
	if engine.Digest(engine.Metadata()) != "" {
		t.Errorf("Expected no digest for docker engine")
	}
}

func TestDockerFinalizeMissingIIDFile(t *testing.T) {
	engine := NewDockerEngine()

	err := engine.Finalize(context.Background(), testInputs(), testDefaults(t.TempDir()))
	if err == nil {
		t.Fatal("Expected error for missing iid file")
	}

	var finalizeErr ErrEngineFinalize
	if !errors.As(err, &finalizeErr) {
		t.Fatalf("Expected ErrEngineFinalize, got %T", err)
	}
}

// assertContainsSequence fails unless the argument is present in args
func assertContainsSequence(t *testing.T, args []string, want string) {
	t.Helper()
	for _, a := range args {
		if a == want {
			return
		}
	}
	t.Errorf("Expected %q in args %v", want, args)
}
