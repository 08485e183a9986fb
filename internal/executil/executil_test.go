package executil

import (
	"context"
	"strings"
	"testing"

	"github.com/alvesdmateus/image-builder/internal/builder/buildtypes"
)

func TestRunCapturesOutput(t *testing.T) {
	runner := NewRunner()

	result, err := runner.Run(context.Background(), buildtypes.BuildCommand{
		Command: "sh",
		Args:    []string{"-c", "echo out; echo err 1>&2"},
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.ExitCode != 0 {
		t.Errorf("Expected exit code 0, got %d", result.ExitCode)
	}
	if strings.TrimSpace(result.Stdout) != "out" {
		t.Errorf("Expected stdout %q, got %q", "out", result.Stdout)
	}
	if strings.TrimSpace(result.Stderr) != "err" {
		t.Errorf("Expected stderr %q, got %q", "err", result.Stderr)
	}
}

func TestRunNonZeroExitIsNotAnError(t *testing.T) {
	runner := NewRunner()

	result, err := runner.Run(context.Background(), buildtypes.BuildCommand{
		Command: "sh",
		Args:    []string{"-c", "exit 137"},
	})
	if err != nil {
		t.Fatalf("Expected no error for non-zero exit, got %v", err)
	}

	if result.ExitCode != 137 {
		t.Errorf("Expected exit code 137, got %d", result.ExitCode)
	}
}

func TestRunMissingBinary(t *testing.T) {
	runner := NewRunner()

	_, err := runner.Run(context.Background(), buildtypes.BuildCommand{
		Command: "definitely-not-a-real-binary-xyz",
	})
	if err == nil {
		t.Fatal("Expected error for missing binary")
	}
}

func TestRunExpandsArguments(t *testing.T) {
	t.Setenv("EXECUTIL_TEST_TAG", "v1.2.3")

	runner := NewRunner()
	result, err := runner.Run(context.Background(), buildtypes.BuildCommand{
		Command: "echo",
		Args:    []string{"ref-${EXECUTIL_TEST_TAG}"},
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if strings.TrimSpace(result.Stdout) != "ref-v1.2.3" {
		t.Errorf("Expected expanded argument, got %q", result.Stdout)
	}
}

func TestDryRunSkipsExecution(t *testing.T) {
	runner := NewRunner()
	runner.DryRun = true

	result, err := runner.Run(context.Background(), buildtypes.BuildCommand{
		Command: "definitely-not-a-real-binary-xyz",
		Args:    []string{"build"},
	})
	if err != nil {
		t.Fatalf("Dry run should not fail: %v", err)
	}
	if result.ExitCode != 0 {
		t.Errorf("Expected exit code 0 for dry run, got %d", result.ExitCode)
	}
}

func TestLastLine(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty", "", ""},
		{"single line", "error: foo\n", "error: foo"},
		{"multiple lines", "step one\nstep two\nfailed: no space left on device\n", "failed: no space left on device"},
		{"trailing blank lines", "something broke\n\n\n", "something broke"},
		{"whitespace only", "   \n\t\n", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LastLine(tt.input); got != tt.expected {
				t.Errorf("LastLine(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}
