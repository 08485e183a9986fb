package executil

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/alvesdmateus/image-builder/internal/builder/buildtypes"
)

// Runner executes external build commands, capturing output instead of
// inheriting the parent's streams. A non-zero exit code is not an error here;
// the caller decides what it means.
type Runner struct {
	// DryRun logs the command that would run and reports exit code 0
	// without spawning a process.
	DryRun bool
}

// NewRunner creates a command runner.
func NewRunner() *Runner {
	return &Runner{}
}

// Run executes the given command and returns its captured result. Each
// argument is expanded against the process environment immediately before
// execution, so values resolved late (secrets, dynamic tags) are substituted
// exactly once, at the last possible moment.
//
// The returned error covers spawn failures only (binary missing, context
// already cancelled); a process that started and exited is always reported
// through ExecResult, whatever its exit code.
func (r *Runner) Run(ctx context.Context, command buildtypes.BuildCommand) (buildtypes.ExecResult, error) {
	args := expandArgs(command.Args)
	display := command.Command + " " + shellQuoteArgs(args)

	if r.DryRun {
		log.Info().Str("command", display).Msg("Dry run, skipping execution")
		return buildtypes.ExecResult{ExitCode: 0}, nil
	}

	log.Info().Str("command", display).Msg("Executing build command")

	cmd := exec.CommandContext(ctx, command.Command, args...)
	cmd.Env = os.Environ()

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := buildtypes.ExecResult{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			log.Debug().
				Int("exitCode", result.ExitCode).
				Str("command", command.Command).
				Msg("Build command exited non-zero")
			return result, nil
		}
		return result, fmt.Errorf("failed to run command %q: %w", display, err)
	}

	return result, nil
}

// expandArgs substitutes ${VAR} and $VAR references in every argument from
// the current environment. Unset variables expand to the empty string.
func expandArgs(args []string) []string {
	expanded := make([]string, len(args))
	for i, a := range args {
		expanded[i] = os.Expand(a, os.Getenv)
	}
	return expanded
}

// LastLine returns the last non-empty line of captured process output, used
// to surface the most relevant part of a failing tool's stderr.
func LastLine(output string) string {
	lines := strings.Split(output, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}

// shellQuoteArgs returns a printable, shell-safe representation of args.
func shellQuoteArgs(args []string) string {
	quoted := make([]string, len(args))
	for i, a := range args {
		if a == "" || strings.ContainsAny(a, " \t\n\"'`$\\*?[]{}()<>|&;") {
			a = "'" + strings.ReplaceAll(a, "'", `'\''`) + "'"
		}
		quoted[i] = a
	}
	return strings.Join(quoted, " ")
}
