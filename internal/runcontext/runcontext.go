package runcontext

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Context describes the project a build runs against. It is used only to
// compute defaults: the default Dockerfile location and the environment
// variable prefix for per-project overrides.
type Context struct {
	ProjectName string
	ProjectRoot string
}

// markers that identify a project root when walking up from the working
// directory.
var rootMarkers = []string{".git", "go.mod", "Dockerfile"}

// Load resolves the run context starting from dir (the current working
// directory when dir is empty). The project root is the nearest ancestor
// containing a root marker; the project name is that directory's base name.
func Load(dir string) (Context, error) {
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return Context{}, fmt.Errorf("failed to determine working directory: %w", err)
		}
		dir = wd
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return Context{}, fmt.Errorf("failed to resolve %q: %w", dir, err)
	}

	root := findRoot(abs)
	if root == "" {
		// No marker found; treat the starting directory itself as the root.
		root = abs
	}

	return Context{
		ProjectName: filepath.Base(root),
		ProjectRoot: root,
	}, nil
}

// DefaultDockerfile returns the conventional Dockerfile path for the project.
func (c Context) DefaultDockerfile() string {
	return filepath.Join(c.ProjectRoot, "Dockerfile")
}

// EnvKey builds a project-scoped environment variable name, e.g. the engine
// override for project "my-app" is MY_APP_<suffix>. The project name is
// normalized to constant case so the key is stable regardless of how the
// directory is spelled.
func (c Context) EnvKey(suffix string) string {
	return NormalizeEnvName(c.ProjectName) + "_" + suffix
}

// NormalizeEnvName converts a project name into an environment-variable-safe
// constant-case identifier: every non-alphanumeric rune becomes an underscore
// and letters are upper-cased.
func NormalizeEnvName(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r - ('a' - 'A'))
		case (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}

func findRoot(start string) string {
	dir := start
	for {
		for _, marker := range rootMarkers {
			if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
				return dir
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}
