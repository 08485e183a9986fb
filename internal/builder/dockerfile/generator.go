package dockerfile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/alvesdmateus/image-builder/internal/analyzer"
)

// ErrAlreadyExists is returned when the target directory already has a
// Dockerfile and overwrite was not requested
type ErrAlreadyExists struct {
	Path string
}

func (e ErrAlreadyExists) Error() string {
	return "Dockerfile already exists at " + e.Path
}

// Params feeds the language templates
type Params struct {
	Entrypoint string
	Port       int
}

// Generate renders a starter Dockerfile for the analyzed project
func Generate(analysis *analyzer.Analysis, port int) (string, error) {
	tmplText, ok := templates[analysis.Language]
	if !ok {
		return "", fmt.Errorf("no Dockerfile template for language %q", analysis.Language)
	}

	tmpl, err := template.New(string(analysis.Language)).Parse(tmplText)
	if err != nil {
		return "", fmt.Errorf("failed to parse Dockerfile template: %w", err)
	}

	if port == 0 {
		port = 8080
	}

	var sb strings.Builder
	if err := tmpl.Execute(&sb, Params{Entrypoint: analysis.Entrypoint, Port: port}); err != nil {
		return "", fmt.Errorf("failed to render Dockerfile template: %w", err)
	}
	return sb.String(), nil
}

// Write generates a Dockerfile for the project directory and writes it there.
// An existing Dockerfile is never overwritten unless force is set.
func Write(dir string, analysis *analyzer.Analysis, port int, force bool) (string, error) {
	path := filepath.Join(dir, "Dockerfile")
	if !force {
		if _, err := os.Stat(path); err == nil {
			return "", ErrAlreadyExists{Path: path}
		}
	}

	content, err := Generate(analysis, port)
	if err != nil {
		return "", err
	}

	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("failed to write Dockerfile: %w", err)
	}
	return path, nil
}
