package analyzer

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
)

// Language identifies a detected project language
type Language string

const (
	LanguageGo      Language = "go"
	LanguageNode    Language = "node"
	LanguagePython  Language = "python"
	LanguageJava    Language = "java"
	LanguageRust    Language = "rust"
	LanguageUnknown Language = "unknown"
)

// Analysis is the result of inspecting a project directory
type Analysis struct {
	Language      Language
	HasDockerfile bool

	// Entrypoint is the language-specific entry hint used by the Dockerfile
	// templates (main module for node/python, empty elsewhere).
	Entrypoint string
}

// markers maps detection files to languages, checked in order so the more
// specific project types win
var markers = []struct {
	file     string
	language Language
}{
	{"go.mod", LanguageGo},
	{"Cargo.toml", LanguageRust},
	{"pom.xml", LanguageJava},
	{"build.gradle", LanguageJava},
	{"package.json", LanguageNode},
	{"requirements.txt", LanguagePython},
	{"pyproject.toml", LanguagePython},
	{"setup.py", LanguagePython},
}

// Analyze inspects the project directory and detects its language from the
// build files present
func Analyze(dir string) (*Analysis, error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("project directory %q not found", dir)
	}

	analysis := &Analysis{Language: LanguageUnknown}

	if _, err := os.Stat(filepath.Join(dir, "Dockerfile")); err == nil {
		analysis.HasDockerfile = true
	}

	for _, m := range markers {
		if _, err := os.Stat(filepath.Join(dir, m.file)); err == nil {
			analysis.Language = m.language
			break
		}
	}

	switch analysis.Language {
	case LanguageNode:
		analysis.Entrypoint = nodeEntrypoint(dir)
	case LanguagePython:
		analysis.Entrypoint = pythonEntrypoint(dir)
	}

	log.Debug().
		Str("dir", dir).
		Str("language", string(analysis.Language)).
		Bool("hasDockerfile", analysis.HasDockerfile).
		Msg("Project analyzed")

	return analysis, nil
}

// nodeEntrypoint picks the conventional node entry file that exists
func nodeEntrypoint(dir string) string {
	for _, candidate := range []string{"server.js", "index.js", "app.js"} {
		if _, err := os.Stat(filepath.Join(dir, candidate)); err == nil {
			return candidate
		}
	}
	return "index.js"
}

// pythonEntrypoint picks the conventional python entry file that exists
func pythonEntrypoint(dir string) string {
	for _, candidate := range []string{"main.py", "app.py", "server.py"} {
		if _, err := os.Stat(filepath.Join(dir, candidate)); err == nil {
			return candidate
		}
	}
	return "main.py"
}
