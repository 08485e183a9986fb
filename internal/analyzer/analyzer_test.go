package analyzer

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte("x\n"), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestAnalyzeLanguages(t *testing.T) {
	tests := []struct {
		name  string
		files []string
		want  Language
	}{
		{"go project", []string{"go.mod", "main.go"}, LanguageGo},
		{"node project", []string{"package.json"}, LanguageNode},
		{"python requirements", []string{"requirements.txt"}, LanguagePython},
		{"python pyproject", []string{"pyproject.toml"}, LanguagePython},
		{"java maven", []string{"pom.xml"}, LanguageJava},
		{"rust", []string{"Cargo.toml"}, LanguageRust},
		{"go wins over node", []string{"go.mod", "package.json"}, LanguageGo},
		{"nothing detected", []string{"README.md"}, LanguageUnknown},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			for _, f := range tc.files {
				writeFile(t, dir, f)
			}

			analysis, err := Analyze(dir)
			if err != nil {
				t.Fatalf("Analyze failed: %v", err)
			}
			if analysis.Language != tc.want {
				t.Errorf("Expected language %s, got %s", tc.want, analysis.Language)
			}
		})
	}
}

func TestAnalyzeDetectsDockerfile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "Dockerfile")
	writeFile(t, dir, "go.mod")

	analysis, err := Analyze(dir)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if !analysis.HasDockerfile {
		t.Error("Expected Dockerfile to be detected")
	}
}

func TestAnalyzeNodeEntrypoint(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "package.json")
	writeFile(t, dir, "server.js")

	analysis, err := Analyze(dir)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if analysis.Entrypoint != "server.js" {
		t.Errorf("Expected server.js entrypoint, got %s", analysis.Entrypoint)
	}
}

func TestAnalyzeMissingDirectory(t *testing.T) {
	if _, err := Analyze(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Fatal("Expected error for missing directory")
	}
}
