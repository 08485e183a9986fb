package metadata

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Rules describes the tag and label templates a generator expands. Templates
// may reference {project}, {sha}, {short_sha} and {branch}.
type Rules struct {
	Tags   []string `yaml:"tags"`
	Labels []string `yaml:"labels"`
}

// defaultRules applies when no rules file is configured: one immutable tag
// per commit and a moving tag for the current branch.
var defaultRules = Rules{
	Tags: []string{
		"{project}:{short_sha}",
		"{project}:{branch}",
	},
}

// loadRules reads a yaml rules file, falling back to the defaults when no
// path is given.
func loadRules(path string) (Rules, error) {
	if path == "" {
		return defaultRules, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, fmt.Errorf("failed to read metadata rules file: %w", err)
	}

	var rules Rules
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return Rules{}, fmt.Errorf("failed to parse metadata rules file %s: %w", path, err)
	}

	if len(rules.Tags) == 0 {
		rules.Tags = defaultRules.Tags
	}
	return rules, nil
}
