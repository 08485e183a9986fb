package metadata

import (
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/rs/zerolog/log"

	"github.com/alvesdmateus/image-builder/internal/runcontext"
)

// gitGenerator derives tags and labels from the project's git state
type gitGenerator struct {
	tags   []string
	labels []string
}

// newGitGenerator opens the project repository and computes tags and labels
// up front, so GetTags and GetLabels are pure reads.
func newGitGenerator(cfg Config, runCtx runcontext.Context) (Generator, error) {
	repo, err := git.PlainOpenWithOptions(runCtx.ProjectRoot, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open git repository at %s: %w", runCtx.ProjectRoot, err)
	}

	head, err := repo.Head()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve git HEAD: %w", err)
	}

	sha := head.Hash().String()
	branch := ""
	if head.Name().IsBranch() {
		branch = head.Name().Short()
	}

	source := ""
	if remote, err := repo.Remote("origin"); err == nil && len(remote.Config().URLs) > 0 {
		source = remote.Config().URLs[0]
	}

	rules, err := loadRules(cfg.RulesFile)
	if err != nil {
		return nil, err
	}

	vars := templateVars(runCtx.ProjectName, sha, branch)

	g := &gitGenerator{}
	for _, tmpl := range rules.Tags {
		if tag := expandTemplate(tmpl, vars); tag != "" {
			g.tags = append(g.tags, tag)
		}
	}
	for _, tmpl := range rules.Labels {
		if label := expandTemplate(tmpl, vars); label != "" {
			g.labels = append(g.labels, label)
		}
	}

	// Provenance labels derived directly from git state.
	g.labels = appendLabel(g.labels, "org.opencontainers.image.revision", sha)
	g.labels = appendLabel(g.labels, "org.opencontainers.image.source", source)
	g.labels = appendLabel(g.labels, "org.opencontainers.image.ref.name", branch)

	log.Debug().
		Str("sha", sha).
		Str("branch", branch).
		Int("tags", len(g.tags)).
		Msg("Generated build metadata from git")

	return g, nil
}

// GetTags returns the generated tags
func (g *gitGenerator) GetTags() []string {
	return g.tags
}

// GetLabels returns the generated labels
func (g *gitGenerator) GetLabels() []string {
	return g.labels
}

// templateVars builds the placeholder substitutions available to rule
// templates.
func templateVars(project, sha, branch string) map[string]string {
	shortSHA := sha
	if len(shortSHA) > 12 {
		shortSHA = shortSHA[:12]
	}

	return map[string]string{
		"project":   strings.ToLower(project),
		"sha":       sha,
		"short_sha": shortSHA,
		"branch":    sanitizeRef(branch),
	}
}

// expandTemplate substitutes {name} placeholders. A template referencing an
// empty variable expands to empty and is dropped by the caller, so branch
// rules vanish on a detached HEAD instead of producing broken tags.
func expandTemplate(tmpl string, vars map[string]string) string {
	out := tmpl
	for name, value := range vars {
		placeholder := "{" + name + "}"
		if strings.Contains(out, placeholder) && value == "" {
			return ""
		}
		out = strings.ReplaceAll(out, placeholder, value)
	}
	return out
}

// sanitizeRef makes a git ref name safe for use inside an image tag
func sanitizeRef(ref string) string {
	ref = strings.ToLower(ref)
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		default:
			return '-'
		}
	}, ref)
}

func appendLabel(labels []string, key, value string) []string {
	if value == "" {
		return labels
	}
	return append(labels, key+"="+value)
}
