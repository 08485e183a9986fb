package metadata

import (
	"github.com/alvesdmateus/image-builder/internal/runcontext"
)

// Config controls metadata generation for a build run
type Config struct {
	// Enabled turns metadata generation on; when set, the generated tags and
	// labels replace whatever the caller supplied.
	Enabled bool

	// Generator names the generator implementation. Defaults to "git".
	Generator string

	// RulesFile optionally points to a yaml file with tag/label rules.
	RulesFile string
}

// Generator produces the tags and labels to apply to a build
type Generator interface {
	// GetTags returns the generated image tags, in order
	GetTags() []string

	// GetLabels returns the generated image labels as key=value pairs, in order
	GetLabels() []string
}

// constructor builds a generator from its config and run context
type constructor func(cfg Config, runCtx runcontext.Context) (Generator, error)

// registry of available generator implementations
var registry = map[string]constructor{
	"git": newGitGenerator,
}

// Resolve returns the configured metadata generator. Requesting a generator
// that is not registered is a configuration error: the dependency was asked
// for but is unavailable.
func Resolve(cfg Config, runCtx runcontext.Context) (Generator, error) {
	name := cfg.Generator
	if name == "" {
		name = "git"
	}

	ctor, ok := registry[name]
	if !ok {
		return nil, ErrMissingDependency{Generator: name}
	}
	return ctor(cfg, runCtx)
}

// ErrMissingDependency is returned when metadata generation was requested but
// the named generator is unavailable
type ErrMissingDependency struct {
	Generator string
}

func (e ErrMissingDependency) Error() string {
	return "metadata generator unavailable: " + e.Generator
}
