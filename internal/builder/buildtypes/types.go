package buildtypes

// InputContext contains the fully-resolved configuration for a single image build.
// It is assembled once per run and treated as read-only afterwards, with one
// exception: ApplyMetadata may overwrite tags and labels exactly once when
// metadata generation is enabled.
type InputContext struct {
	DockerfilePath string
	ContextPath    string
	Tags           []string
	Labels         []string
	BuildArgs      map[string]string
	Platforms      []string
	Outputs        []string
	EngineOptions  map[string]string

	metadataApplied bool
}

// ApplyMetadata overwrites the tags and labels with values produced by a
// metadata generator. It reports whether the override was applied; a second
// call is a no-op so the context stays effectively immutable after the first.
func (c *InputContext) ApplyMetadata(tags, labels []string) bool {
	if c.metadataApplied {
		return false
	}
	c.Tags = tags
	c.Labels = labels
	c.metadataApplied = true
	return true
}

// DefaultContext carries per-run defaults owned by the orchestrating service.
// TempDir is a path only; it is created lazily by engine-specific logic and
// removed unconditionally at the end of the run.
type DefaultContext struct {
	TempDir     string
	ProjectName string
	ProjectRoot string
}

// BuildCommand is the executable form of a build: a binary name plus its
// ordered argument list. Produced by an engine, consumed exactly once by the
// command executor.
type BuildCommand struct {
	Command string
	Args    []string
}

// ExecResult captures the outcome of one external process invocation.
type ExecResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// BuildOutputs contains the values extracted from a completed build. Every
// field is optional: not every engine or configuration produces every output.
type BuildOutputs struct {
	ImageID  string
	Digest   string
	Metadata string
}
