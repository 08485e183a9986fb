package report

import (
	"fmt"
	"os"
	"sync"

	"github.com/rs/zerolog/log"
)

// Output keys produced by a build run.
const (
	KeyImageID  = "imageid"
	KeyDigest   = "digest"
	KeyMetadata = "metadata"
)

// Reporter accepts build output key/value pairs. Callers report each key at
// most once per run, and only when the value is present.
type Reporter interface {
	Report(key, value string) error
}

// LogReporter reports build outputs through the structured log
type LogReporter struct{}

// NewLogReporter creates a log-backed reporter
func NewLogReporter() *LogReporter {
	return &LogReporter{}
}

// Report logs the output pair
func (r *LogReporter) Report(key, value string) error {
	log.Info().Str("key", key).Str("value", value).Msg("Build output")
	return nil
}

// FileReporter appends build outputs to a file as key=value lines, the format
// CI systems consume as step outputs.
type FileReporter struct {
	path string
	mu   sync.Mutex
}

// NewFileReporter creates a file-backed reporter writing to the given path
func NewFileReporter(path string) *FileReporter {
	return &FileReporter{path: path}
}

// Report appends one key=value line to the outputs file
func (r *FileReporter) Report(key, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, err := os.OpenFile(r.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open outputs file: %w", err)
	}
	defer f.Close()

	if _, err := fmt.Fprintf(f, "%s=%s\n", key, value); err != nil {
		return fmt.Errorf("failed to write output %q: %w", key, err)
	}
	return nil
}

// MultiReporter fans each output out to several reporters
type MultiReporter struct {
	reporters []Reporter
}

// NewMultiReporter creates a reporter that forwards to all given reporters
func NewMultiReporter(reporters ...Reporter) *MultiReporter {
	return &MultiReporter{reporters: reporters}
}

// Report forwards the output pair to every underlying reporter
func (r *MultiReporter) Report(key, value string) error {
	for _, rep := range r.reporters {
		if err := rep.Report(key, value); err != nil {
			return err
		}
	}
	return nil
}
