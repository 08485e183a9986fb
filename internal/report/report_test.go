package report

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestFileReporterAppendsLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "outputs")
	reporter := NewFileReporter(path)

	if err := reporter.Report(KeyImageID, "sha256:abc"); err != nil {
		t.Fatalf("Report failed: %v", err)
	}
	if err := reporter.Report(KeyDigest, "sha256:def"); err != nil {
		t.Fatalf("Report failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	want := "imageid=sha256:abc\ndigest=sha256:def\n"
	if string(data) != want {
		t.Errorf("Unexpected outputs file content:\n got  %q\n want %q", string(data), want)
	}
}

func TestFileReporterUnwritablePath(t *testing.T) {
	reporter := NewFileReporter(filepath.Join(t.TempDir(), "missing", "outputs"))

	if err := reporter.Report(KeyImageID, "sha256:abc"); err == nil {
		t.Fatal("Expected error for unwritable outputs path")
	}
}

type recordingReporter struct {
	pairs map[string]string
	err   error
}

func (r *recordingReporter) Report(key, value string) error {
	if r.err != nil {
		return r.err
	}
	if r.pairs == nil {
		r.pairs = make(map[string]string)
	}
	r.pairs[key] = value
	return nil
}

func TestMultiReporterFansOut(t *testing.T) {
	first := &recordingReporter{}
	second := &recordingReporter{}

	multi := NewMultiReporter(first, second)
	if err := multi.Report(KeyDigest, "sha256:abc"); err != nil {
		t.Fatalf("Report failed: %v", err)
	}

	if first.pairs[KeyDigest] != "sha256:abc" || second.pairs[KeyDigest] != "sha256:abc" {
		t.Error("Expected the output to reach every reporter")
	}
}

func TestMultiReporterPropagatesError(t *testing.T) {
	boom := errors.New("boom")
	multi := NewMultiReporter(&recordingReporter{err: boom})

	if err := multi.Report(KeyImageID, "sha256:abc"); !errors.Is(err, boom) {
		t.Fatalf("Expected underlying error, got %v", err)
	}
}
