package scanner

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/alvesdmateus/image-builder/internal/builder/buildtypes"
	"github.com/alvesdmateus/image-builder/internal/executil"
)

// Severity levels, most severe first
const (
	SeverityCritical = "CRITICAL"
	SeverityHigh     = "HIGH"
	SeverityMedium   = "MEDIUM"
	SeverityLow      = "LOW"
)

// severityRank orders severities for gate comparisons
var severityRank = map[string]int{
	SeverityCritical: 4,
	SeverityHigh:     3,
	SeverityMedium:   2,
	SeverityLow:      1,
}

// Config controls the post-build vulnerability scan
type Config struct {
	// Enabled turns scanning on after a successful build.
	Enabled bool

	// FailOn is the minimum severity that fails the run. Findings below it
	// are reported but do not gate.
	FailOn string

	// IgnoreUnfixed skips findings without an available fix.
	IgnoreUnfixed bool

	// Timeout bounds the scan process.
	Timeout time.Duration
}

// DefaultConfig returns the default scan configuration: gate on critical
// findings only, skip unfixed ones.
func DefaultConfig() Config {
	return Config{
		FailOn:        SeverityCritical,
		IgnoreUnfixed: true,
		Timeout:       10 * time.Minute,
	}
}

// Finding is one vulnerability reported against the scanned image
type Finding struct {
	ID               string `json:"VulnerabilityID"`
	Package          string `json:"PkgName"`
	InstalledVersion string `json:"InstalledVersion"`
	FixedVersion     string `json:"FixedVersion,omitempty"`
	Severity         string `json:"Severity"`
	Title            string `json:"Title,omitempty"`
}

// Counts aggregates findings by severity
type Counts struct {
	Critical int
	High     int
	Medium   int
	Low      int
	Unknown  int
	Total    int
}

// Result is the outcome of one image scan
type Result struct {
	ImageRef string
	Counts   Counts
	Findings []Finding
	Passed   bool
	Reason   string
	Duration time.Duration
}

// report mirrors the JSON structure trivy emits with --format json
type report struct {
	Results []struct {
		Target          string    `json:"Target"`
		Vulnerabilities []Finding `json:"Vulnerabilities,omitempty"`
	} `json:"Results,omitempty"`
}

// ErrPolicyViolation is returned when the scan found vulnerabilities at or
// above the configured gate severity
type ErrPolicyViolation struct {
	ImageRef string
	Reason   string
}

func (e ErrPolicyViolation) Error() string {
	return "image " + e.ImageRef + " failed vulnerability gate: " + e.Reason
}

// Scanner runs trivy against a built image and gates on the findings
type Scanner struct {
	runner *executil.Runner
	cfg    Config
}

// New creates a scanner running trivy through the given runner
func New(runner *executil.Runner, cfg Config) *Scanner {
	return &Scanner{runner: runner, cfg: cfg}
}

// Scan runs trivy against the image and applies the severity gate. A gate
// violation is ErrPolicyViolation with the populated result still returned;
// any other error means the scan itself could not run.
func (s *Scanner) Scan(ctx context.Context, imageRef string) (*Result, error) {
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	args := []string{"image", "--format", "json", "--quiet", "--severity", severityFilter()}
	if s.cfg.IgnoreUnfixed {
		args = append(args, "--ignore-unfixed")
	}
	args = append(args, imageRef)

	log.Info().Str("image", imageRef).Msg("Scanning image for vulnerabilities")

	out, err := s.runner.Run(ctx, buildtypes.BuildCommand{Command: "trivy", Args: args})
	if err != nil {
		return nil, fmt.Errorf("failed to run trivy: %w", err)
	}
	if ctx.Err() != nil {
		return nil, fmt.Errorf("vulnerability scan timed out after %v", s.cfg.Timeout)
	}
	if out.ExitCode != 0 {
		return nil, fmt.Errorf("trivy failed: %s", executil.LastLine(out.Stderr))
	}

	result, err := parseReport(imageRef, out.Stdout)
	if err != nil {
		return nil, err
	}
	result.Duration = time.Since(start)

	result.Passed, result.Reason = s.gate(result.Counts)

	log.Info().
		Str("image", imageRef).
		Int("critical", result.Counts.Critical).
		Int("high", result.Counts.High).
		Int("total", result.Counts.Total).
		Bool("passed", result.Passed).
		Dur("duration", result.Duration).
		Msg("Vulnerability scan completed")

	if !result.Passed {
		return result, ErrPolicyViolation{ImageRef: imageRef, Reason: result.Reason}
	}
	return result, nil
}

// parseReport decodes trivy's JSON report into a flat result. An empty report
// (dry runs, images without findings) yields zero counts.
func parseReport(imageRef, raw string) (*Result, error) {
	result := &Result{ImageRef: imageRef, Passed: true}
	if strings.TrimSpace(raw) == "" {
		return result, nil
	}

	var rep report
	if err := json.Unmarshal([]byte(raw), &rep); err != nil {
		return nil, fmt.Errorf("failed to parse trivy report: %w", err)
	}

	for _, target := range rep.Results {
		for _, f := range target.Vulnerabilities {
			result.Findings = append(result.Findings, f)
			switch strings.ToUpper(f.Severity) {
			case SeverityCritical:
				result.Counts.Critical++
			case SeverityHigh:
				result.Counts.High++
			case SeverityMedium:
				result.Counts.Medium++
			case SeverityLow:
				result.Counts.Low++
			default:
				result.Counts.Unknown++
			}
		}
	}
	result.Counts.Total = len(result.Findings)

	return result, nil
}

// gate applies the configured minimum failing severity to the counts
func (s *Scanner) gate(counts Counts) (bool, string) {
	min, ok := severityRank[strings.ToUpper(s.cfg.FailOn)]
	if !ok {
		min = severityRank[SeverityCritical]
	}

	checks := []struct {
		severity string
		count    int
	}{
		{SeverityCritical, counts.Critical},
		{SeverityHigh, counts.High},
		{SeverityMedium, counts.Medium},
		{SeverityLow, counts.Low},
	}

	for _, c := range checks {
		if severityRank[c.severity] >= min && c.count > 0 {
			return false, fmt.Sprintf("%d %s vulnerabilities found", c.count, strings.ToLower(c.severity))
		}
	}
	return true, ""
}

// Summary returns a short human-readable digest of the result
func (r *Result) Summary() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "scan of %s: %d findings (critical %d, high %d, medium %d, low %d)",
		r.ImageRef, r.Counts.Total, r.Counts.Critical, r.Counts.High, r.Counts.Medium, r.Counts.Low)
	if !r.Passed {
		fmt.Fprintf(&sb, " - FAILED: %s", r.Reason)
	}
	return sb.String()
}

func severityFilter() string {
	return strings.Join([]string{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow}, ",")
}
