package scanner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alvesdmateus/image-builder/internal/executil"
)

const sampleReport = `{
  "SchemaVersion": 2,
  "Results": [
    {
      "Target": "app:latest (alpine 3.19)",
      "Vulnerabilities": [
        {"VulnerabilityID": "CVE-2024-0001", "PkgName": "openssl", "InstalledVersion": "3.1.0", "FixedVersion": "3.1.1", "Severity": "CRITICAL", "Title": "buffer overflow"},
        {"VulnerabilityID": "CVE-2024-0002", "PkgName": "zlib", "InstalledVersion": "1.2.13", "Severity": "HIGH"},
        {"VulnerabilityID": "CVE-2024-0003", "PkgName": "busybox", "InstalledVersion": "1.36.0", "Severity": "LOW"}
      ]
    }
  ]
}`

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.False(t, cfg.Enabled)
	assert.Equal(t, SeverityCritical, cfg.FailOn)
	assert.True(t, cfg.IgnoreUnfixed)
	assert.Equal(t, 10*time.Minute, cfg.Timeout)
}

func TestParseReport(t *testing.T) {
	result, err := parseReport("app:latest", sampleReport)
	require.NoError(t, err)

	assert.Equal(t, 3, result.Counts.Total)
	assert.Equal(t, 1, result.Counts.Critical)
	assert.Equal(t, 1, result.Counts.High)
	assert.Equal(t, 1, result.Counts.Low)
	assert.Len(t, result.Findings, 3)
	assert.Equal(t, "CVE-2024-0001", result.Findings[0].ID)
}

func TestParseReportEmpty(t *testing.T) {
	result, err := parseReport("app:latest", "")
	require.NoError(t, err)

	assert.True(t, result.Passed)
	assert.Zero(t, result.Counts.Total)
}

func TestParseReportMalformed(t *testing.T) {
	_, err := parseReport("app:latest", "not json")
	assert.Error(t, err)
}

func TestGate(t *testing.T) {
	tests := []struct {
		name   string
		failOn string
		counts Counts
		pass   bool
	}{
		{"critical gate passes without criticals", SeverityCritical, Counts{High: 5, Medium: 3}, true},
		{"critical gate fails on criticals", SeverityCritical, Counts{Critical: 1}, false},
		{"high gate fails on highs", SeverityHigh, Counts{High: 2}, false},
		{"high gate fails on criticals too", SeverityHigh, Counts{Critical: 1}, false},
		{"high gate ignores mediums", SeverityHigh, Counts{Medium: 10}, true},
		{"low gate fails on anything", SeverityLow, Counts{Low: 1}, false},
		{"unknown gate severity defaults to critical", "bogus", Counts{High: 3}, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := New(executil.NewRunner(), Config{FailOn: tc.failOn})
			pass, reason := s.gate(tc.counts)
			assert.Equal(t, tc.pass, pass)
			if !tc.pass {
				assert.NotEmpty(t, reason)
			}
		})
	}
}

func TestSummary(t *testing.T) {
	result, err := parseReport("app:latest", sampleReport)
	require.NoError(t, err)
	result.Passed = false
	result.Reason = "1 critical vulnerabilities found"

	summary := result.Summary()
	assert.Contains(t, summary, "app:latest")
	assert.Contains(t, summary, "3 findings")
	assert.Contains(t, summary, "FAILED")
}
