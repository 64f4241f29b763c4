// Package scan invokes the vulnerability scanner collaborator and classifies
// its findings by severity. The core never interprets detection logic; it only
// reads the severity-classified finding list the scanner reports.
package scan

import (
	"context"
	"encoding/json"
	"strings"

	ferrors "github.com/input-output-hk/catalyst-forge-pipeline/errors"
	"github.com/input-output-hk/catalyst-forge-pipeline/executor"
)

// Severity levels reported by the scanner, lowest to highest.
const (
	SeverityUnknown  = "UNKNOWN"
	SeverityLow      = "LOW"
	SeverityMedium   = "MEDIUM"
	SeverityHigh     = "HIGH"
	SeverityCritical = "CRITICAL"
)

// severityRank orders severities for threshold comparison.
var severityRank = map[string]int{
	SeverityUnknown:  0,
	SeverityLow:      1,
	SeverityMedium:   2,
	SeverityHigh:     3,
	SeverityCritical: 4,
}

// Finding is one vulnerability reported by the scanner.
type Finding struct {
	// ID is the vulnerability identifier (e.g., "CVE-2024-1234").
	ID string `json:"VulnerabilityID"`

	// Severity is the scanner-assigned severity level.
	Severity string `json:"Severity"`

	// Package is the affected package, when reported.
	Package string `json:"PkgName,omitempty"`
}

// Report is the parsed scanner output for one artifact reference.
type Report struct {
	// Findings is the full severity-classified finding list.
	Findings []Finding
}

// SeverityCounts aggregates the findings by severity level.
func (r *Report) SeverityCounts() map[string]int {
	if len(r.Findings) == 0 {
		return nil
	}
	counts := make(map[string]int)
	for _, f := range r.Findings {
		counts[normalizeSeverity(f.Severity)]++
	}
	return counts
}

// CountAtOrAbove returns how many findings sit at or above the given severity.
// Unrecognized or empty thresholds default to HIGH.
func (r *Report) CountAtOrAbove(severity string) int {
	threshold, ok := severityRank[strings.ToUpper(strings.TrimSpace(severity))]
	if !ok {
		threshold = severityRank[SeverityHigh]
	}
	n := 0
	for _, f := range r.Findings {
		if severityRank[normalizeSeverity(f.Severity)] >= threshold {
			n++
		}
	}
	return n
}

// Scanner invokes the scanning collaborator against a published artifact
// reference and returns its classified findings.
type Scanner interface {
	Scan(ctx context.Context, artifactRef string) (*Report, error)
}

// CommandScanner runs the scanner as an opaque command (trivy-compatible JSON
// output). The artifact reference is appended as the final argument.
type CommandScanner struct {
	exec    executor.Executor
	command []string
}

// NewCommandScanner creates a scanner backed by the given command.
func NewCommandScanner(exec executor.Executor, command []string) *CommandScanner {
	return &CommandScanner{exec: exec, command: command}
}

// Scan implements Scanner.
func (s *CommandScanner) Scan(ctx context.Context, artifactRef string) (*Report, error) {
	const op = "scan.invoke"

	if len(s.command) == 0 {
		return nil, ferrors.New(op, ferrors.CodeInvalidConfig, "scanner command not configured")
	}

	command := append(append([]string{}, s.command...), artifactRef)
	result, err := s.exec.Execute(ctx, command)
	if err != nil {
		return nil, err
	}
	if result.ExitCode != 0 {
		return nil, ferrors.New(op, ferrors.CodeExecutionFailed,
			"scanner exited with status "+strings.TrimSpace(result.Stderr))
	}

	return ParseReport([]byte(result.Stdout))
}

// trivyReport mirrors the scanner's JSON output shape.
type trivyReport struct {
	Results []struct {
		Vulnerabilities []Finding `json:"Vulnerabilities"`
	} `json:"Results"`
}

// ParseReport decodes scanner JSON output into a Report.
func ParseReport(data []byte) (*Report, error) {
	var raw trivyReport
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, ferrors.Wrap("scan.parse", ferrors.CodeInvalidInput, err)
	}

	report := &Report{}
	for _, res := range raw.Results {
		report.Findings = append(report.Findings, res.Vulnerabilities...)
	}
	return report, nil
}

func normalizeSeverity(s string) string {
	upper := strings.ToUpper(strings.TrimSpace(s))
	if _, ok := severityRank[upper]; !ok {
		return SeverityUnknown
	}
	return upper
}
