// Package report renders pipeline runs into change request comment bodies.
// Rendering is pure: it reads a completed run and produces markdown, with no
// knowledge of where the text ends up.
package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/input-output-hk/catalyst-forge-pipeline/domain"
)

// severityOrder lists scan severities from highest to lowest for stable
// rendering of severity counts.
var severityOrder = []string{"CRITICAL", "HIGH", "MEDIUM", "LOW", "UNKNOWN"}

// RenderRun produces the comment body for one completed run.
func RenderRun(run *domain.PipelineRun) string {
	var b strings.Builder

	fmt.Fprintf(&b, "### %s pipeline: %s\n\n", run.Pipeline, statusBadge(run.Status))
	fmt.Fprintf(&b, "Ref `%s` at commit `%s`.\n\n", run.RefName, run.CommitSHA)

	if run.Status == domain.PipelineStatusFailed {
		b.WriteString(failureSummary(run))
		b.WriteString("\n\n")
	}

	b.WriteString("| Stage | Status | Detail |\n")
	b.WriteString("| --- | --- | --- |\n")
	for _, result := range run.Results {
		fmt.Fprintf(&b, "| %s | %s | %s |\n",
			result.StageName, result.Status, stageDetail(result))
	}

	if len(run.Tags) > 0 {
		b.WriteString("\nPublished tags:\n")
		for _, tag := range run.Tags {
			fmt.Fprintf(&b, "- `%s`\n", tag.Reference())
		}
	}

	if run.URL != "" {
		fmt.Fprintf(&b, "\n[View run](%s)\n", run.URL)
	}

	return b.String()
}

func statusBadge(status domain.PipelineStatus) string {
	switch status {
	case domain.PipelineStatusSuccess:
		return "✅ SUCCESS"
	case domain.PipelineStatusFailed:
		return "❌ FAILED"
	default:
		return status.String()
	}
}

// failureSummary phrases the failure by its class: an infrastructure failure
// means the pipeline could not finish its work and says nothing about the
// change; an assertion failure means the change did not meet a check.
func failureSummary(run *domain.PipelineRun) string {
	for _, result := range run.Results {
		if result.Status != domain.StageStatusFailed {
			continue
		}
		if result.Payload.FailureClass == domain.FailureInfrastructure {
			return fmt.Sprintf(
				"The pipeline could not complete: stage `%s` hit an infrastructure problem. "+
					"This is not a verdict on the change; re-run once the problem is resolved.",
				result.StageName)
		}
	}
	return "One or more checks failed. See the stage breakdown below."
}

// stageDetail summarizes one stage result in table-cell form.
func stageDetail(result domain.StageResult) string {
	p := result.Payload

	var parts []string
	if p.Coverage != nil {
		parts = append(parts, fmt.Sprintf("coverage %.1f%%", *p.Coverage))
	}
	if len(p.Tags) > 0 {
		names := make([]string, len(p.Tags))
		for i, tag := range p.Tags {
			names[i] = tag.Tag
		}
		parts = append(parts, fmt.Sprintf("published %s", strings.Join(names, ", ")))
	}
	if len(p.SeverityCounts) > 0 {
		parts = append(parts, renderSeverityCounts(p.SeverityCounts))
	}
	if p.Check != nil {
		parts = append(parts, renderCheck(p.Check))
	}
	if p.Detail != "" {
		parts = append(parts, escapeCell(p.Detail))
	}
	return strings.Join(parts, "; ")
}

func renderSeverityCounts(counts map[string]int) string {
	var parts []string
	for _, severity := range severityOrder {
		if n, ok := counts[severity]; ok {
			parts = append(parts, fmt.Sprintf("%s=%d", severity, n))
		}
	}

	// Anything the scanner reports outside the known levels still shows up.
	var extra []string
	for severity := range counts {
		if !knownSeverity(severity) {
			extra = append(extra, severity)
		}
	}
	sort.Strings(extra)
	for _, severity := range extra {
		parts = append(parts, fmt.Sprintf("%s=%d", severity, counts[severity]))
	}

	return "findings: " + strings.Join(parts, " ")
}

func knownSeverity(severity string) bool {
	for _, known := range severityOrder {
		if severity == known {
			return true
		}
	}
	return false
}

func renderCheck(check *domain.DeploymentCheck) string {
	if check.Pass {
		return fmt.Sprintf("verified `%s`", check.PulledTag)
	}
	return fmt.Sprintf("verification of `%s` failed", check.PulledTag)
}

// escapeCell keeps free-form detail text from breaking the table.
func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "|", "\\|")
}
