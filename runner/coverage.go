package runner

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/input-output-hk/catalyst-forge-pipeline/domain"
	"github.com/input-output-hk/catalyst-forge-pipeline/executor"
)

// percentPattern matches a percentage figure anywhere in the tool's output,
// e.g. "coverage: 81.2% of statements". The last match wins so summary lines
// take precedence over per-package ones.
var percentPattern = regexp.MustCompile(`(\d+(?:\.\d+)?)%`)

// CoverageRunner invokes the coverage collaborator, parses the measured
// percentage from its output, and compares it against the stage threshold.
// The comparison is inclusive: a measurement exactly at the threshold passes.
type CoverageRunner struct {
	exec executor.Executor
}

// NewCoverageRunner creates a CoverageRunner on the given executor.
func NewCoverageRunner(exec executor.Executor) *CoverageRunner {
	return &CoverageRunner{exec: exec}
}

// Kind implements Runner.
func (r *CoverageRunner) Kind() domain.StageKind { return domain.StageKindCoverageCheck }

// Run implements Runner.
func (r *CoverageRunner) Run(ctx context.Context, stage domain.Stage, _ *Context) domain.StageResult {
	result, err := r.exec.Execute(ctx, stage.Command)
	if err != nil {
		return failed(domain.FailureInfrastructure, err.Error(), domain.Payload{})
	}
	if result.ExitCode != 0 {
		detail := fmt.Sprintf("coverage tool %s exited %d", stage.Command[0], result.ExitCode)
		if trailer := tail(result.Stderr, detailLines); trailer != "" {
			detail = fmt.Sprintf("%s: %s", detail, trailer)
		}
		return failed(domain.FailureInfrastructure, detail, domain.Payload{})
	}

	coverage, ok := parseCoverage(result.Stdout)
	if !ok {
		detail := fmt.Sprintf("no coverage percentage in output of %s", stage.Command[0])
		return failed(domain.FailureInfrastructure, detail, domain.Payload{})
	}

	payload := domain.Payload{Coverage: &coverage}
	if coverage < stage.Threshold {
		detail := fmt.Sprintf("coverage %.1f%% below threshold %.1f%%", coverage, stage.Threshold)
		return failed(domain.FailureAssertion, detail, payload)
	}
	return succeeded(payload)
}

// parseCoverage extracts the coverage percentage from collaborator output.
// It accepts either a "NN.N%" figure embedded in the text or a bare number as
// the whole output.
func parseCoverage(output string) (float64, bool) {
	matches := percentPattern.FindAllStringSubmatch(output, -1)
	if len(matches) > 0 {
		value, err := strconv.ParseFloat(matches[len(matches)-1][1], 64)
		if err == nil {
			return value, true
		}
	}

	value, err := strconv.ParseFloat(strings.TrimSpace(output), 64)
	if err != nil {
		return 0, false
	}
	return value, true
}
