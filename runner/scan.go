package runner

import (
	"context"
	"fmt"

	"github.com/input-output-hk/catalyst-forge-pipeline/domain"
	"github.com/input-output-hk/catalyst-forge-pipeline/scan"
)

// ScanRunner invokes the security scanner against the artifact a prior build
// stage published. Severity counts are recorded either way; whether findings
// fail the stage depends on the stage's gate policy: an advisory scan always
// succeeds, a blocking scan fails when any finding reaches the configured
// minimum severity.
type ScanRunner struct {
	scanner scan.Scanner
}

// NewScanRunner creates a ScanRunner on the given scanner.
func NewScanRunner(scanner scan.Scanner) *ScanRunner {
	return &ScanRunner{scanner: scanner}
}

// Kind implements Runner.
func (r *ScanRunner) Kind() domain.StageKind { return domain.StageKindSecurityScan }

// Run implements Runner.
func (r *ScanRunner) Run(ctx context.Context, stage domain.Stage, rc *Context) domain.StageResult {
	if len(rc.Tags) == 0 {
		detail := "no published artifact available to scan"
		return failed(domain.FailureInfrastructure, detail, domain.Payload{})
	}

	report, err := r.scanner.Scan(ctx, rc.Tags[0].Reference())
	if err != nil {
		return failed(domain.FailureInfrastructure, err.Error(), domain.Payload{})
	}

	payload := domain.Payload{SeverityCounts: report.SeverityCounts()}
	if stage.Policy == domain.PolicyAdvisory {
		return succeeded(payload)
	}

	if count := report.CountAtOrAbove(stage.Severity); count > 0 {
		detail := fmt.Sprintf("%d findings at or above %s", count, stage.Severity)
		return failed(domain.FailureAssertion, detail, payload)
	}
	return succeeded(payload)
}
