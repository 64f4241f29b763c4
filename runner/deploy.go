package runner

import (
	"context"

	"github.com/input-output-hk/catalyst-forge-pipeline/domain"
	"github.com/input-output-hk/catalyst-forge-pipeline/verify"
)

// DeployVerifyRunner runs the deployment verification protocol: pull the
// published artifact by tag and exercise it with fixed inputs.
type DeployVerifyRunner struct {
	verifier *verify.Verifier
}

// NewDeployVerifyRunner creates a DeployVerifyRunner on the given verifier.
func NewDeployVerifyRunner(verifier *verify.Verifier) *DeployVerifyRunner {
	return &DeployVerifyRunner{verifier: verifier}
}

// Kind implements Runner.
func (r *DeployVerifyRunner) Kind() domain.StageKind { return domain.StageKindDeployVerify }

// Run implements Runner.
func (r *DeployVerifyRunner) Run(ctx context.Context, _ domain.Stage, rc *Context) domain.StageResult {
	check := r.verifier.Verify(ctx, rc.RefName, rc.CommitSHA)

	payload := domain.Payload{Check: &check}
	if !check.Pass {
		return failed(check.FailureClass, check.Detail, payload)
	}
	return succeeded(payload)
}
