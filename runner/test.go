package runner

import (
	"context"
	"fmt"

	"github.com/input-output-hk/catalyst-forge-pipeline/domain"
	"github.com/input-output-hk/catalyst-forge-pipeline/executor"
)

const detailLines = 10

// TestRunner invokes an external test or lint collaborator. The stage succeeds
// iff the command exits zero; the core never interprets the tool's output
// beyond keeping a tail of it for the failure detail.
type TestRunner struct {
	exec executor.Executor
}

// NewTestRunner creates a TestRunner on the given executor.
func NewTestRunner(exec executor.Executor) *TestRunner {
	return &TestRunner{exec: exec}
}

// Kind implements Runner.
func (r *TestRunner) Kind() domain.StageKind { return domain.StageKindTest }

// Run implements Runner.
func (r *TestRunner) Run(ctx context.Context, stage domain.Stage, _ *Context) domain.StageResult {
	result, err := r.exec.Execute(ctx, stage.Command)
	if err != nil {
		return failed(domain.FailureInfrastructure, err.Error(), domain.Payload{})
	}
	if result.ExitCode != 0 {
		detail := fmt.Sprintf("%s exited %d", stage.Command[0], result.ExitCode)
		if trailer := tail(result.Stderr, detailLines); trailer != "" {
			detail = fmt.Sprintf("%s: %s", detail, trailer)
		}
		return failed(domain.FailureAssertion, detail, domain.Payload{})
	}
	return succeeded(domain.Payload{})
}
