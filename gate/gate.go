// Package gate decides whether a stage may run given its direct upstream results.
//
// Evaluation is a pure function of result values. Transitive failure
// propagation needs no special handling: a skipped upstream counts as failing,
// so a failure anywhere in an ancestor chain cascades one edge at a time.
package gate

import "github.com/input-output-hk/catalyst-forge-pipeline/domain"

// Decision is the outcome of evaluating a stage's gate.
type Decision int

const (
	// Proceed allows the stage to run.
	Proceed Decision = iota

	// Skip records the stage as skipped because an upstream stage was skipped.
	Skip

	// FailPipeline records the stage as skipped because a blocking upstream
	// stage failed; the run's overall status becomes failed.
	FailPipeline
)

// String returns a human-readable representation of the Decision.
func (d Decision) String() string {
	switch d {
	case Proceed:
		return "proceed"
	case Skip:
		return "skip"
	case FailPipeline:
		return "fail-pipeline"
	default:
		return "unknown"
	}
}

// Upstream pairs one direct upstream stage's result with that stage's policy.
type Upstream struct {
	Result domain.StageResult
	Policy domain.GatePolicy
}

// Evaluate decides whether a stage may run given the results of its direct
// upstream stages. Advisory upstream failures never block; blocking upstream
// failures fail the pipeline branch; blocking upstream skips cascade as skips.
func Evaluate(upstream []Upstream) Decision {
	decision := Proceed
	for _, up := range upstream {
		if up.Policy != domain.PolicyBlocking {
			continue
		}
		switch up.Result.Status {
		case domain.StageStatusFailed:
			return FailPipeline
		case domain.StageStatusSkipped:
			decision = Skip
		case domain.StageStatusSuccess:
		}
	}
	return decision
}
