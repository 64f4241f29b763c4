// Package runner implements the per-kind stage side effects. Each Runner
// executes one stage kind against its collaborator and reports the outcome as a
// stage result; classifying the outcome (success, assertion failure,
// infrastructure failure) happens here so the graph executor stays free of
// side-effect knowledge.
package runner

import (
	"context"
	"strings"

	"github.com/input-output-hk/catalyst-forge-pipeline/domain"
)

// Context carries the run-scoped state a stage needs beyond its own
// declaration: the trigger identity and what upstream stages produced.
type Context struct {
	// RunID is the pipeline run identifier.
	RunID string

	// Pipeline is the pipeline definition name.
	Pipeline string

	// RefName is the triggering git ref.
	RefName string

	// CommitSHA is the commit being processed.
	CommitSHA string

	// Upstream maps stage name to result for the stages that already finished.
	Upstream map[string]domain.StageResult

	// Tags are the artifact tags published by a prior build stage, mutable
	// tag first. Empty until a build stage succeeds.
	Tags []domain.ArtifactTag
}

// Runner executes one kind of stage.
type Runner interface {
	// Kind reports which stage kind this runner handles.
	Kind() domain.StageKind

	// Run executes the stage. It never returns an error: every failure mode is
	// folded into the result so the run always completes with a full record.
	Run(ctx context.Context, stage domain.Stage, rc *Context) domain.StageResult
}

// Set is a lookup table of runners keyed by stage kind.
type Set struct {
	runners map[domain.StageKind]Runner
}

// NewSet builds a Set from the given runners. A later runner for the same kind
// replaces an earlier one.
func NewSet(runners ...Runner) *Set {
	set := &Set{runners: make(map[domain.StageKind]Runner, len(runners))}
	for _, r := range runners {
		set.runners[r.Kind()] = r
	}
	return set
}

// For returns the runner for the given kind.
func (s *Set) For(kind domain.StageKind) (Runner, bool) {
	r, ok := s.runners[kind]
	return r, ok
}

func succeeded(payload domain.Payload) domain.StageResult {
	return domain.StageResult{Status: domain.StageStatusSuccess, Payload: payload}
}

func failed(class domain.FailureClass, detail string, payload domain.Payload) domain.StageResult {
	payload.FailureClass = class
	payload.Detail = detail
	return domain.StageResult{Status: domain.StageStatusFailed, Payload: payload}
}

// tail returns the last n lines of s, for compact failure details.
func tail(s string, n int) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
