// Package domain provides canonical type definitions for release pipeline entities.
package domain

// PipelineStatus represents the overall execution status of a pipeline run.
type PipelineStatus string

const (
	// PipelineStatusPending indicates the run is created but not yet finished.
	PipelineStatusPending PipelineStatus = "PENDING"

	// PipelineStatusSuccess indicates every blocking stage completed successfully.
	PipelineStatusSuccess PipelineStatus = "SUCCESS"

	// PipelineStatusFailed indicates at least one blocking stage failed or was skipped.
	PipelineStatusFailed PipelineStatus = "FAILED"
)

// String returns the string representation of the PipelineStatus.
func (s PipelineStatus) String() string {
	return string(s)
}

// StageStatus represents the outcome of a single stage within a run.
type StageStatus string

const (
	// StageStatusSuccess indicates the stage's side effect completed successfully.
	StageStatusSuccess StageStatus = "SUCCESS"

	// StageStatusFailed indicates the stage ran and failed, or could not run at all.
	StageStatusFailed StageStatus = "FAILED"

	// StageStatusSkipped indicates the stage never ran because an upstream
	// blocking stage failed or was itself skipped.
	StageStatusSkipped StageStatus = "SKIPPED"
)

// String returns the string representation of the StageStatus.
func (s StageStatus) String() string {
	return string(s)
}

// StageKind identifies the side effect a stage performs.
type StageKind string

const (
	// StageKindTest invokes an external test or lint collaborator.
	StageKindTest StageKind = "TEST"

	// StageKindCoverageCheck invokes the coverage collaborator and compares the
	// measured percentage against a configured threshold (inclusive).
	StageKindCoverageCheck StageKind = "COVERAGE_CHECK"

	// StageKindBuildPublish builds the artifact and publishes it under the
	// derived mutable and immutable tags.
	StageKindBuildPublish StageKind = "BUILD_AND_PUBLISH"

	// StageKindSecurityScan invokes the scanner against the published artifact.
	StageKindSecurityScan StageKind = "SECURITY_SCAN"

	// StageKindDeployVerify pulls the published artifact and exercises it with
	// fixed inputs, asserting on output and exit status.
	StageKindDeployVerify StageKind = "DEPLOY_VERIFY"
)

// String returns the string representation of the StageKind.
func (k StageKind) String() string {
	return string(k)
}

// GatePolicy controls how a stage's failure affects downstream stages.
type GatePolicy string

const (
	// PolicyBlocking halts downstream execution and fails the run on failure.
	PolicyBlocking GatePolicy = "BLOCKING"

	// PolicyAdvisory records the failure but never halts the run.
	PolicyAdvisory GatePolicy = "ADVISORY"
)

// String returns the string representation of the GatePolicy.
func (p GatePolicy) String() string {
	return string(p)
}

// FailureClass distinguishes why a stage failed so the Reporter can phrase the
// message accordingly.
type FailureClass string

const (
	// FailureInfrastructure marks a collaborator that could not be reached or started.
	FailureInfrastructure FailureClass = "INFRASTRUCTURE"

	// FailureAssertion marks a collaborator that ran but failed a policy check.
	FailureAssertion FailureClass = "ASSERTION"
)
