// Package errors provides the error handling system for the release pipeline core.
// It extends Go's standard error handling with structured error codes, failure
// classification, and context preservation so the Reporter can phrase operational
// issues differently from policy failures.
package errors

// ErrorCode represents a specific error condition in the pipeline core.
// Error codes are string-based for debuggability and natural JSON serialization.
type ErrorCode string

const (
	// Collaborator infrastructure errors.

	// CodeNetwork indicates a collaborator could not be reached over the network.
	CodeNetwork ErrorCode = "NETWORK_ERROR"

	// CodeUnauthorized indicates a collaborator rejected the provided credentials.
	CodeUnauthorized ErrorCode = "UNAUTHORIZED"

	// CodeTimeout indicates a collaborator invocation exceeded its time limit.
	CodeTimeout ErrorCode = "TIMEOUT"

	// CodeArtifactNotFound indicates a registry tag or artifact does not exist.
	CodeArtifactNotFound ErrorCode = "ARTIFACT_NOT_FOUND"

	// CodeExecutionFailed indicates a collaborator process could not be started.
	CodeExecutionFailed ErrorCode = "EXECUTION_FAILED"

	// CodePublishFailed indicates a registry publish operation failed.
	CodePublishFailed ErrorCode = "PUBLISH_FAILED"

	// Assertion errors. The collaborator ran, but its result failed a policy check.

	// CodeTestFailed indicates a test or lint collaborator reported failures.
	CodeTestFailed ErrorCode = "TEST_FAILED"

	// CodeThresholdNotMet indicates a measured value fell below a configured threshold.
	CodeThresholdNotMet ErrorCode = "THRESHOLD_NOT_MET"

	// CodeVulnerabilityFound indicates a blocking scan found findings at or above
	// the configured severity.
	CodeVulnerabilityFound ErrorCode = "VULNERABILITY_FOUND"

	// CodeOutputMismatch indicates a deployment check produced unexpected output.
	CodeOutputMismatch ErrorCode = "OUTPUT_MISMATCH"

	// Configuration errors. Detected at graph construction, before any stage runs.

	// CodeInvalidConfig indicates a configuration error prevents the operation.
	CodeInvalidConfig ErrorCode = "INVALID_CONFIGURATION"

	// CodeGraphCycle indicates the stage graph contains a dependency cycle.
	CodeGraphCycle ErrorCode = "GRAPH_CYCLE"

	// CodeUnknownDependency indicates a stage depends on an undeclared stage.
	CodeUnknownDependency ErrorCode = "UNKNOWN_DEPENDENCY"

	// CodeInvalidInput indicates the provided input is invalid or malformed.
	CodeInvalidInput ErrorCode = "INVALID_INPUT"

	// Generic errors.

	// CodeUnknown indicates an unknown or unclassified error occurred.
	CodeUnknown ErrorCode = "UNKNOWN"
)

// Class partitions error codes by how the Reporter should phrase them.
type Class string

const (
	// ClassInfrastructure marks failures reaching or starting a collaborator.
	ClassInfrastructure Class = "INFRASTRUCTURE"

	// ClassAssertion marks policy-check failures of a collaborator that ran.
	ClassAssertion Class = "ASSERTION"

	// ClassConfiguration marks malformed pipeline definitions; these fail fast
	// before any stage runs and never appear in stage results.
	ClassConfiguration Class = "CONFIGURATION"

	// ClassUnknown marks errors that could not be classified.
	ClassUnknown Class = "UNKNOWN"
)

// Class returns the failure class for the error code.
func (c ErrorCode) Class() Class {
	switch c {
	case CodeNetwork, CodeUnauthorized, CodeTimeout, CodeArtifactNotFound,
		CodeExecutionFailed, CodePublishFailed:
		return ClassInfrastructure
	case CodeTestFailed, CodeThresholdNotMet, CodeVulnerabilityFound, CodeOutputMismatch:
		return ClassAssertion
	case CodeInvalidConfig, CodeGraphCycle, CodeUnknownDependency, CodeInvalidInput:
		return ClassConfiguration
	default:
		return ClassUnknown
	}
}
