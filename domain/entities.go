// Package domain provides canonical type definitions for release pipeline entities.
package domain

import (
	"fmt"
	"strings"
	"time"
)

// PipelineRun represents one complete execution of a pipeline graph.
// It is created when a trigger event arrives, mutated only by the graph executor
// appending stage results, and immutable once Status is SUCCESS or FAILED.
type PipelineRun struct {
	// ID is the unique identifier for this pipeline run (UUID).
	ID string `json:"id"`

	// Pipeline is the name of the pipeline definition that produced this run
	// (e.g., "ci", "cd").
	Pipeline string `json:"pipeline"`

	// RefName is the git ref (branch or merge ref) that triggered this run.
	RefName string `json:"ref_name"`

	// CommitSHA is the git commit hash being processed.
	CommitSHA string `json:"commit_sha"`

	// Status is the overall status of the run. It stays PENDING until every
	// stage has a result.
	Status PipelineStatus `json:"status"`

	// Results holds one result per stage, in declaration order.
	Results []StageResult `json:"results"`

	// Tags are the artifact tags produced by this run's build stage, if any.
	Tags []ArtifactTag `json:"tags,omitempty"`

	// StartedAt is when the run began.
	StartedAt time.Time `json:"started_at"`

	// CompletedAt is when the run finished. Zero while the run is in progress.
	CompletedAt time.Time `json:"completed_at,omitempty"`

	// URL is a link back to this run, included in status reports.
	URL string `json:"url,omitempty"`
}

// Result returns the result for the named stage, if present.
func (r *PipelineRun) Result(stageName string) (StageResult, bool) {
	for _, res := range r.Results {
		if res.StageName == stageName {
			return res, true
		}
	}
	return StageResult{}, false
}

// Stage is a named unit of work within a pipeline graph. Stages declare the
// upstream stages they depend on and form a DAG; acyclicity is checked at graph
// construction, not at runtime.
type Stage struct {
	// Name uniquely identifies the stage within its pipeline.
	Name string `json:"name" yaml:"name"`

	// Kind selects the stage's side effect.
	Kind StageKind `json:"kind" yaml:"kind"`

	// Needs lists the names of the direct upstream stages.
	Needs []string `json:"needs,omitempty" yaml:"needs,omitempty"`

	// Policy controls gating: blocking failures halt downstream stages,
	// advisory failures are recorded only.
	Policy GatePolicy `json:"policy" yaml:"policy"`

	// Command is the collaborator invocation for test, coverage, scan, and
	// build stages. The first element is the program, the rest its arguments.
	Command []string `json:"command,omitempty" yaml:"command,omitempty"`

	// Threshold is the inclusive minimum for coverage-check stages.
	Threshold float64 `json:"threshold,omitempty" yaml:"threshold,omitempty"`

	// Severity is the minimum severity that fails a blocking scan stage
	// (e.g., "HIGH").
	Severity string `json:"severity,omitempty" yaml:"severity,omitempty"`
}

// StageResult is the outcome of running one stage within one pipeline run.
// It is owned exclusively by the run that produced it and never shared across runs.
type StageResult struct {
	// StageName is the name of the stage this result belongs to.
	StageName string `json:"stage_name"`

	// Status is the stage outcome.
	Status StageStatus `json:"status"`

	// Payload carries side-effect specific data: coverage percentage, produced
	// tags, severity counts. Partial or empty for skipped stages.
	Payload Payload `json:"payload,omitempty"`

	// StartedAt is when the stage began. Zero for skipped stages.
	StartedAt time.Time `json:"started_at,omitempty"`

	// CompletedAt is when the stage finished. Zero for skipped stages.
	CompletedAt time.Time `json:"completed_at,omitempty"`
}

// Failed reports whether the result counts as failing for gating purposes.
// Skipped results propagate failure downstream the same way failed ones do.
func (r StageResult) Failed() bool {
	return r.Status == StageStatusFailed || r.Status == StageStatusSkipped
}

// Payload is the structured, side-effect specific portion of a stage result.
type Payload struct {
	// Coverage is the measured coverage percentage for coverage-check stages.
	Coverage *float64 `json:"coverage,omitempty"`

	// Tags are the artifact tags produced by a build-and-publish stage.
	Tags []ArtifactTag `json:"tags,omitempty"`

	// BundleDigest is the content digest of the published release bundle.
	BundleDigest string `json:"bundle_digest,omitempty"`

	// SeverityCounts maps finding severity to count for scan stages.
	SeverityCounts map[string]int `json:"severity_counts,omitempty"`

	// Check is the deployment check detail for deploy-verify stages.
	Check *DeploymentCheck `json:"check,omitempty"`

	// FailureClass distinguishes infrastructure from assertion failures.
	// Empty for successful and skipped stages.
	FailureClass FailureClass `json:"failure_class,omitempty"`

	// Detail is a short human-readable note about the outcome.
	Detail string `json:"detail,omitempty"`
}

// ArtifactTag is an immutable pointer to a published artifact. Two tags are
// produced per successful build: one reassigned per ref, one permanently bound
// to the commit.
type ArtifactTag struct {
	// Registry is the registry host (e.g., "ghcr.io").
	Registry string `json:"registry"`

	// Namespace is the registry namespace or organization.
	Namespace string `json:"namespace"`

	// Repository is the artifact repository name.
	Repository string `json:"repository"`

	// Tag is the tag string: a sanitized ref name or the raw commit hash.
	Tag string `json:"tag"`
}

// Reference returns the full pullable reference for the tag.
func (t ArtifactTag) Reference() string {
	parts := []string{t.Registry, t.Namespace, t.Repository}
	nonEmpty := parts[:0]
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return fmt.Sprintf("%s:%s", strings.Join(nonEmpty, "/"), t.Tag)
}

// DeploymentCheck is the result of the deployment verifier: one artifact pulled
// by tag, executed with fixed inputs, and compared against the expected output.
// Created once per CD run and never mutated after creation.
type DeploymentCheck struct {
	// PulledTag is the tag reference that was actually pulled (mutable tag, or
	// the immutable fallback).
	PulledTag string `json:"pulled_tag"`

	// Stdout is the captured standard output of the executed artifact.
	Stdout string `json:"stdout"`

	// ExitCode is the process exit status of the executed artifact.
	ExitCode int `json:"exit_code"`

	// Pass is true iff the exit code was zero and the trimmed output matched
	// the expected value.
	Pass bool `json:"pass"`

	// FailureClass distinguishes pull failures from output mismatches.
	FailureClass FailureClass `json:"failure_class,omitempty"`

	// Detail is a short human-readable note about the outcome.
	Detail string `json:"detail,omitempty"`
}

// TriggerContext identifies what a pipeline run is bound to. The CD pipeline is
// started with the same context as the CI run that produced it, which guarantees
// tag agreement between publish and pull.
type TriggerContext struct {
	// Pipeline is the pipeline definition name to execute.
	Pipeline string `json:"pipeline"`

	// RefName is the triggering git ref (branch or merge ref).
	RefName string `json:"ref_name"`

	// CommitSHA is the commit being processed.
	CommitSHA string `json:"commit_sha"`
}
