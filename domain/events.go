// Package domain provides canonical type definitions for release pipeline entities.
package domain

import "time"

// CompletionEvent is emitted when a pipeline run finishes, success or failure.
// The CI executor publishes it without knowing who listens; the cross-pipeline
// trigger subscribes and decides whether to start the downstream pipeline.
// Events may be delivered in process or published to NATS for multi-process
// deployments.
type CompletionEvent struct {
	// EventID is a unique identifier for this specific event instance.
	EventID string `json:"event_id"`

	// Timestamp is when this event was generated.
	Timestamp time.Time `json:"timestamp"`

	// Pipeline is the name of the pipeline definition that completed.
	Pipeline string `json:"pipeline"`

	// RunID references the pipeline run that completed.
	RunID string `json:"run_id"`

	// RefName is the git ref the run was bound to.
	RefName string `json:"ref_name"`

	// CommitSHA is the commit the run processed.
	CommitSHA string `json:"commit_sha"`

	// Status is the overall status the run completed with.
	Status PipelineStatus `json:"status"`
}
