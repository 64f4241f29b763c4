// Package events distributes pipeline completion events. A Bus decouples the
// pipeline that finished from whatever reacts to it: the in-process bus serves
// a single binary running both pipelines, the NATS bus serves deployments
// where CI and CD run in separate processes.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/input-output-hk/catalyst-forge-pipeline/domain"
)

// Handler consumes one completion event. Handlers must not block for long:
// the in-process bus invokes them synchronously.
type Handler func(ctx context.Context, event domain.CompletionEvent)

// Bus publishes and subscribes to pipeline completion events.
type Bus interface {
	// Publish delivers the event to every subscriber.
	Publish(ctx context.Context, event domain.CompletionEvent) error

	// Subscribe registers a handler for all completion events.
	Subscribe(handler Handler) error

	// Close releases the bus. Publish and Subscribe must not be called after.
	Close() error
}

// NewCompletionEvent builds the completion event for a finished run.
func NewCompletionEvent(run *domain.PipelineRun) domain.CompletionEvent {
	return domain.CompletionEvent{
		EventID:   uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Pipeline:  run.Pipeline,
		RunID:     run.ID,
		RefName:   run.RefName,
		CommitSHA: run.CommitSHA,
		Status:    run.Status,
	}
}
