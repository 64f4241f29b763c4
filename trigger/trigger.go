// Package trigger connects pipelines across a completion event bus: when an
// upstream pipeline finishes successfully, the downstream pipeline is launched
// with the identical ref and commit. Carrying the trigger context over
// unchanged is what guarantees the downstream run derives the same tags the
// upstream run published.
package trigger

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/input-output-hk/catalyst-forge-pipeline/domain"
	"github.com/input-output-hk/catalyst-forge-pipeline/events"
)

// LaunchFunc starts one downstream pipeline run.
type LaunchFunc func(ctx context.Context, tc domain.TriggerContext)

// CrossTrigger launches a downstream pipeline on upstream success. Failed and
// foreign events are ignored; only a successful completion of the named
// upstream pipeline fires.
type CrossTrigger struct {
	upstream   string
	downstream string
	launch     LaunchFunc
	log        zerolog.Logger
}

// New creates a CrossTrigger that launches downstream when upstream succeeds.
func New(upstream, downstream string, launch LaunchFunc, log zerolog.Logger) *CrossTrigger {
	return &CrossTrigger{
		upstream:   upstream,
		downstream: downstream,
		launch:     launch,
		log:        log,
	}
}

// Bind subscribes the trigger to the bus.
func (t *CrossTrigger) Bind(bus events.Bus) error {
	return bus.Subscribe(t.handle)
}

func (t *CrossTrigger) handle(ctx context.Context, event domain.CompletionEvent) {
	log := t.log.With().
		Str("event_id", event.EventID).
		Str("pipeline", event.Pipeline).
		Str("commit", event.CommitSHA).
		Logger()

	if event.Pipeline != t.upstream {
		return
	}
	if event.Status != domain.PipelineStatusSuccess {
		log.Debug().Str("status", event.Status.String()).Msg("upstream did not succeed, not triggering")
		return
	}

	log.Info().Str("downstream", t.downstream).Msg("triggering downstream pipeline")
	t.launch(ctx, domain.TriggerContext{
		Pipeline:  t.downstream,
		RefName:   event.RefName,
		CommitSHA: event.CommitSHA,
	})
}
