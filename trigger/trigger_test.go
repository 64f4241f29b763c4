package trigger

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/catalyst-forge-pipeline/domain"
	"github.com/input-output-hk/catalyst-forge-pipeline/events"
)

func completionEvent(pipeline string, status domain.PipelineStatus) domain.CompletionEvent {
	return domain.CompletionEvent{
		EventID:   "evt-1",
		Pipeline:  pipeline,
		RunID:     "run-1",
		RefName:   "main",
		CommitSHA: "abc1234def",
		Status:    status,
	}
}

func newBoundTrigger(t *testing.T, bus events.Bus) *[]domain.TriggerContext {
	t.Helper()

	var launched []domain.TriggerContext
	trig := New("ci", "cd", func(_ context.Context, tc domain.TriggerContext) {
		launched = append(launched, tc)
	}, zerolog.Nop())
	require.NoError(t, trig.Bind(bus))
	return &launched
}

func TestCrossTrigger_FiresOnUpstreamSuccess(t *testing.T) {
	bus := events.NewInProcessBus()
	launched := newBoundTrigger(t, bus)

	require.NoError(t, bus.Publish(context.Background(), completionEvent("ci", domain.PipelineStatusSuccess)))

	require.Len(t, *launched, 1)
	got := (*launched)[0]
	assert.Equal(t, "cd", got.Pipeline)
	assert.Equal(t, "main", got.RefName)
	assert.Equal(t, "abc1234def", got.CommitSHA)
}

func TestCrossTrigger_IgnoresUpstreamFailure(t *testing.T) {
	bus := events.NewInProcessBus()
	launched := newBoundTrigger(t, bus)

	require.NoError(t, bus.Publish(context.Background(), completionEvent("ci", domain.PipelineStatusFailed)))

	assert.Empty(t, *launched)
}

func TestCrossTrigger_IgnoresOtherPipelines(t *testing.T) {
	bus := events.NewInProcessBus()
	launched := newBoundTrigger(t, bus)

	// The downstream pipeline's own completion must not re-trigger it.
	require.NoError(t, bus.Publish(context.Background(), completionEvent("cd", domain.PipelineStatusSuccess)))
	require.NoError(t, bus.Publish(context.Background(), completionEvent("nightly", domain.PipelineStatusSuccess)))

	assert.Empty(t, *launched)
}
