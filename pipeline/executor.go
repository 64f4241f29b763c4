package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/input-output-hk/catalyst-forge-pipeline/domain"
	"github.com/input-output-hk/catalyst-forge-pipeline/gate"
	"github.com/input-output-hk/catalyst-forge-pipeline/runner"
)

// DefaultConcurrency bounds how many stages run at once.
const DefaultConcurrency = 4

// Executor runs a pipeline graph to completion. It dispatches stages as their
// dependencies resolve, evaluates each stage's gate against its direct
// upstream results, and records one result per stage in declaration order.
//
// Execute never returns an error: the run itself is the record of what
// happened, including infrastructure failures.
type Executor struct {
	runners *runner.Set
	options *ExecutorOptions
}

// ExecutorOptions configures run execution.
type ExecutorOptions struct {
	// Concurrency is the maximum number of stages running at once.
	// Zero falls back to DefaultConcurrency.
	Concurrency int

	// BaseURL, when set, is used to build the run's link-back URL.
	BaseURL string

	// Logger receives structured stage lifecycle events.
	Logger zerolog.Logger

	// Clock supplies timestamps, overridable in tests.
	Clock func() time.Time

	// NewID supplies run identifiers.
	NewID func() string
}

// ExecutorOption is a functional option for configuring the Executor.
type ExecutorOption func(*ExecutorOptions)

// WithConcurrency bounds parallel stage execution.
func WithConcurrency(n int) ExecutorOption {
	return func(o *ExecutorOptions) {
		o.Concurrency = n
	}
}

// WithBaseURL sets the base used to build run link-back URLs.
func WithBaseURL(base string) ExecutorOption {
	return func(o *ExecutorOptions) {
		o.BaseURL = base
	}
}

// WithLogger sets the structured logger for stage lifecycle events.
func WithLogger(logger zerolog.Logger) ExecutorOption {
	return func(o *ExecutorOptions) {
		o.Logger = logger
	}
}

// WithClock overrides the timestamp source.
func WithClock(clock func() time.Time) ExecutorOption {
	return func(o *ExecutorOptions) {
		o.Clock = clock
	}
}

// NewExecutor creates an Executor over the given runner set.
func NewExecutor(runners *runner.Set, opts ...ExecutorOption) *Executor {
	options := &ExecutorOptions{
		Concurrency: DefaultConcurrency,
		Logger:      zerolog.Nop(),
		Clock:       time.Now,
		NewID:       uuid.NewString,
	}
	for _, opt := range opts {
		opt(options)
	}
	if options.Concurrency <= 0 {
		options.Concurrency = DefaultConcurrency
	}
	return &Executor{runners: runners, options: options}
}

// Execute runs every stage of the graph and returns the completed run.
// Once a blocking stage fails, no new stage starts; stages already in flight
// run to completion and their results are recorded.
func (e *Executor) Execute(
	ctx context.Context,
	graph *Graph,
	trigger domain.TriggerContext,
) *domain.PipelineRun {
	run := &domain.PipelineRun{
		ID:        e.options.NewID(),
		Pipeline:  graph.Name(),
		RefName:   trigger.RefName,
		CommitSHA: trigger.CommitSHA,
		Status:    domain.PipelineStatusPending,
		StartedAt: e.options.Clock().UTC(),
	}
	if e.options.BaseURL != "" {
		run.URL = fmt.Sprintf("%s/runs/%s", strings.TrimRight(e.options.BaseURL, "/"), run.ID)
	}

	log := e.options.Logger.With().
		Str("pipeline", run.Pipeline).
		Str("run_id", run.ID).
		Str("ref", run.RefName).
		Str("commit", run.CommitSHA).
		Logger()
	log.Info().Msg("pipeline run started")

	state := &runState{
		exec:    e,
		graph:   graph,
		run:     run,
		stages:  graph.Stages(),
		results: make(map[string]domain.StageResult, len(graph.stages)),
		running: make(map[string]bool),
		done:    make(chan completion),
		log:     log,
	}
	state.drive(ctx)

	for _, stage := range state.stages {
		run.Results = append(run.Results, state.results[stage.Name])
	}
	run.Tags = state.tags
	run.Status = overallStatus(state.stages, state.results)
	run.CompletedAt = e.options.Clock().UTC()

	log.Info().Str("status", run.Status.String()).Msg("pipeline run finished")
	return run
}

// completion carries one finished stage back to the dispatch loop.
type completion struct {
	name   string
	result domain.StageResult
}

// runState is the dispatch loop's working state for one run. It is owned by
// the driving goroutine; stage goroutines communicate only through the done
// channel and the per-stage context snapshots they were handed.
type runState struct {
	exec    *Executor
	graph   *Graph
	run     *domain.PipelineRun
	stages  []domain.Stage
	results map[string]domain.StageResult
	running map[string]bool
	tags    []domain.ArtifactTag

	halted   bool
	inFlight int
	done     chan completion
	log      zerolog.Logger
}

// drive loops until every stage has a result: dispatch whatever is ready,
// then block on the next completion.
func (s *runState) drive(ctx context.Context) {
	for len(s.results) < len(s.stages) {
		for s.step(ctx) {
		}
		if len(s.results) == len(s.stages) {
			return
		}
		if s.inFlight == 0 {
			// Unreachable for a validated graph; avoids a hang if it ever isn't.
			return
		}
		s.collect(<-s.done)
	}
}

// step makes one pass over the stages and performs at most one transition:
// record a skip, or start a ready stage. It reports whether it did anything,
// so drive can loop until a pass is a no-op.
func (s *runState) step(ctx context.Context) bool {
	for _, stage := range s.stages {
		if _, finished := s.results[stage.Name]; finished || s.running[stage.Name] {
			continue
		}

		if s.halted {
			s.skip(stage, "pipeline halted")
			return true
		}

		upstream, ready := s.upstreamOf(stage)
		if !ready {
			continue
		}

		switch gate.Evaluate(upstream) {
		case gate.Skip:
			s.skip(stage, "upstream skipped")
			return true
		case gate.FailPipeline:
			s.halted = true
			s.skip(stage, "blocking upstream failed")
			return true
		case gate.Proceed:
			if s.inFlight >= s.exec.options.Concurrency {
				continue
			}
			s.start(ctx, stage)
			return true
		}
	}
	return false
}

// start launches one stage goroutine with a private context snapshot.
func (s *runState) start(ctx context.Context, stage domain.Stage) {
	s.running[stage.Name] = true
	s.inFlight++

	rc := &runner.Context{
		RunID:     s.run.ID,
		Pipeline:  s.run.Pipeline,
		RefName:   s.run.RefName,
		CommitSHA: s.run.CommitSHA,
		Upstream:  make(map[string]domain.StageResult, len(stage.Needs)),
		Tags:      append([]domain.ArtifactTag(nil), s.tags...),
	}
	for _, need := range stage.Needs {
		rc.Upstream[need] = s.results[need]
	}

	s.log.Debug().Str("stage", stage.Name).Str("kind", stage.Kind.String()).Msg("stage started")
	go s.runStage(ctx, stage, rc)
}

// runStage executes one stage and reports its completion. Runs in its own
// goroutine.
func (s *runState) runStage(ctx context.Context, stage domain.Stage, rc *runner.Context) {
	startedAt := s.exec.options.Clock().UTC()
	result := s.exec.dispatch(ctx, stage, rc)
	result.StageName = stage.Name
	result.StartedAt = startedAt
	result.CompletedAt = s.exec.options.Clock().UTC()

	s.done <- completion{name: stage.Name, result: result}
}

// collect folds one completion into the run state.
func (s *runState) collect(c completion) {
	s.inFlight--
	delete(s.running, c.name)
	s.results[c.name] = c.result

	stage, _ := s.graph.Stage(c.name)
	if c.result.Failed() && stage.Policy == domain.PolicyBlocking {
		s.halted = true
	}
	if len(c.result.Payload.Tags) > 0 {
		s.tags = c.result.Payload.Tags
	}

	s.log.Info().
		Str("stage", c.name).
		Str("status", c.result.Status.String()).
		Msg("stage finished")
}

// skip records a stage as skipped without running it.
func (s *runState) skip(stage domain.Stage, reason string) {
	s.results[stage.Name] = domain.StageResult{
		StageName: stage.Name,
		Status:    domain.StageStatusSkipped,
	}
	s.log.Info().Str("stage", stage.Name).Str("reason", reason).Msg("stage skipped")
}

// upstreamOf collects the gate inputs for a stage. ready is false while any
// direct upstream stage lacks a result.
func (s *runState) upstreamOf(stage domain.Stage) ([]gate.Upstream, bool) {
	upstream := make([]gate.Upstream, 0, len(stage.Needs))
	for _, need := range stage.Needs {
		result, ok := s.results[need]
		if !ok {
			return nil, false
		}
		needStage, _ := s.graph.Stage(need)
		upstream = append(upstream, gate.Upstream{Result: result, Policy: needStage.Policy})
	}
	return upstream, true
}

// dispatch resolves the runner for the stage kind and invokes it. A stage kind
// with no registered runner is recorded as an infrastructure failure: the run
// must always complete.
func (e *Executor) dispatch(
	ctx context.Context,
	stage domain.Stage,
	rc *runner.Context,
) domain.StageResult {
	r, ok := e.runners.For(stage.Kind)
	if !ok {
		return domain.StageResult{
			Status: domain.StageStatusFailed,
			Payload: domain.Payload{
				FailureClass: domain.FailureInfrastructure,
				Detail:       fmt.Sprintf("no runner registered for stage kind %s", stage.Kind),
			},
		}
	}
	return r.Run(ctx, stage, rc)
}

// overallStatus is SUCCESS iff every blocking stage succeeded. Advisory
// failures are recorded but never change the run status.
func overallStatus(stages []domain.Stage, results map[string]domain.StageResult) domain.PipelineStatus {
	for _, stage := range stages {
		if stage.Policy != domain.PolicyBlocking {
			continue
		}
		if results[stage.Name].Status != domain.StageStatusSuccess {
			return domain.PipelineStatusFailed
		}
	}
	return domain.PipelineStatusSuccess
}
