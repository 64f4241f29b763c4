// Package pipeline builds stage graphs and executes them with gating.
package pipeline

import (
	"fmt"

	"github.com/input-output-hk/catalyst-forge-pipeline/domain"
	ferrors "github.com/input-output-hk/catalyst-forge-pipeline/errors"
)

// Graph is a validated DAG of stages for one pipeline definition. Construction
// rejects duplicate names, dangling dependencies, and cycles, so execution
// never has to handle a malformed topology.
type Graph struct {
	name   string
	stages []domain.Stage
	byName map[string]domain.Stage
}

// NewGraph validates the stage list and builds a Graph. Stage order is
// preserved: results are reported in declaration order regardless of
// execution order.
func NewGraph(name string, stages []domain.Stage) (*Graph, error) {
	const op = "pipeline.graph"

	if name == "" {
		return nil, ferrors.New(op, ferrors.CodeInvalidConfig, "pipeline name cannot be empty")
	}
	if len(stages) == 0 {
		return nil, ferrors.New(op, ferrors.CodeInvalidConfig,
			fmt.Sprintf("pipeline %q has no stages", name))
	}

	byName := make(map[string]domain.Stage, len(stages))
	for _, stage := range stages {
		if stage.Name == "" {
			return nil, ferrors.New(op, ferrors.CodeInvalidConfig,
				fmt.Sprintf("pipeline %q has a stage with no name", name))
		}
		if _, dup := byName[stage.Name]; dup {
			return nil, ferrors.New(op, ferrors.CodeInvalidConfig,
				fmt.Sprintf("duplicate stage name %q", stage.Name))
		}
		byName[stage.Name] = stage
	}

	for _, stage := range stages {
		for _, need := range stage.Needs {
			if _, ok := byName[need]; !ok {
				return nil, ferrors.New(op, ferrors.CodeUnknownDependency,
					fmt.Sprintf("stage %q needs undeclared stage %q", stage.Name, need))
			}
		}
	}

	if cycle := findCycle(stages, byName); cycle != "" {
		return nil, ferrors.New(op, ferrors.CodeGraphCycle,
			fmt.Sprintf("dependency cycle through stage %q", cycle))
	}

	return &Graph{
		name:   name,
		stages: append([]domain.Stage(nil), stages...),
		byName: byName,
	}, nil
}

// Name returns the pipeline definition name.
func (g *Graph) Name() string { return g.name }

// Stages returns the stages in declaration order.
func (g *Graph) Stages() []domain.Stage {
	return append([]domain.Stage(nil), g.stages...)
}

// Stage returns the named stage.
func (g *Graph) Stage(name string) (domain.Stage, bool) {
	stage, ok := g.byName[name]
	return stage, ok
}

// findCycle runs a three-color depth-first search and returns the name of a
// stage on a cycle, or "" when the graph is acyclic.
func findCycle(stages []domain.Stage, byName map[string]domain.Stage) string {
	const (
		white = iota
		gray
		black
	)
	color := make(map[string]int, len(stages))

	var visit func(name string) string
	visit = func(name string) string {
		color[name] = gray
		for _, need := range byName[name].Needs {
			switch color[need] {
			case gray:
				return need
			case white:
				if hit := visit(need); hit != "" {
					return hit
				}
			}
		}
		color[name] = black
		return ""
	}

	for _, stage := range stages {
		if color[stage.Name] == white {
			if hit := visit(stage.Name); hit != "" {
				return hit
			}
		}
	}
	return ""
}
