package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/catalyst-forge-pipeline/domain"
	ferrors "github.com/input-output-hk/catalyst-forge-pipeline/errors"
)

func TestNewGraph_Valid(t *testing.T) {
	stages := []domain.Stage{
		{Name: "test", Kind: domain.StageKindTest, Policy: domain.PolicyBlocking},
		{Name: "build", Kind: domain.StageKindBuildPublish, Policy: domain.PolicyBlocking, Needs: []string{"test"}},
		{Name: "scan", Kind: domain.StageKindSecurityScan, Policy: domain.PolicyAdvisory, Needs: []string{"build"}},
	}

	graph, err := NewGraph("ci", stages)

	require.NoError(t, err)
	assert.Equal(t, "ci", graph.Name())
	assert.Equal(t, stages, graph.Stages())

	stage, ok := graph.Stage("build")
	require.True(t, ok)
	assert.Equal(t, []string{"test"}, stage.Needs)
}

func TestNewGraph_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		pipeline string
		stages   []domain.Stage
		wantCode ferrors.ErrorCode
	}{
		{
			name:     "empty pipeline name",
			pipeline: "",
			stages:   []domain.Stage{{Name: "a"}},
			wantCode: ferrors.CodeInvalidConfig,
		},
		{
			name:     "no stages",
			pipeline: "ci",
			stages:   nil,
			wantCode: ferrors.CodeInvalidConfig,
		},
		{
			name:     "unnamed stage",
			pipeline: "ci",
			stages:   []domain.Stage{{Name: ""}},
			wantCode: ferrors.CodeInvalidConfig,
		},
		{
			name:     "duplicate stage name",
			pipeline: "ci",
			stages:   []domain.Stage{{Name: "a"}, {Name: "a"}},
			wantCode: ferrors.CodeInvalidConfig,
		},
		{
			name:     "dangling dependency",
			pipeline: "ci",
			stages:   []domain.Stage{{Name: "a", Needs: []string{"ghost"}}},
			wantCode: ferrors.CodeUnknownDependency,
		},
		{
			name:     "self cycle",
			pipeline: "ci",
			stages:   []domain.Stage{{Name: "a", Needs: []string{"a"}}},
			wantCode: ferrors.CodeGraphCycle,
		},
		{
			name:     "two stage cycle",
			pipeline: "ci",
			stages: []domain.Stage{
				{Name: "a", Needs: []string{"b"}},
				{Name: "b", Needs: []string{"a"}},
			},
			wantCode: ferrors.CodeGraphCycle,
		},
		{
			name:     "cycle behind a valid prefix",
			pipeline: "ci",
			stages: []domain.Stage{
				{Name: "setup"},
				{Name: "a", Needs: []string{"setup", "c"}},
				{Name: "b", Needs: []string{"a"}},
				{Name: "c", Needs: []string{"b"}},
			},
			wantCode: ferrors.CodeGraphCycle,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewGraph(tt.pipeline, tt.stages)
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, ferrors.Code(err))
		})
	}
}

func TestGraph_StagesIsACopy(t *testing.T) {
	graph, err := NewGraph("ci", []domain.Stage{{Name: "a"}, {Name: "b"}})
	require.NoError(t, err)

	stages := graph.Stages()
	stages[0].Name = "mutated"

	fresh := graph.Stages()
	assert.Equal(t, "a", fresh[0].Name)
}
