package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArtifactTagReference(t *testing.T) {
	tests := []struct {
		name string
		tag  ArtifactTag
		want string
	}{
		{
			name: "full coordinates",
			tag:  ArtifactTag{Registry: "ghcr.io", Namespace: "acme", Repository: "calculator", Tag: "main"},
			want: "ghcr.io/acme/calculator:main",
		},
		{
			name: "no namespace",
			tag:  ArtifactTag{Registry: "localhost:5000", Repository: "calculator", Tag: "abc123"},
			want: "localhost:5000/calculator:abc123",
		},
		{
			name: "repository only",
			tag:  ArtifactTag{Repository: "calculator", Tag: "main"},
			want: "calculator:main",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.tag.Reference())
		})
	}
}

func TestStageResultFailed(t *testing.T) {
	assert.False(t, StageResult{Status: StageStatusSuccess}.Failed())
	assert.True(t, StageResult{Status: StageStatusFailed}.Failed())

	// Skipped propagates failure downstream the same way failed does.
	assert.True(t, StageResult{Status: StageStatusSkipped}.Failed())
}

func TestPipelineRunResult(t *testing.T) {
	run := &PipelineRun{
		Results: []StageResult{
			{StageName: "test", Status: StageStatusSuccess},
			{StageName: "build", Status: StageStatusFailed},
		},
	}

	result, ok := run.Result("build")
	require.True(t, ok)
	assert.Equal(t, StageStatusFailed, result.Status)

	_, ok = run.Result("ghost")
	assert.False(t, ok)
}
