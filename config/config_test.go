package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/catalyst-forge-pipeline/domain"
	ferrors "github.com/input-output-hk/catalyst-forge-pipeline/errors"
)

const sampleDefinition = `
schemaVersion: 0.1.0
image:
  registry: registry.example.com
  namespace: apps
  repository: calculator
sourceRepo: calculator
pipelines:
  - name: ci
    stages:
      - name: test
        kind: TEST
        command: ["make", "test"]
      - name: coverage
        kind: COVERAGE_CHECK
        needs: [test]
        command: ["make", "coverage"]
        threshold: 80
      - name: build
        kind: BUILD_AND_PUBLISH
        needs: [test, coverage]
        command: ["make", "publish"]
      - name: scan
        kind: SECURITY_SCAN
        policy: ADVISORY
        needs: [build]
  - name: cd
    stages:
      - name: deploy-verify
        kind: DEPLOY_VERIFY
`

func TestParse(t *testing.T) {
	file, err := Parse([]byte(sampleDefinition))
	require.NoError(t, err)

	assert.Equal(t, "0.1.0", file.SchemaVersion)
	assert.Equal(t, "registry.example.com", file.Image.Registry)
	assert.Equal(t, "calculator", file.SourceRepo)
	require.Len(t, file.Pipelines, 2)

	ci := file.Pipelines[0]
	assert.Equal(t, "ci", ci.Name)
	require.Len(t, ci.Stages, 4)

	// Policy defaults to blocking when omitted.
	assert.Equal(t, domain.PolicyBlocking, ci.Stages[0].Policy)
	assert.Equal(t, domain.PolicyAdvisory, ci.Stages[3].Policy)

	coverage := ci.Stages[1]
	assert.Equal(t, domain.StageKindCoverageCheck, coverage.Kind)
	assert.Equal(t, []string{"test"}, coverage.Needs)
	assert.InDelta(t, 80, coverage.Threshold, 0.001)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"missing schema version", "pipelines:\n  - name: ci\n    stages:\n      - name: a\n        kind: TEST\n"},
		{"incompatible schema version", "schemaVersion: 0.2.0\npipelines:\n  - name: ci\n    stages:\n      - name: a\n        kind: TEST\n"},
		{"malformed schema version", "schemaVersion: not-a-version\npipelines:\n  - name: ci\n    stages:\n      - name: a\n        kind: TEST\n"},
		{"no pipelines", "schemaVersion: 0.1.0\n"},
		{"unnamed pipeline", "schemaVersion: 0.1.0\npipelines:\n  - stages:\n      - name: a\n        kind: TEST\n"},
		{"unknown stage kind", "schemaVersion: 0.1.0\npipelines:\n  - name: ci\n    stages:\n      - name: a\n        kind: MYSTERY\n"},
		{"unknown policy", "schemaVersion: 0.1.0\npipelines:\n  - name: ci\n    stages:\n      - name: a\n        kind: TEST\n        policy: MAYBE\n"},
		{"not yaml", "{{{"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.Equal(t, ferrors.CodeInvalidConfig, ferrors.Code(err))
		})
	}
}

func TestParse_PatchVersionIsCompatible(t *testing.T) {
	doc := "schemaVersion: 0.1.7\npipelines:\n  - name: ci\n    stages:\n      - name: a\n        kind: TEST\n"
	_, err := Parse([]byte(doc))
	assert.NoError(t, err)
}

func TestIsCompatible(t *testing.T) {
	tests := []struct {
		version string
		want    bool
		wantErr bool
	}{
		{"0.1.0", true, false},
		{"0.1.9", true, false},
		{"0.2.0", false, false},
		{"1.0.0", false, false},
		{"garbage", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			got, err := IsCompatible(tt.version)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "forge.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleDefinition), 0o644))

	file, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, file.Pipelines, 2)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestGraphs(t *testing.T) {
	file, err := Parse([]byte(sampleDefinition))
	require.NoError(t, err)

	graphs, err := file.Graphs()
	require.NoError(t, err)
	require.Contains(t, graphs, "ci")
	require.Contains(t, graphs, "cd")
	assert.Len(t, graphs["ci"].Stages(), 4)
}

func TestGraphs_Invalid(t *testing.T) {
	t.Run("duplicate pipeline name", func(t *testing.T) {
		file := &File{Pipelines: []PipelineConfig{
			{Name: "ci", Stages: []domain.Stage{{Name: "a", Kind: domain.StageKindTest}}},
			{Name: "ci", Stages: []domain.Stage{{Name: "a", Kind: domain.StageKindTest}}},
		}}
		_, err := file.Graphs()
		require.Error(t, err)
		assert.Equal(t, ferrors.CodeInvalidConfig, ferrors.Code(err))
	})

	t.Run("graph validation propagates", func(t *testing.T) {
		file := &File{Pipelines: []PipelineConfig{
			{Name: "ci", Stages: []domain.Stage{
				{Name: "a", Kind: domain.StageKindTest, Needs: []string{"ghost"}},
			}},
		}}
		_, err := file.Graphs()
		require.Error(t, err)
		assert.Equal(t, ferrors.CodeUnknownDependency, ferrors.Code(err))
	})
}

func TestDefault(t *testing.T) {
	file := Default()

	graphs, err := file.Graphs()
	require.NoError(t, err)
	assert.Contains(t, graphs, "ci")
	assert.Contains(t, graphs, "cd")

	// The built-in CI definition carries both scan flavors.
	ci := graphs["ci"]
	advisory, ok := ci.Stage("scan-advisory")
	require.True(t, ok)
	assert.Equal(t, domain.PolicyAdvisory, advisory.Policy)

	blocking, ok := ci.Stage("scan-blocking")
	require.True(t, ok)
	assert.Equal(t, domain.PolicyBlocking, blocking.Policy)
}
