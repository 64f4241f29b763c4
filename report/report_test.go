package report

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/input-output-hk/catalyst-forge-pipeline/domain"
)

func successfulRun() *domain.PipelineRun {
	coverage := 81.2
	return &domain.PipelineRun{
		ID:        "run-1",
		Pipeline:  "ci",
		RefName:   "main",
		CommitSHA: "abc1234def",
		Status:    domain.PipelineStatusSuccess,
		URL:       "https://forge.example.com/runs/run-1",
		Tags: []domain.ArtifactTag{
			{Registry: "registry.example.com", Namespace: "apps", Repository: "calculator", Tag: "main"},
			{Registry: "registry.example.com", Namespace: "apps", Repository: "calculator", Tag: "abc1234def"},
		},
		Results: []domain.StageResult{
			{StageName: "test", Status: domain.StageStatusSuccess},
			{
				StageName: "coverage",
				Status:    domain.StageStatusSuccess,
				Payload:   domain.Payload{Coverage: &coverage},
			},
			{
				StageName: "scan-advisory",
				Status:    domain.StageStatusSuccess,
				Payload:   domain.Payload{SeverityCounts: map[string]int{"LOW": 2, "CRITICAL": 1}},
			},
		},
	}
}

func TestRenderRun_Success(t *testing.T) {
	body := RenderRun(successfulRun())

	assert.Contains(t, body, "### ci pipeline: ✅ SUCCESS")
	assert.Contains(t, body, "Ref `main` at commit `abc1234def`.")
	assert.Contains(t, body, "| test | SUCCESS |")
	assert.Contains(t, body, "coverage 81.2%")
	assert.Contains(t, body, "findings: CRITICAL=1 LOW=2")
	assert.Contains(t, body, "- `registry.example.com/apps/calculator:main`")
	assert.Contains(t, body, "[View run](https://forge.example.com/runs/run-1)")
	assert.NotContains(t, body, "could not complete")
}

func TestRenderRun_AssertionFailure(t *testing.T) {
	run := &domain.PipelineRun{
		Pipeline:  "ci",
		RefName:   "main",
		CommitSHA: "abc1234def",
		Status:    domain.PipelineStatusFailed,
		Results: []domain.StageResult{
			{
				StageName: "test",
				Status:    domain.StageStatusFailed,
				Payload: domain.Payload{
					FailureClass: domain.FailureAssertion,
					Detail:       "make exited 1: FAIL: TestAdd",
				},
			},
			{StageName: "build", Status: domain.StageStatusSkipped},
		},
	}

	body := RenderRun(run)

	assert.Contains(t, body, "❌ FAILED")
	assert.Contains(t, body, "One or more checks failed")
	assert.Contains(t, body, "FAIL: TestAdd")
	assert.Contains(t, body, "| build | SKIPPED |")
}

func TestRenderRun_InfrastructureFailure(t *testing.T) {
	run := &domain.PipelineRun{
		Pipeline:  "cd",
		RefName:   "main",
		CommitSHA: "abc1234def",
		Status:    domain.PipelineStatusFailed,
		Results: []domain.StageResult{
			{
				StageName: "deploy-verify",
				Status:    domain.StageStatusFailed,
				Payload: domain.Payload{
					FailureClass: domain.FailureInfrastructure,
					Detail:       "mutable tag and immutable tag both unavailable",
				},
			},
		},
	}

	body := RenderRun(run)

	assert.Contains(t, body, "could not complete")
	assert.Contains(t, body, "not a verdict on the change")
	assert.Contains(t, body, "deploy-verify")
}

func TestRenderRun_DeploymentCheck(t *testing.T) {
	run := &domain.PipelineRun{
		Pipeline:  "cd",
		RefName:   "main",
		CommitSHA: "abc1234def",
		Status:    domain.PipelineStatusSuccess,
		Results: []domain.StageResult{
			{
				StageName: "deploy-verify",
				Status:    domain.StageStatusSuccess,
				Payload: domain.Payload{
					Check: &domain.DeploymentCheck{
						PulledTag: "registry.example.com/apps/calculator:main",
						Stdout:    "5\n",
						Pass:      true,
					},
				},
			},
		},
	}

	body := RenderRun(run)

	assert.Contains(t, body, "verified `registry.example.com/apps/calculator:main`")
}

func TestRenderRun_EscapesTableBreakers(t *testing.T) {
	run := &domain.PipelineRun{
		Pipeline: "ci",
		Status:   domain.PipelineStatusFailed,
		Results: []domain.StageResult{
			{
				StageName: "test",
				Status:    domain.StageStatusFailed,
				Payload: domain.Payload{
					FailureClass: domain.FailureAssertion,
					Detail:       "want | got\nmismatch",
				},
			},
		},
	}

	body := RenderRun(run)

	line := ""
	for _, l := range strings.Split(body, "\n") {
		if strings.HasPrefix(l, "| test |") {
			line = l
		}
	}
	assert.Contains(t, line, `want \| got mismatch`)
}
