package config

import "github.com/input-output-hk/catalyst-forge-pipeline/domain"

// Default returns the built-in definition used when no definition file is
// given: a CI pipeline that tests, checks coverage, builds, and scans, and a
// CD pipeline that verifies the deployment.
func Default() *File {
	return &File{
		SchemaVersion: SupportedSchemaVersion,
		Image: ImageConfig{
			Registry:   "registry.example.com",
			Namespace:  "apps",
			Repository: "calculator",
		},
		SourceRepo: "calculator",
		Pipelines: []PipelineConfig{
			{
				Name: "ci",
				Stages: []domain.Stage{
					{
						Name:    "test",
						Kind:    domain.StageKindTest,
						Policy:  domain.PolicyBlocking,
						Command: []string{"make", "test"},
					},
					{
						Name:      "coverage",
						Kind:      domain.StageKindCoverageCheck,
						Policy:    domain.PolicyBlocking,
						Needs:     []string{"test"},
						Command:   []string{"make", "coverage"},
						Threshold: 80,
					},
					{
						Name:    "build",
						Kind:    domain.StageKindBuildPublish,
						Policy:  domain.PolicyBlocking,
						Needs:   []string{"test", "coverage"},
						Command: []string{"make", "publish"},
					},
					{
						Name:   "scan-advisory",
						Kind:   domain.StageKindSecurityScan,
						Policy: domain.PolicyAdvisory,
						Needs:  []string{"build"},
					},
					{
						Name:     "scan-blocking",
						Kind:     domain.StageKindSecurityScan,
						Policy:   domain.PolicyBlocking,
						Needs:    []string{"build"},
						Severity: "CRITICAL",
					},
				},
			},
			{
				Name: "cd",
				Stages: []domain.Stage{
					{
						Name:   "deploy-verify",
						Kind:   domain.StageKindDeployVerify,
						Policy: domain.PolicyBlocking,
					},
				},
			},
		},
	}
}
