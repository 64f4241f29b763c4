package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/input-output-hk/catalyst-forge-pipeline/domain"
	"github.com/input-output-hk/catalyst-forge-pipeline/executor"
	"github.com/input-output-hk/catalyst-forge-pipeline/registry"
	"github.com/input-output-hk/catalyst-forge-pipeline/tags"
)

// ImageCoords locates the artifact repository every build of a pipeline
// publishes to.
type ImageCoords struct {
	Registry   string
	Namespace  string
	Repository string
}

// BuildPublishRunner builds the artifact via the external build collaborator
// and publishes a release bundle under the derived tag pair. The two tag
// references are appended to the build command so the collaborator produces
// both tags in one invocation.
type BuildPublishRunner struct {
	exec     executor.Executor
	registry *registry.Client
	image    ImageCoords

	// sourceRepo is the source repository name recorded in the bundle.
	sourceRepo string

	// now is the bundle clock, overridable in tests.
	now func() time.Time
}

// NewBuildPublishRunner creates a BuildPublishRunner.
func NewBuildPublishRunner(
	exec executor.Executor,
	reg *registry.Client,
	image ImageCoords,
	sourceRepo string,
) *BuildPublishRunner {
	return &BuildPublishRunner{
		exec:       exec,
		registry:   reg,
		image:      image,
		sourceRepo: sourceRepo,
		now:        time.Now,
	}
}

// Kind implements Runner.
func (r *BuildPublishRunner) Kind() domain.StageKind { return domain.StageKindBuildPublish }

// Run implements Runner. On success it reports the published tags in the
// result payload so downstream scan and verify stages can find the artifact.
func (r *BuildPublishRunner) Run(ctx context.Context, stage domain.Stage, rc *Context) domain.StageResult {
	artifactTags := tags.For(
		r.image.Registry, r.image.Namespace, r.image.Repository,
		rc.RefName, rc.CommitSHA,
	)

	command := make([]string, 0, len(stage.Command)+len(artifactTags))
	command = append(command, stage.Command...)
	for _, t := range artifactTags {
		command = append(command, t.Reference())
	}

	result, err := r.exec.Execute(ctx, command)
	if err != nil {
		return failed(domain.FailureInfrastructure, err.Error(), domain.Payload{})
	}
	if result.ExitCode != 0 {
		detail := fmt.Sprintf("build %s exited %d", stage.Command[0], result.ExitCode)
		if trailer := tail(result.Stderr, detailLines); trailer != "" {
			detail = fmt.Sprintf("%s: %s", detail, trailer)
		}
		return failed(domain.FailureAssertion, detail, domain.Payload{})
	}

	tagNames := make([]string, len(artifactTags))
	for i, t := range artifactTags {
		tagNames[i] = t.Tag
	}
	bundle := &registry.ReleaseBundle{
		RunID:      rc.RunID,
		Repository: r.sourceRepo,
		RefName:    rc.RefName,
		CommitSHA:  rc.CommitSHA,
		Tags:       tagNames,
		CreatedAt:  r.now().UTC(),
	}

	digest, err := r.registry.Publish(ctx, bundle, artifactTags)
	if err != nil {
		detail := fmt.Sprintf("publishing release bundle: %v", err)
		return failed(domain.FailureInfrastructure, detail, domain.Payload{Tags: artifactTags})
	}

	return succeeded(domain.Payload{Tags: artifactTags, BundleDigest: digest})
}
