// Package verify implements the deployment verification protocol: pull the
// published artifact by tag, execute it with fixed operands, and compare the
// captured output against the expected result.
//
// The verifier prefers the mutable ref tag and falls back to the immutable
// commit tag when the pull fails. A mutable tag that has since been moved by a
// newer push is an accepted staleness window: the verifier does not compare the
// pulled content against the digest the originating run published.
package verify

import (
	"context"
	"fmt"
	"strings"

	"github.com/input-output-hk/catalyst-forge-pipeline/domain"
	ferrors "github.com/input-output-hk/catalyst-forge-pipeline/errors"
	"github.com/input-output-hk/catalyst-forge-pipeline/sandbox"
	"github.com/input-output-hk/catalyst-forge-pipeline/tags"
)

// The acceptance probe: the artifact is handed two operands and must print
// their sum.
var probeArgs = []string{"2", "3"}

const probeExpected = "5"

// Verifier pulls and exercises published artifacts.
type Verifier struct {
	sandbox sandbox.Sandbox

	registry   string
	namespace  string
	repository string
}

// New creates a Verifier that resolves tags against the given image coordinates.
func New(sb sandbox.Sandbox, registry, namespace, repository string) *Verifier {
	return &Verifier{
		sandbox:    sb,
		registry:   registry,
		namespace:  namespace,
		repository: repository,
	}
}

// Verify runs the deployment check for the given trigger context.
// It never returns an error: every failure mode is folded into the check so
// the caller can always report a complete result.
func (v *Verifier) Verify(ctx context.Context, refName, commitSHA string) domain.DeploymentCheck {
	pair := tags.Derive(refName, commitSHA)

	mutableRef := v.reference(pair.Mutable)
	immutableRef := v.reference(pair.Immutable)

	result, pulledRef, err := v.pullAndRun(ctx, mutableRef, immutableRef)
	if err != nil {
		class := domain.FailureInfrastructure
		return domain.DeploymentCheck{
			PulledTag:    pulledRef,
			ExitCode:     -1,
			Pass:         false,
			FailureClass: class,
			Detail:       err.Error(),
		}
	}

	check := domain.DeploymentCheck{
		PulledTag: pulledRef,
		Stdout:    result.Stdout,
		ExitCode:  result.ExitCode,
	}

	output := strings.TrimSpace(result.Stdout)
	if result.ExitCode == 0 && output == probeExpected {
		check.Pass = true
		return check
	}

	check.FailureClass = domain.FailureAssertion
	check.Detail = fmt.Sprintf("expected exit 0 with output %q, got exit %d with output %q",
		probeExpected, result.ExitCode, output)
	return check
}

// pullAndRun executes the probe against the mutable tag, falling back to the
// immutable tag when the mutable pull fails. The returned reference is the one
// that was actually used.
func (v *Verifier) pullAndRun(
	ctx context.Context,
	mutableRef, immutableRef string,
) (*sandbox.RunResult, string, error) {
	result, err := v.sandbox.Run(ctx, mutableRef, probeArgs)
	if err == nil {
		return result, mutableRef, nil
	}
	if !ferrors.Is(err, sandbox.ErrImagePull) {
		return nil, mutableRef, err
	}

	result, fallbackErr := v.sandbox.Run(ctx, immutableRef, probeArgs)
	if fallbackErr != nil {
		return nil, immutableRef, ferrors.Wrapf("verify.pull", ferrors.CodeArtifactNotFound,
			fallbackErr, "mutable tag %s and immutable tag %s both unavailable",
			mutableRef, immutableRef)
	}
	return result, immutableRef, nil
}

// reference builds a full pullable reference for a tag string.
func (v *Verifier) reference(tag string) string {
	return domain.ArtifactTag{
		Registry:   v.registry,
		Namespace:  v.namespace,
		Repository: v.repository,
		Tag:        tag,
	}.Reference()
}
