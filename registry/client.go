// Package registry provides release bundle distribution through an OCI registry.
// This file contains the main client interface and implementation.
package registry

import (
	"context"
	"fmt"
	"strings"
	"sync"

	godigest "github.com/opencontainers/go-digest"

	"github.com/input-output-hk/catalyst-forge-pipeline/domain"
	ferrors "github.com/input-output-hk/catalyst-forge-pipeline/errors"
)

// ErrTagNotFound is reported when a pull or resolve targets an absent tag.
// Check with errors.Is; the wrapped chain also carries CodeArtifactNotFound.
var ErrTagNotFound = ferrors.New("registry", ferrors.CodeArtifactNotFound, "tag not found")

// Client publishes and pulls release bundles. Pushing a tag that already exists
// reassigns it; the immutable per-commit tag gives later stages a stable
// fallback when a newer push has moved the mutable tag. The client is safe for
// concurrent use.
type Client struct {
	options *ClientOptions
	oras    ORASClient

	mu sync.RWMutex
}

// New creates a new Client with the given options.
func New(opts ...ClientOption) *Client {
	options := DefaultClientOptions()
	for _, opt := range opts {
		opt(options)
	}

	oras := options.ORASClient
	if oras == nil {
		oras = defaultORASClient{}
	}

	return &Client{options: options, oras: oras}
}

// Publish uploads the bundle under every given tag. All tags must address the
// same repository; they end up pointing at the identical manifest digest, which
// is returned.
func (c *Client) Publish(
	ctx context.Context,
	bundle *ReleaseBundle,
	artifactTags []domain.ArtifactTag,
) (string, error) {
	const op = "registry.publish"

	c.mu.RLock()
	defer c.mu.RUnlock()

	repoRef, tagNames, err := splitTags(op, artifactTags)
	if err != nil {
		return "", err
	}

	blob, err := bundle.Marshal()
	if err != nil {
		return "", err
	}

	dgst, err := c.oras.Push(ctx, repoRef, blob, tagNames, c.options)
	if err != nil {
		return "", err
	}
	if _, parseErr := godigest.Parse(dgst); parseErr != nil {
		return "", ferrors.Wrapf(op, ferrors.CodePublishFailed, parseErr,
			"registry returned malformed digest %q", dgst)
	}

	return dgst, nil
}

// Pull downloads the bundle the tag points at. A missing tag is reported as
// ErrTagNotFound so callers can fall back to the immutable tag.
func (c *Client) Pull(ctx context.Context, tag domain.ArtifactTag) (*ReleaseBundle, string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	blob, dgst, err := c.oras.Fetch(ctx, repoReference(tag), tag.Tag, c.options)
	if err != nil {
		return nil, "", notFoundOr(err)
	}

	bundle, err := UnmarshalBundle(blob)
	if err != nil {
		return nil, "", err
	}

	return bundle, dgst, nil
}

// Resolve returns the manifest digest the tag currently points at.
// A missing tag is reported as ErrTagNotFound.
func (c *Client) Resolve(ctx context.Context, tag domain.ArtifactTag) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	dgst, err := c.oras.Resolve(ctx, repoReference(tag), tag.Tag, c.options)
	if err != nil {
		return "", notFoundOr(err)
	}
	return dgst, nil
}

// repoReference returns the repository portion of a tag reference.
func repoReference(tag domain.ArtifactTag) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{tag.Registry, tag.Namespace, tag.Repository} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, "/")
}

// splitTags validates that all tags address one repository and separates the
// repository reference from the tag names.
func splitTags(op string, artifactTags []domain.ArtifactTag) (string, []string, error) {
	if len(artifactTags) == 0 {
		return "", nil, ferrors.New(op, ferrors.CodeInvalidInput, "no tags to publish")
	}

	repoRef := repoReference(artifactTags[0])
	tagNames := make([]string, 0, len(artifactTags))
	for _, t := range artifactTags {
		if repoReference(t) != repoRef {
			return "", nil, ferrors.New(op, ferrors.CodeInvalidInput,
				fmt.Sprintf("tags span multiple repositories: %s and %s", repoRef, repoReference(t)))
		}
		if t.Tag == "" {
			return "", nil, ferrors.New(op, ferrors.CodeInvalidInput, "empty tag string")
		}
		tagNames = append(tagNames, t.Tag)
	}

	return repoRef, tagNames, nil
}

// notFoundOr maps artifact-not-found codes onto the ErrTagNotFound sentinel and
// passes every other error through.
func notFoundOr(err error) error {
	if ferrors.Code(err) == ferrors.CodeArtifactNotFound {
		return fmt.Errorf("%w: %w", ErrTagNotFound, err)
	}
	return err
}
