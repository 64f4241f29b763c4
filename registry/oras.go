// Package registry provides release bundle distribution through an OCI registry.
// This file isolates the ORAS transport behind an interface for testability.
package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	oras "oras.land/oras-go/v2"
	"oras.land/oras-go/v2/content"
	"oras.land/oras-go/v2/content/memory"
	"oras.land/oras-go/v2/errdef"
	"oras.land/oras-go/v2/registry/remote"
	"oras.land/oras-go/v2/registry/remote/auth"
	"oras.land/oras-go/v2/registry/remote/retry"

	ferrors "github.com/input-output-hk/catalyst-forge-pipeline/errors"
)

// ORASClient abstracts the registry transport. The default implementation
// speaks to a real registry through ORAS; tests inject in-memory fakes.
type ORASClient interface {
	// Push publishes a single-blob manifest to the repository under every tag
	// in tags. All tags point at the identical manifest; the returned digest is
	// the manifest digest shared by all of them.
	Push(ctx context.Context, repoRef string, blob []byte, tags []string, opts *ClientOptions) (string, error)

	// Resolve returns the manifest digest a tag currently points at.
	Resolve(ctx context.Context, repoRef, tag string, opts *ClientOptions) (string, error)

	// Fetch downloads the bundle blob a tag points at, returning the blob and
	// the manifest digest.
	Fetch(ctx context.Context, repoRef, tag string, opts *ClientOptions) ([]byte, string, error)
}

// defaultORASClient implements ORASClient against a real registry.
type defaultORASClient struct{}

// newRepository creates an ORAS remote repository with authentication configured.
func (defaultORASClient) newRepository(repoRef string, opts *ClientOptions) (*remote.Repository, error) {
	repo, err := remote.NewRepository(repoRef)
	if err != nil {
		return nil, ferrors.Wrapf("registry.repository", ferrors.CodeInvalidInput, err,
			"invalid repository reference %q", repoRef)
	}

	repo.PlainHTTP = opts.PlainHTTP

	client := &auth.Client{
		Client: retry.DefaultClient,
		Cache:  auth.NewCache(),
	}
	if opts.Auth != nil {
		client.Credential = auth.StaticCredential(opts.Auth.Registry, auth.Credential{
			Username: opts.Auth.Username,
			Password: opts.Auth.Password,
		})
	}
	repo.Client = client

	return repo, nil
}

// Push implements ORASClient.
func (c defaultORASClient) Push(
	ctx context.Context,
	repoRef string,
	blob []byte,
	tags []string,
	opts *ClientOptions,
) (string, error) {
	const op = "registry.push"

	if len(tags) == 0 {
		return "", ferrors.New(op, ferrors.CodeInvalidInput, "at least one tag is required")
	}

	repo, err := c.newRepository(repoRef, opts)
	if err != nil {
		return "", err
	}

	store := memory.New()

	blobDesc := content.NewDescriptorFromBytes(BundleMediaType, blob)
	if err := store.Push(ctx, blobDesc, bytes.NewReader(blob)); err != nil {
		return "", ferrors.Wrap(op, ferrors.CodePublishFailed, err)
	}

	manifestDesc, err := oras.PackManifest(ctx, store, oras.PackManifestVersion1_1,
		BundleArtifactType, oras.PackManifestOptions{
			Layers: []ocispec.Descriptor{blobDesc},
		})
	if err != nil {
		return "", ferrors.Wrap(op, ferrors.CodePublishFailed, err)
	}

	// Upload once under the first tag, then attach the remaining tags to the
	// same manifest. Every tag resolves to the identical digest by construction.
	if err := store.Tag(ctx, manifestDesc, tags[0]); err != nil {
		return "", ferrors.Wrap(op, ferrors.CodePublishFailed, err)
	}
	if _, err := oras.Copy(ctx, store, tags[0], repo, tags[0], oras.DefaultCopyOptions); err != nil {
		return "", ferrors.Wrapf(op, ferrors.CodePublishFailed, err,
			"failed to push %s:%s", repoRef, tags[0])
	}
	for _, tag := range tags[1:] {
		if err := repo.Tag(ctx, manifestDesc, tag); err != nil {
			return "", ferrors.Wrapf(op, ferrors.CodePublishFailed, err,
				"failed to tag %s:%s", repoRef, tag)
		}
	}

	return manifestDesc.Digest.String(), nil
}

// Resolve implements ORASClient.
func (c defaultORASClient) Resolve(
	ctx context.Context,
	repoRef, tag string,
	opts *ClientOptions,
) (string, error) {
	const op = "registry.resolve"

	repo, err := c.newRepository(repoRef, opts)
	if err != nil {
		return "", err
	}

	desc, err := repo.Resolve(ctx, tag)
	if err != nil {
		if ferrors.Is(err, errdef.ErrNotFound) {
			return "", ferrors.Wrapf(op, ferrors.CodeArtifactNotFound, err,
				"tag %q not found in %s", tag, repoRef)
		}
		return "", ferrors.Wrap(op, ferrors.CodeNetwork, err)
	}

	return desc.Digest.String(), nil
}

// Fetch implements ORASClient.
func (c defaultORASClient) Fetch(
	ctx context.Context,
	repoRef, tag string,
	opts *ClientOptions,
) ([]byte, string, error) {
	const op = "registry.fetch"

	repo, err := c.newRepository(repoRef, opts)
	if err != nil {
		return nil, "", err
	}

	manifestDesc, err := repo.Resolve(ctx, tag)
	if err != nil {
		if ferrors.Is(err, errdef.ErrNotFound) {
			return nil, "", ferrors.Wrapf(op, ferrors.CodeArtifactNotFound, err,
				"tag %q not found in %s", tag, repoRef)
		}
		return nil, "", ferrors.Wrap(op, ferrors.CodeNetwork, err)
	}

	manifestData, err := content.FetchAll(ctx, repo, manifestDesc)
	if err != nil {
		return nil, "", ferrors.Wrap(op, ferrors.CodeNetwork, err)
	}

	var manifest ocispec.Manifest
	if err := json.Unmarshal(manifestData, &manifest); err != nil {
		return nil, "", ferrors.Wrap(op, ferrors.CodeInvalidInput, err)
	}
	if len(manifest.Layers) == 0 {
		return nil, "", ferrors.New(op, ferrors.CodeInvalidInput,
			fmt.Sprintf("manifest %s has no layers", manifestDesc.Digest))
	}

	blob, err := content.FetchAll(ctx, repo.Blobs(), manifest.Layers[0])
	if err != nil {
		return nil, "", ferrors.Wrap(op, ferrors.CodeNetwork, err)
	}

	return blob, manifestDesc.Digest.String(), nil
}
