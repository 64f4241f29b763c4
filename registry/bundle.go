// Package registry provides release bundle distribution through an OCI registry.
// This file defines the bundle payload that tracks a published release.
package registry

import (
	"encoding/json"
	"time"

	ferrors "github.com/input-output-hk/catalyst-forge-pipeline/errors"
)

const (
	// BundleMediaType is the media type of the release bundle blob.
	BundleMediaType = "application/vnd.forge.release.v1+json"

	// BundleArtifactType is the artifact type recorded on the bundle manifest.
	BundleArtifactType = "application/vnd.forge.release.manifest.v1+json"
)

// ReleaseBundle is the metadata published alongside a built artifact. It lets
// later stages and external tooling recover what a tag points at without
// consulting the pipeline that produced it.
type ReleaseBundle struct {
	// RunID is the pipeline run that produced this release.
	RunID string `json:"run_id"`

	// Repository is the source repository name.
	Repository string `json:"repository"`

	// RefName is the git ref the release was built from.
	RefName string `json:"ref_name"`

	// CommitSHA is the commit the release was built from.
	CommitSHA string `json:"commit_sha"`

	// Tags are the tag strings the release was published under.
	Tags []string `json:"tags"`

	// CreatedAt is when the bundle was published.
	CreatedAt time.Time `json:"created_at"`
}

// Marshal serializes the bundle to its canonical JSON form.
func (b *ReleaseBundle) Marshal() ([]byte, error) {
	data, err := json.Marshal(b)
	if err != nil {
		return nil, ferrors.Wrap("registry.bundle.marshal", ferrors.CodeInvalidInput, err)
	}
	return data, nil
}

// UnmarshalBundle deserializes a bundle from its JSON form.
func UnmarshalBundle(data []byte) (*ReleaseBundle, error) {
	var b ReleaseBundle
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, ferrors.Wrap("registry.bundle.unmarshal", ferrors.CodeInvalidInput, err)
	}
	return &b, nil
}
