// Package tags derives registry artifact tags from git trigger context.
//
// The derivation is pure and deterministic: the same (ref, commit) pair always
// yields the same pair of tags, so the publish phase and the pull phase can run
// in separate processes and still agree on spelling. Branch refs and
// pull-request merge refs go through the same sanitization with no
// special-casing.
package tags

import (
	"strings"

	"github.com/input-output-hk/catalyst-forge-pipeline/domain"
)

// MaxTagLength is the maximum length of a derived tag. 128 bytes is within
// every mainstream registry's tag limit.
const MaxTagLength = 128

// placeholder is used when sanitization consumes the entire ref.
const placeholder = "unnamed"

// Pair holds the two tags derived for one build: a mutable tag reassigned on
// every build of the ref, and an immutable tag permanently bound to the commit.
type Pair struct {
	Mutable   string
	Immutable string
}

// Derive computes the tag pair for a ref name and commit hash.
// The immutable tag is the commit hash verbatim; the mutable tag is the
// sanitized ref name.
func Derive(refName, commitSHA string) Pair {
	return Pair{
		Mutable:   Sanitize(refName),
		Immutable: commitSHA,
	}
}

// For expands a tag pair into full artifact tags for the given image coordinates.
// The mutable tag comes first.
func For(registry, namespace, repository, refName, commitSHA string) []domain.ArtifactTag {
	pair := Derive(refName, commitSHA)
	return []domain.ArtifactTag{
		{Registry: registry, Namespace: namespace, Repository: repository, Tag: pair.Mutable},
		{Registry: registry, Namespace: namespace, Repository: repository, Tag: pair.Immutable},
	}
}

// Sanitize converts an arbitrary ref name into a registry-safe tag token.
//
// The transform lower-cases the input, replaces every character outside
// [a-z0-9._-] with '-', trims leading and trailing '-', and truncates to
// MaxTagLength. It is total (never fails) and idempotent:
// Sanitize(Sanitize(x)) == Sanitize(x) for all inputs. An input that sanitizes
// to the empty string yields a fixed placeholder rather than an invalid tag.
func Sanitize(refName string) string {
	lowered := strings.ToLower(refName)

	var b strings.Builder
	b.Grow(len(lowered))
	for _, r := range lowered {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}

	tag := strings.Trim(b.String(), "-")
	if len(tag) > MaxTagLength {
		tag = strings.Trim(tag[:MaxTagLength], "-")
	}
	if tag == "" {
		return placeholder
	}
	return tag
}
