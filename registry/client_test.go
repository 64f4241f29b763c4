package registry

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	godigest "github.com/opencontainers/go-digest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/catalyst-forge-pipeline/domain"
	ferrors "github.com/input-output-hk/catalyst-forge-pipeline/errors"
)

// fakeORASClient keeps manifests in memory, keyed by repo and tag.
type fakeORASClient struct {
	mu    sync.Mutex
	blobs map[string][]byte // digest -> blob
	tags  map[string]string // "repo:tag" -> digest

	pushErr    error
	resolveErr error
}

func newFakeORASClient() *fakeORASClient {
	return &fakeORASClient{
		blobs: make(map[string][]byte),
		tags:  make(map[string]string),
	}
}

func (f *fakeORASClient) Push(
	_ context.Context, repoRef string, blob []byte, tags []string, _ *ClientOptions,
) (string, error) {
	if f.pushErr != nil {
		return "", f.pushErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	dgst := godigest.FromBytes(blob).String()
	f.blobs[dgst] = blob
	for _, tag := range tags {
		f.tags[repoRef+":"+tag] = dgst
	}
	return dgst, nil
}

func (f *fakeORASClient) Resolve(
	_ context.Context, repoRef, tag string, _ *ClientOptions,
) (string, error) {
	if f.resolveErr != nil {
		return "", f.resolveErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	dgst, ok := f.tags[repoRef+":"+tag]
	if !ok {
		return "", ferrors.New("registry.resolve", ferrors.CodeArtifactNotFound,
			fmt.Sprintf("tag %q not found", tag))
	}
	return dgst, nil
}

func (f *fakeORASClient) Fetch(
	ctx context.Context, repoRef, tag string, opts *ClientOptions,
) ([]byte, string, error) {
	dgst, err := f.Resolve(ctx, repoRef, tag, opts)
	if err != nil {
		return nil, "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.blobs[dgst], dgst, nil
}

func testTags() []domain.ArtifactTag {
	return []domain.ArtifactTag{
		{Registry: "registry.local", Namespace: "acme", Repository: "calculator", Tag: "main"},
		{Registry: "registry.local", Namespace: "acme", Repository: "calculator", Tag: "abc123"},
	}
}

func testBundle() *ReleaseBundle {
	return &ReleaseBundle{
		RunID:      "run-1",
		Repository: "calculator",
		RefName:    "main",
		CommitSHA:  "abc123",
		Tags:       []string{"main", "abc123"},
		CreatedAt:  time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestPublishTagsShareDigest(t *testing.T) {
	fake := newFakeORASClient()
	client := New(WithORASClient(fake))

	dgst, err := client.Publish(context.Background(), testBundle(), testTags())
	require.NoError(t, err)
	require.NotEmpty(t, dgst)

	// Both tags must resolve to the identical manifest digest.
	for _, tag := range testTags() {
		resolved, resErr := client.Resolve(context.Background(), tag)
		require.NoError(t, resErr)
		assert.Equal(t, dgst, resolved, "tag %s", tag.Tag)
	}
}

func TestPublishValidation(t *testing.T) {
	client := New(WithORASClient(newFakeORASClient()))

	t.Run("no tags", func(t *testing.T) {
		_, err := client.Publish(context.Background(), testBundle(), nil)
		require.Error(t, err)
		assert.Equal(t, ferrors.CodeInvalidInput, ferrors.Code(err))
	})

	t.Run("mixed repositories", func(t *testing.T) {
		mixed := testTags()
		mixed[1].Repository = "other"
		_, err := client.Publish(context.Background(), testBundle(), mixed)
		require.Error(t, err)
		assert.Equal(t, ferrors.CodeInvalidInput, ferrors.Code(err))
	})

	t.Run("empty tag string", func(t *testing.T) {
		empty := testTags()
		empty[0].Tag = ""
		_, err := client.Publish(context.Background(), testBundle(), empty)
		require.Error(t, err)
		assert.Equal(t, ferrors.CodeInvalidInput, ferrors.Code(err))
	})
}

func TestPullRoundtrip(t *testing.T) {
	fake := newFakeORASClient()
	client := New(WithORASClient(fake))

	want := testBundle()
	_, err := client.Publish(context.Background(), want, testTags())
	require.NoError(t, err)

	got, dgst, err := client.Pull(context.Background(), testTags()[0])
	require.NoError(t, err)
	assert.NotEmpty(t, dgst)
	assert.Equal(t, want, got)
}

func TestPullMissingTag(t *testing.T) {
	client := New(WithORASClient(newFakeORASClient()))

	_, _, err := client.Pull(context.Background(), testTags()[0])
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTagNotFound)
}

func TestMutableTagReassignment(t *testing.T) {
	fake := newFakeORASClient()
	client := New(WithORASClient(fake))

	mutable := testTags()[:1]

	first := testBundle()
	firstDigest, err := client.Publish(context.Background(), first, mutable)
	require.NoError(t, err)

	second := testBundle()
	second.CommitSHA = "def456"
	secondDigest, err := client.Publish(context.Background(), second, mutable)
	require.NoError(t, err)

	require.NotEqual(t, firstDigest, secondDigest)

	// The mutable tag follows the newest push.
	resolved, err := client.Resolve(context.Background(), mutable[0])
	require.NoError(t, err)
	assert.Equal(t, secondDigest, resolved)
}
