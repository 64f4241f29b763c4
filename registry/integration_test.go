//go:build integration

// Integration tests for the registry client against a real registry.
// These run a distribution registry via testcontainers and require Docker:
//
//	go test -tags=integration -v ./registry/...
package registry

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/input-output-hk/catalyst-forge-pipeline/domain"
)

// startRegistry starts a local distribution registry and returns its host:port.
func startRegistry(ctx context.Context, t *testing.T) string {
	t.Helper()

	req := testcontainers.ContainerRequest{
		Image:        "registry:2",
		ExposedPorts: []string{"5000/tcp"},
		WaitingFor: wait.ForHTTP("/v2/").
			WithPort("5000/tcp").
			WithStartupTimeout(time.Minute),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5000")
	require.NoError(t, err)

	return fmt.Sprintf("%s:%s", host, port.Port())
}

func TestPublishPullAgainstRealRegistry(t *testing.T) {
	ctx := context.Background()
	endpoint := startRegistry(ctx, t)

	client := New(WithPlainHTTP(true))

	artifactTags := []domain.ArtifactTag{
		{Registry: endpoint, Repository: "calculator", Tag: "main"},
		{Registry: endpoint, Repository: "calculator", Tag: "abc123"},
	}

	bundle := &ReleaseBundle{
		RunID:     "run-int-1",
		RefName:   "main",
		CommitSHA: "abc123",
		Tags:      []string{"main", "abc123"},
		CreatedAt: time.Now().UTC(),
	}

	dgst, err := client.Publish(ctx, bundle, artifactTags)
	require.NoError(t, err)
	require.NotEmpty(t, dgst)

	// Both tags resolve to the same digest on the wire.
	for _, tag := range artifactTags {
		resolved, resErr := client.Resolve(ctx, tag)
		require.NoError(t, resErr)
		assert.Equal(t, dgst, resolved)
	}

	got, pulledDigest, err := client.Pull(ctx, artifactTags[0])
	require.NoError(t, err)
	assert.Equal(t, dgst, pulledDigest)
	assert.Equal(t, bundle.CommitSHA, got.CommitSHA)

	// Absent tags fail distinguishably.
	_, _, err = client.Pull(ctx, domain.ArtifactTag{
		Registry: endpoint, Repository: "calculator", Tag: "no-such-tag",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTagNotFound)
}
