// Package sandbox executes published artifacts in containers for deployment
// verification. It is read+execute only: nothing here mutates the artifact or
// registry state.
package sandbox

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"github.com/rs/zerolog"

	ferrors "github.com/input-output-hk/catalyst-forge-pipeline/errors"
)

// DefaultRunTimeout bounds one artifact execution, pull included.
const DefaultRunTimeout = 2 * time.Minute

// ErrImagePull is reported when the artifact image cannot be pulled.
// Callers use it to decide whether falling back to another tag makes sense.
var ErrImagePull = ferrors.New("sandbox", ferrors.CodeArtifactNotFound, "image pull failed")

// RunResult captures what an executed artifact produced.
type RunResult struct {
	// Stdout is the captured standard output.
	Stdout string

	// Stderr is the captured standard error.
	Stderr string

	// ExitCode is the container's exit status.
	ExitCode int
}

// Sandbox runs an artifact image with the given arguments and captures its
// output and exit status within the sandbox's configured timeout.
type Sandbox interface {
	Run(ctx context.Context, imageRef string, args []string) (*RunResult, error)
}

// dockerAPI is the slice of the Docker client the sandbox needs.
type dockerAPI interface {
	ImagePull(ctx context.Context, refStr string, options image.PullOptions) (io.ReadCloser, error)
	ContainerCreate(ctx context.Context, config *container.Config, hostConfig *container.HostConfig,
		networkingConfig *network.NetworkingConfig, platform *ocispec.Platform,
		containerName string) (container.CreateResponse, error)
	ContainerStart(ctx context.Context, containerID string, options container.StartOptions) error
	ContainerWait(ctx context.Context, containerID string,
		condition container.WaitCondition) (<-chan container.WaitResponse, <-chan error)
	ContainerLogs(ctx context.Context, containerID string, options container.LogsOptions) (io.ReadCloser, error)
	ContainerRemove(ctx context.Context, containerID string, options container.RemoveOptions) error
}

// DockerSandbox implements Sandbox on top of the Docker Engine API.
type DockerSandbox struct {
	dc      dockerAPI
	timeout time.Duration
	log     zerolog.Logger
}

// Config configures the Docker sandbox.
type Config struct {
	// Host overrides the Docker daemon address. Empty uses the environment.
	Host string

	// Timeout bounds one Run call. Zero falls back to DefaultRunTimeout.
	Timeout time.Duration

	// Logger receives debug output. Defaults to a no-op logger.
	Logger *zerolog.Logger
}

// NewDockerSandbox creates a sandbox backed by the local Docker daemon.
func NewDockerSandbox(cfg Config) (*DockerSandbox, error) {
	opts := []client.Opt{client.WithAPIVersionNegotiation()}
	if cfg.Host != "" {
		opts = append(opts, client.WithHost(cfg.Host))
	} else {
		opts = append(opts, client.FromEnv)
	}

	dc, err := client.NewClientWithOpts(opts...)
	if err != nil {
		return nil, ferrors.Wrap("sandbox.new", ferrors.CodeExecutionFailed, err)
	}

	return newDockerSandbox(dc, cfg), nil
}

// newDockerSandbox wires an explicit API client; tests inject fakes here.
func newDockerSandbox(dc dockerAPI, cfg Config) *DockerSandbox {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultRunTimeout
	}
	log := zerolog.Nop()
	if cfg.Logger != nil {
		log = *cfg.Logger
	}
	return &DockerSandbox{dc: dc, timeout: timeout, log: log}
}

// Run pulls the image, executes it once with the given arguments, and captures
// stdout and exit status. Pull failures are reported as ErrImagePull; every
// other failure means the artifact could not be executed to completion.
func (s *DockerSandbox) Run(ctx context.Context, imageRef string, args []string) (*RunResult, error) {
	const op = "sandbox.run"

	runCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.pull(runCtx, imageRef); err != nil {
		return nil, err
	}

	created, err := s.dc.ContainerCreate(runCtx, &container.Config{
		Image: imageRef,
		Cmd:   args,
	}, nil, nil, nil, "")
	if err != nil {
		return nil, ferrors.Wrapf(op, ferrors.CodeExecutionFailed, err,
			"failed to create container for %s", imageRef)
	}
	defer func() {
		// Removal uses a fresh context: runCtx may already be expired.
		rmCtx, rmCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer rmCancel()
		if rmErr := s.dc.ContainerRemove(rmCtx, created.ID, container.RemoveOptions{Force: true}); rmErr != nil {
			s.log.Warn().Err(rmErr).Str("container", created.ID).Msg("unable to remove container")
		}
	}()

	if err := s.dc.ContainerStart(runCtx, created.ID, container.StartOptions{}); err != nil {
		return nil, ferrors.Wrapf(op, ferrors.CodeExecutionFailed, err,
			"failed to start container for %s", imageRef)
	}

	exitCode, err := s.wait(runCtx, created.ID)
	if err != nil {
		return nil, err
	}

	stdout, stderr, err := s.logs(runCtx, created.ID)
	if err != nil {
		return nil, err
	}

	return &RunResult{Stdout: stdout, Stderr: stderr, ExitCode: exitCode}, nil
}

// pull downloads the image, draining the progress stream to completion.
func (s *DockerSandbox) pull(ctx context.Context, imageRef string) error {
	rc, err := s.dc.ImagePull(ctx, imageRef, image.PullOptions{})
	if err != nil {
		return ferrors.Wrapf("sandbox.pull", ferrors.CodeArtifactNotFound,
			fmt.Errorf("%w: %w", ErrImagePull, err), "unable to pull %s", imageRef)
	}
	defer func() { _ = rc.Close() }()

	// The pull completes only once the progress stream is consumed.
	if _, err := io.Copy(io.Discard, rc); err != nil {
		return ferrors.Wrapf("sandbox.pull", ferrors.CodeArtifactNotFound,
			fmt.Errorf("%w: %w", ErrImagePull, err), "pull of %s interrupted", imageRef)
	}
	return nil
}

// wait blocks until the container stops and returns its exit code.
func (s *DockerSandbox) wait(ctx context.Context, containerID string) (int, error) {
	const op = "sandbox.wait"

	statusCh, errCh := s.dc.ContainerWait(ctx, containerID, container.WaitConditionNotRunning)
	select {
	case status := <-statusCh:
		if status.Error != nil {
			return 0, ferrors.New(op, ferrors.CodeExecutionFailed, status.Error.Message)
		}
		return int(status.StatusCode), nil
	case err := <-errCh:
		if ctx.Err() != nil {
			return 0, ferrors.Wrap(op, ferrors.CodeTimeout, ctx.Err())
		}
		return 0, ferrors.Wrap(op, ferrors.CodeExecutionFailed, err)
	}
}

// logs fetches and demultiplexes the container's output streams.
func (s *DockerSandbox) logs(ctx context.Context, containerID string) (string, string, error) {
	const op = "sandbox.logs"

	out, err := s.dc.ContainerLogs(ctx, containerID, container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
	})
	if err != nil {
		return "", "", ferrors.Wrap(op, ferrors.CodeExecutionFailed, err)
	}
	defer func() { _ = out.Close() }()

	var stdout, stderr bytes.Buffer
	if _, err := stdcopy.StdCopy(&stdout, &stderr, out); err != nil {
		return "", "", ferrors.Wrap(op, ferrors.CodeExecutionFailed, err)
	}
	return stdout.String(), stderr.String(), nil
}
