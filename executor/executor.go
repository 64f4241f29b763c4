// Package executor runs external collaborator commands with output capture,
// environment management, and mandatory timeouts.
//
// Every collaborator in the pipeline (test runner, coverage tool, image
// builder, scanner) is invoked through this package; the core only interprets
// the reported exit status and, where a contract requires it, the captured
// output. There is no retry logic here: a failed stage fails the run, and
// retries are an external policy applied by re-triggering a whole new run.
package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	ferrors "github.com/input-output-hk/catalyst-forge-pipeline/errors"
)

// DefaultTimeout bounds a collaborator invocation when no timeout is configured.
const DefaultTimeout = 10 * time.Minute

// Result holds the output and exit status from a command execution.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Executor defines the interface for collaborator command execution.
type Executor interface {
	// Execute runs a command with the given options. A non-zero exit status is
	// not an error: callers inspect Result.ExitCode. An error is returned only
	// when the command could not be run to completion (start failure, timeout).
	Execute(ctx context.Context, command []string, opts ...Option) (*Result, error)
}

// CommandExecutor implements Executor on top of os/exec.
type CommandExecutor struct {
	options *Options
}

// Options configures command execution behavior.
type Options struct {
	// Timeout bounds the invocation. Zero falls back to DefaultTimeout;
	// unbounded collaborator calls are not permitted.
	Timeout time.Duration

	// WorkingDir is the directory the command runs in.
	WorkingDir string

	// Env holds environment variables appended to the current environment.
	Env map[string]string

	// Stdin is fed to the command's standard input when non-empty.
	Stdin string

	// StdoutWriter additionally receives stdout as it is produced.
	StdoutWriter io.Writer

	// StderrWriter additionally receives stderr as it is produced.
	StderrWriter io.Writer
}

// Option is a function that modifies Options.
type Option func(*Options)

// DefaultOptions returns default execution options.
func DefaultOptions() *Options {
	return &Options{
		Timeout: DefaultTimeout,
		Env:     make(map[string]string),
	}
}

// New creates a new CommandExecutor with the given base options.
func New(opts ...Option) *CommandExecutor {
	options := DefaultOptions()
	for _, opt := range opts {
		opt(options)
	}
	return &CommandExecutor{options: options}
}

// Execute implements the Executor interface.
func (c *CommandExecutor) Execute(
	ctx context.Context,
	command []string,
	opts ...Option,
) (*Result, error) {
	const op = "executor.execute"

	if len(command) == 0 {
		return nil, ferrors.New(op, ferrors.CodeInvalidInput, "command cannot be empty")
	}

	options := c.mergeOptions(opts...)
	timeout := options.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, command[0], command[1:]...)
	c.setupCommand(cmd, options)
	stdoutBuf, stderrBuf := c.setupOutputCapture(cmd, options)

	err := cmd.Run()

	result := &Result{
		Stdout:   stdoutBuf.String(),
		Stderr:   stderrBuf.String(),
		ExitCode: exitCode(err),
	}

	switch {
	case err == nil:
		return result, nil
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		return result, ferrors.Wrapf(op, ferrors.CodeTimeout, runCtx.Err(),
			"command %q exceeded %s timeout", command[0], timeout)
	case result.ExitCode >= 0:
		// The collaborator ran and reported a status; not an executor error.
		return result, nil
	default:
		return result, ferrors.Wrapf(op, ferrors.CodeExecutionFailed, err,
			"failed to start command %q", command[0])
	}
}

// setupCommand configures the working directory, environment, and stdin.
func (c *CommandExecutor) setupCommand(cmd *exec.Cmd, options *Options) {
	if options.WorkingDir != "" {
		cmd.Dir = options.WorkingDir
	}

	if len(options.Env) > 0 {
		cmd.Env = os.Environ()
		for k, v := range options.Env {
			cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", k, v))
		}
	}

	if options.Stdin != "" {
		cmd.Stdin = strings.NewReader(options.Stdin)
	}
}

// setupOutputCapture configures stdout and stderr capture for the command.
func (c *CommandExecutor) setupOutputCapture(
	cmd *exec.Cmd,
	options *Options,
) (*bytes.Buffer, *bytes.Buffer) {
	var stdoutBuf, stderrBuf bytes.Buffer

	stdoutWriters := []io.Writer{&stdoutBuf}
	if options.StdoutWriter != nil {
		stdoutWriters = append(stdoutWriters, options.StdoutWriter)
	}
	cmd.Stdout = io.MultiWriter(stdoutWriters...)

	stderrWriters := []io.Writer{&stderrBuf}
	if options.StderrWriter != nil {
		stderrWriters = append(stderrWriters, options.StderrWriter)
	}
	cmd.Stderr = io.MultiWriter(stderrWriters...)

	return &stdoutBuf, &stderrBuf
}

func (c *CommandExecutor) mergeOptions(opts ...Option) *Options {
	merged := *c.options
	for _, opt := range opts {
		opt(&merged)
	}
	return &merged
}

// exitCode extracts the process exit status from a Run error.
// Returns -1 when the process never produced a status.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

// Option functions for fluent configuration.

// WithTimeout bounds the command's execution time.
func WithTimeout(timeout time.Duration) Option {
	return func(o *Options) {
		o.Timeout = timeout
	}
}

// WithWorkingDir sets the working directory.
func WithWorkingDir(dir string) Option {
	return func(o *Options) {
		o.WorkingDir = dir
	}
}

// WithEnv adds environment variables.
func WithEnv(env map[string]string) Option {
	return func(o *Options) {
		if o.Env == nil {
			o.Env = make(map[string]string)
		}
		for k, v := range env {
			o.Env[k] = v
		}
	}
}

// WithEnvVar adds a single environment variable.
func WithEnvVar(key, value string) Option {
	return func(o *Options) {
		if o.Env == nil {
			o.Env = make(map[string]string)
		}
		o.Env[key] = value
	}
}

// WithStdin feeds the given input to the command's standard input.
func WithStdin(input string) Option {
	return func(o *Options) {
		o.Stdin = input
	}
}

// WithStdoutWriter streams stdout to an additional writer while capturing it.
func WithStdoutWriter(w io.Writer) Option {
	return func(o *Options) {
		o.StdoutWriter = w
	}
}

// WithStderrWriter streams stderr to an additional writer while capturing it.
func WithStderrWriter(w io.Writer) Option {
	return func(o *Options) {
		o.StderrWriter = w
	}
}
