// Package runtime provides the Runtime interface for pipeline job
// execution backends.
package runtime

import (
	"context"
	"io"
)

// Runtime defines the interface for executing a single pipeline job.
// Implementations include raw process execution and Docker containers.
type Runtime interface {
	// Start begins execution of a job and returns a handle.
	Start(ctx context.Context, opts StartOptions) (Handle, error)
}

// StartOptions contains the parameters for starting a job.
type StartOptions struct {
	// Name is the job name, used for working directories and labels.
	Name string
	// Run is the shell command, executed as `sh -c`.
	Run string
	// Image selects the container image for container-backed runtimes.
	Image string
	Env   map[string]string
}

// ExitResult is the terminal result of a job process.
type ExitResult struct {
	ExitCode int
	Error    error
}

// Handle represents a running job.
type Handle interface {
	// Wait blocks until the job completes and returns its exit result.
	Wait(ctx context.Context) (ExitResult, error)

	// Stop forcefully terminates the job.
	Stop(ctx context.Context) error

	// StreamLogs returns a reader over the job's combined stdout/stderr.
	StreamLogs(ctx context.Context) (io.ReadCloser, error)
}
