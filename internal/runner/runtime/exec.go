package runtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
)

// ExecRuntime implements the Runtime interface using raw OS processes.
// This is the default backend: jobs run as `sh -c` on the host.
type ExecRuntime struct {
	// WorkDir is the base directory for per-job working directories.
	WorkDir string
}

// NewExecRuntime creates a new process-based runtime. When workDir is
// empty a directory under the system temp dir is used.
func NewExecRuntime(workDir string) *ExecRuntime {
	if workDir == "" {
		workDir = filepath.Join(os.TempDir(), "pipegate", "runner")
	}
	return &ExecRuntime{WorkDir: workDir}
}

// Start implements Runtime.Start using os/exec.
func (e *ExecRuntime) Start(ctx context.Context, opts StartOptions) (Handle, error) {
	if opts.Run == "" {
		return nil, fmt.Errorf("run command is required")
	}

	jobDir := e.WorkDir
	if opts.Name != "" {
		jobDir = filepath.Join(e.WorkDir, opts.Name)
	}
	if err := os.MkdirAll(jobDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create work dir: %w", err)
	}

	cmd := exec.Command("sh", "-c", opts.Run)
	cmd.Dir = jobDir
	cmd.Env = append(os.Environ(), mapToEnvList(opts.Env)...)
	// Run the job in its own process group so Stop can take down any
	// children the shell spawned, not just the shell itself. Orphaned
	// children would otherwise keep the log pipe open and block Wait.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	pr, pw := io.Pipe()
	cmd.Stdout = pw
	cmd.Stderr = pw

	if err := cmd.Start(); err != nil {
		pw.Close()
		return nil, fmt.Errorf("failed to start command: %w", err)
	}

	h := &ExecHandle{
		cmd:  cmd,
		logs: pr,
		done: make(chan error, 1),
	}
	go func() {
		err := cmd.Wait()
		pw.Close()
		h.done <- err
	}()

	return h, nil
}

// ExecHandle represents a running host process.
type ExecHandle struct {
	cmd  *exec.Cmd
	logs *io.PipeReader
	done chan error
}

// Wait blocks until the process exits or the context is cancelled.
// A non-zero exit is not an error here; it is reported via ExitCode so
// the caller can classify it.
func (h *ExecHandle) Wait(ctx context.Context) (ExitResult, error) {
	select {
	case err := <-h.done:
		// Allow Wait to be called again after completion.
		h.done <- err
		if err == nil {
			return ExitResult{ExitCode: 0}, nil
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return ExitResult{ExitCode: exitErr.ExitCode()}, nil
		}
		return ExitResult{ExitCode: -1, Error: err}, err
	case <-ctx.Done():
		return ExitResult{ExitCode: -1, Error: ctx.Err()}, ctx.Err()
	}
}

// Stop kills the whole process group so background children started by
// the job shell cannot outlive it.
func (h *ExecHandle) Stop(ctx context.Context) error {
	if h.cmd.Process == nil {
		return nil
	}
	if err := syscall.Kill(-h.cmd.Process.Pid, syscall.SIGKILL); err != nil && !errors.Is(err, syscall.ESRCH) {
		// Fall back to killing the direct child if the group is gone.
		return h.cmd.Process.Kill()
	}
	return nil
}

// StreamLogs returns the combined stdout/stderr of the process.
func (h *ExecHandle) StreamLogs(ctx context.Context) (io.ReadCloser, error) {
	return h.logs, nil
}

func mapToEnvList(m map[string]string) []string {
	var env []string
	for k, v := range m {
		env = append(env, fmt.Sprintf("%s=%s", k, v))
	}
	return env
}
